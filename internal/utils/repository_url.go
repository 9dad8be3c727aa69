package utils

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidRepositoryURL = errors.New("repository URL must look like https://github.com/<owner>/<repo>")

// NormalizeGitHubRepositoryURL validates a GitHub repository link and returns
// it in canonical form. An empty input is returned unchanged and unlinks the
// repository.
func NormalizeGitHubRepositoryURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || !strings.EqualFold(u.Host, "github.com") {
		return "", ErrInvalidRepositoryURL
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrInvalidRepositoryURL
	}

	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return "", ErrInvalidRepositoryURL
	}

	return "https://github.com/" + parts[0] + "/" + repo, nil
}
