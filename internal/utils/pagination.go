package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
)

// Page is a validated page request. Numbers start at 1.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads ?page= and ?limit= from the request. Missing or out of
// range values fall back to the first page of the default size.
func ParsePage(c *gin.Context) Page {
	p := Page{Number: 1, Size: constants.DefaultPageSize}

	if n, err := strconv.Atoi(c.Query("page")); err == nil && n >= 1 {
		p.Number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n >= constants.MinPageSize && n <= constants.MaxPageSize {
		p.Size = n
	}
	return p
}

func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages is how many pages of this size hold total items.
func (p Page) TotalPages(total int64) int {
	if p.Size < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
