package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet leaves out 0/O and 1/I/L so codes survive being read aloud.
const inviteAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	inviteGroups    = 3
	inviteGroupSize = 4
)

// GenerateInviteCode returns a random code shaped like XXXX-XXXX-XXXX.
func GenerateInviteCode() (string, error) {
	raw := make([]byte, inviteGroups*inviteGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	var b strings.Builder
	for i, v := range raw {
		if i > 0 && i%inviteGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(inviteAlphabet[int(v)%len(inviteAlphabet)])
	}
	return b.String(), nil
}

// NormalizeInviteCode accepts codes typed in lower case or with stray spaces.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
