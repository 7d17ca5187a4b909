package middleware

import (
	"regexp"
	"strings"

	"github.com/bryanwahyu/vantage/internal/domain/apperr"
)

// Input validation and sanitization utilities

const maxLimit = 500

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// SanitizeString removes null bytes and control characters, keeping tabs and newlines.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeTags applies SanitizeString to each tag.
func SanitizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = SanitizeString(t)
	}
	return out
}

// ValidateID checks the shape of a record id taken from the URL.
func ValidateID(id string) error {
	if id == "" {
		return apperr.Validation("id is required")
	}
	if !idPattern.MatchString(id) {
		return apperr.Validation("invalid id format")
	}
	return nil
}

// ValidateLimit clamps a list limit; zero means no limit.
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
