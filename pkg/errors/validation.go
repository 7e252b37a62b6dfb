package errors

import (
	"slices"
	"strings"
	"unicode"
)

const maxKeyLength = 1024

// ValidateEntityKey checks an entity key taken from user input (a CLI flag,
// a URL path or a query parameter). Keys are URIs such as
// "hive://gold.core/orders", so slashes are allowed.
func ValidateEntityKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return New(ErrCodeInvalidInput, "entity key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidInput, "entity key too long (max %d characters)", maxKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity key contains invalid control characters")
		}
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(allowed, format) {
		return New(ErrCodeInvalidFormat, "invalid format: %s (must be one of: %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}
