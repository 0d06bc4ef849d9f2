package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a block or volume name.
//
// The validation rules are intentionally conservative:
//   - No control characters
//   - No null bytes
//   - Maximum length of 256 characters
//
// Empty names are allowed; they are replaced by generated names upstream.
func ValidateName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidName, "name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a data file path handed to a reader or writer.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// dimsOrderRegex matches permutations of the three spatial axis names.
var dimsOrderRegex = regexp.MustCompile(`^[xyz]{3}$`)

// ValidateDimsOrder validates a spatial dimension ordering such as "xyz" or "zyx".
func ValidateDimsOrder(order string) error {
	if !dimsOrderRegex.MatchString(order) {
		return New(ErrCodeInvalidInput, "invalid dims order: %q", order)
	}
	for _, axis := range "xyz" {
		if strings.Count(order, string(axis)) != 1 {
			return New(ErrCodeInvalidInput, "dims order %q must be a permutation of xyz", order)
		}
	}
	return nil
}
