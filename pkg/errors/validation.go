package errors

import (
	"strings"
	"unicode"
)

// maxSystemIDLength bounds catalogue system identifiers.
const maxSystemIDLength = 128

// ValidateSystemID validates a building system identifier.
// System IDs key catalogue lookups and cache entries, so they are kept to
// printable characters without path separators.
func ValidateSystemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "system id cannot be empty")
	}

	if len(id) > maxSystemIDLength {
		return New(ErrCodeInvalidInput, "system id too long (max %d characters)", maxSystemIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "system id contains invalid characters")
		}
	}

	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "system id cannot contain path characters: %q", id)
	}

	return nil
}

// ValidateDNAList checks that a DNA list is non-empty and that no entry is blank.
// Grammar-level checks are left to the dna package.
func ValidateDNAList(dnas []string) error {
	if len(dnas) == 0 {
		return New(ErrCodeMalformedInput, "dna list cannot be empty")
	}
	for i, d := range dnas {
		if strings.TrimSpace(d) == "" {
			return New(ErrCodeMalformedInput, "dna at index %d is empty", i)
		}
	}
	return nil
}

// ValidatePath validates a file path passed on the command line or over the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
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
