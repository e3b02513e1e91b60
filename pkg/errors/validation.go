package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// networkNameRegex matches names accepted for stored network records.
var networkNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateNetworkName validates a name used to store or look up a network
// in the archive. It rejects names that could be used for path traversal
// or injection when the name ends up in file paths or database queries.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Must start with an alphanumeric character
//   - Only alphanumerics, dots, underscores and hyphens
//   - Maximum length of 128 characters
func ValidateNetworkName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidParameter, "network name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidParameter, "network name too long (max 128 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidParameter, "network name contains invalid control characters")
		}
	}

	if !networkNameRegex.MatchString(name) {
		return New(ErrCodeInvalidParameter, "invalid network name: %q", name)
	}

	return nil
}

// ValidateTimeOfDay validates an hour-of-day value on the 24h clock.
// Accepted values lie in the half-open interval [0, 24).
func ValidateTimeOfDay(hour float64) error {
	if math.IsNaN(hour) || math.IsInf(hour, 0) {
		return New(ErrCodeInvalidParameter, "time of day must be finite, got %v", hour)
	}

	if hour < 0 || hour >= 24 {
		return New(ErrCodeInvalidParameter, "time of day must be in [0, 24), got %v", hour)
	}

	return nil
}

// ValidateOutputPath validates a file path supplied as a render or export
// target. Unlike repository-internal paths, absolute paths are allowed
// here: the caller chooses where output lands.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidParameter, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidParameter, "output path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidParameter, "output path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidParameter, "output path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidParameter, "output path cannot contain backslashes")
	}

	return nil
}
