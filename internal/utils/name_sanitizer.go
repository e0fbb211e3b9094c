package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical name bounds: 3-50 alphanumeric characters. The shorter and
// longer bounds seen historically collapse to this single rule.
const (
	MinNameLength = 3
	MaxNameLength = 50
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,50}$`)

// SanitizeName trims surrounding whitespace and validates the name
// against the canonical character set and length bounds. The returned
// name is safe to embed in contract calls and pin labels as-is.
func SanitizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("name must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("name may only contain letters and digits")
	}
	return name, nil
}
