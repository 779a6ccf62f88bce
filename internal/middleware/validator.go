package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateMode normalizes the analysis mode; unknown values fall back to "fast"
func ValidateMode(mode string) string {
	allowed := map[string]bool{
		"fast": true,
		"deep": true,
	}
	m := strings.ToLower(strings.TrimSpace(mode))
	if !allowed[m] {
		return "fast"
	}
	return m
}

var analysisIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateAnalysisID validates record key format
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if !analysisIDPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps a history limit to the recency window
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 50 {
		return 50 // max limit
	}
	return limit
}
