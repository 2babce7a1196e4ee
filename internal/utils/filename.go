package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSanitizedLength = 50

var (
	unsafeChars     = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
	pageFilenameFmt = "%s-%03d.png"
)

// SanitizeFilename derives a filesystem-safe output prefix from an attachment
// filename: extension stripped, characters outside [a-zA-Z0-9_-] mapped to
// underscore, runs collapsed, edges trimmed, lowercased, length capped.
// "Report (Q1).pdf" becomes "report_q1".
func SanitizeFilename(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}

	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	name = strings.ToLower(strings.Trim(name, "_"))

	if len(name) > maxSanitizedLength {
		name = name[:maxSanitizedLength]
	}

	if name == "" {
		name = "unnamed"
	}

	return name
}

// PageFilename builds the outgoing image name for a 1-indexed page,
// e.g. "report_q1-001.png". Zero padding keeps lexical order equal to
// page order.
func PageFilename(sanitizedPrefix string, pageNumber int) string {
	return fmt.Sprintf(pageFilenameFmt, sanitizedPrefix, pageNumber)
}
