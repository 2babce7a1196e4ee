package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "invoice.pdf", "invoice"},
		{"lowercased", "Report (Q1).pdf", "report_q1"},
		{"spaces become underscores", "my report.pdf", "my_report"},
		{"runs collapse", "a  &&  b.pdf", "a_b"},
		{"edges trimmed", "??report??.pdf", "report"},
		{"unicode mapped", "résumé.pdf", "r_sum"},
		{"keeps dashes and underscores", "q3_report-final.pdf", "q3_report-final"},
		{"only extension stripped once", "archive.tar.pdf", "archive_tar"},
		{"no extension", "README", "readme"},
		{"everything unsafe", "???.pdf", "unnamed"},
		{"empty", "", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 80) + ".pdf"

	result := SanitizeFilename(long)

	assert.Len(t, result, 50)
}

func TestPageFilename(t *testing.T) {
	assert.Equal(t, "invoice-001.png", PageFilename("invoice", 1))
	assert.Equal(t, "invoice-042.png", PageFilename("invoice", 42))
	assert.Equal(t, "invoice-1000.png", PageFilename("invoice", 1000))
}

func TestPageFilenameFromOriginalAttachmentName(t *testing.T) {
	assert.Equal(t, "report_q1-001.png", PageFilename(SanitizeFilename("Report (Q1).pdf"), 1))
}
