package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueEmails(t *testing.T) {
	result := UniqueEmails([]string{"a@x.com", "b@x.com", "a@x.com"})

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, result)
}

func TestSplitAddressList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "a@x.com", []string{"a@x.com"}},
		{"multiple with whitespace", " a@x.com ; b@x.com;", []string{"a@x.com", "b@x.com"}},
		{"only separators", ";;", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitAddressList(tt.input))
		})
	}
}

func TestBareAddress(t *testing.T) {
	assert.Equal(t, "a@x.com", BareAddress("Alice Example <a@x.com>"))
	assert.Equal(t, "a@x.com", BareAddress("a@x.com"))
	assert.Equal(t, "a@x.com", BareAddress("  a@x.com  "))
}

func TestExtractDomainFromEmail(t *testing.T) {
	assert.Equal(t, "x.com", ExtractDomainFromEmail("a@X.COM"))
	assert.Equal(t, "x.com", ExtractDomainFromEmail("Alice <a@x.com>"))
	assert.Equal(t, "", ExtractDomainFromEmail("not-an-address"))
	assert.Equal(t, "", ExtractDomainFromEmail(""))
}
