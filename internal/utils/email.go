package utils

import (
	"strings"
)

func UniqueEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	unique := make([]string, 0, len(emails))

	for _, email := range emails {
		if _, exists := seen[email]; !exists {
			seen[email] = struct{}{}
			unique = append(unique, email)
		}
	}

	return unique
}

// SplitAddressList parses a semicolon-delimited address list, dropping empty
// entries.
func SplitAddressList(raw string) []string {
	parts := strings.Split(raw, ";")
	addresses := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			addresses = append(addresses, part)
		}
	}
	return addresses
}

// BareAddress strips an optional display name, e.g. "Name <a@b.com>" -> "a@b.com".
func BareAddress(address string) string {
	address = strings.TrimSpace(address)
	if strings.Contains(address, "<") && strings.Contains(address, ">") {
		startIdx := strings.LastIndex(address, "<") + 1
		endIdx := strings.LastIndex(address, ">")
		if startIdx > 0 && endIdx > startIdx {
			address = address[startIdx:endIdx]
		}
	}
	return address
}

func ExtractDomainFromEmail(email string) string {
	if email == "" {
		return ""
	}

	email = BareAddress(email)

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(parts[1]))
}
