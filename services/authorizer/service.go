package authorizer

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/interfaces"
)

type senderAuthorizer struct {
	pattern *regexp.Regexp
}

// NewSenderAuthorizer compiles the whitelist pattern once. A malformed
// pattern is a configuration error and fails here, never per-message.
func NewSenderAuthorizer(pattern string) (interfaces.SenderAuthorizer, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid sender whitelist pattern %q", pattern)
	}
	return &senderAuthorizer{pattern: compiled}, nil
}

// IsAuthorized matches the bare address against the whitelist pattern. The
// match is an unanchored search; any anchoring must come from the pattern
// itself.
func (a *senderAuthorizer) IsAuthorized(address string) bool {
	if address == "" {
		return false
	}
	return a.pattern.MatchString(address)
}
