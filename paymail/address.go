// Package paymail resolves paymail handles (alias@domain) to output scripts
// using bsvalias capability discovery and basic address resolution.
package paymail

import (
	"fmt"
	"strings"
)

// IsAddress reports whether s has the shape of a paymail handle. It does not
// validate the parts; use ParseAddress for that.
func IsAddress(s string) bool {
	return strings.Count(s, "@") == 1
}

// ParseAddress splits a paymail handle into its lowercased alias and domain.
func ParseAddress(s string) (alias, domain string, err error) {
	alias, domain, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || alias == "" || domain == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if strings.ContainsAny(alias, "@/ \t") {
		return "", "", fmt.Errorf("%w: bad alias in %q", ErrInvalidAddress, s)
	}
	if strings.ContainsAny(domain, "@/:? \t") || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", "", fmt.Errorf("%w: bad domain in %q", ErrInvalidAddress, s)
	}
	return strings.ToLower(alias), strings.ToLower(domain), nil
}
