package session

import (
	"net/netip"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NormalizeAddr parses an IPv4 or IPv6 literal and returns its canonical
// form, so equivalent spellings share one address key.
func NormalizeAddr(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

// ValidName reports whether name is a non-empty run of letters, digits,
// underscores and dashes.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}
