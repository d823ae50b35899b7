package client

import "strings"

const userSuffix = "@s.whatsapp.net"

// NormalizeDestination turns a user-supplied destination into the
// gateway's addressable form. A handle that already carries a domain
// marker passes through untouched; anything else is reduced to its
// digits and given the default user suffix.
func NormalizeDestination(destination string) string {
	if strings.Contains(destination, "@") {
		return destination
	}

	var b strings.Builder
	for _, r := range destination {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + userSuffix
}
