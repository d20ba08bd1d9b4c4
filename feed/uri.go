package feed

import (
	"fmt"
	"strings"
)

// iriSafe are the reserved and unreserved URI characters plus '%', which
// must not be re-encoded (RFC 3987 section 3.1).
const iriSafe = "/#%[]=:;$&()+,!?*@'~-._"

// IRIToURI percent-encodes every byte of iri that is not allowed in a URI,
// e.g. "/I ♥ Go/" becomes "/I%20%E2%99%A5%20Go/".
func IRIToURI(iri string) string {
	i := 0
	for i < len(iri) && uriSafe(iri[i]) {
		i++
	}
	if i == len(iri) {
		return iri
	}

	var b strings.Builder
	b.WriteString(iri[:i])
	for ; i < len(iri); i++ {
		c := iri[i]
		if uriSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func uriSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(iriSafe, c) >= 0
}
