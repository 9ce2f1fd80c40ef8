package transit

import (
	"strings"
	"unicode"
)

const maxIDLength = 128

// ValidID reports whether id is usable as a stop or route identifier.
// Upstream ids look like "place-pktrm", "Red", "70061" or "Green-B".
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	if strings.TrimSpace(id) != id {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
