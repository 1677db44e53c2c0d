// Package cardid defines the canonical form of Riftbound card identifiers.
//
// Identifiers are stored by the catalog in their original casing but every
// lookup, ownership entry and remote call uses the uppercase form. Comparing a
// raw identifier against a normalized one is always a bug; use Equal.
package cardid

import "strings"

// Normalize returns the canonical (uppercase) form of id.
func Normalize(id string) string {
	return strings.ToUpper(id)
}

// Equal reports whether a and b name the same card.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
