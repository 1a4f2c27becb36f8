// Package room maps an unordered pair of user identities to the room they
// share.
package room

import (
	"sort"
	"strings"
)

// ID identifies a two-party room. Build it with Resolve; a hand-built ID
// does not carry the ordering guarantee.
type ID string

const sep = "_"

// Resolve returns the room shared by a and b. It is commutative:
// Resolve(a, b) == Resolve(b, a). Inputs are not validated, so an empty
// identity yields ids such as "_" or "_u1".
func Resolve(a, b string) ID {
	pair := []string{a, b}
	sort.Strings(pair)
	return ID(strings.Join(pair, sep))
}

func (id ID) String() string { return string(id) }
