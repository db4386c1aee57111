package jwks

import (
	"sort"
)

// SigningKey is one public key advertised by the identity provider.
// It keeps the wire representation intact so it can be persisted and
// re-read without loss.
type SigningKey struct {
	Kty    string   `json:"kty,omitempty"`
	Use    string   `json:"use,omitempty"`
	Kid    string   `json:"kid"`
	Alg    string   `json:"alg,omitempty"`
	X5t    string   `json:"x5t,omitempty"`
	N      string   `json:"n,omitempty"`
	E      string   `json:"e,omitempty"`
	X5c    []string `json:"x5c,omitempty"`
	Issuer string   `json:"issuer,omitempty"`
}

// KeySet is a snapshot of signing keys. Order is irrelevant for lookup.
type KeySet []SigningKey

// Index maps every key by kid. When a kid appears twice the last one wins.
func (s KeySet) Index() map[string]SigningKey {
	index := make(map[string]SigningKey, len(s))
	for _, key := range s {
		index[key.Kid] = key
	}
	return index
}

// Kids returns the sorted, de-duplicated key identifiers of the set.
func (s KeySet) Kids() []string {
	index := s.Index()
	kids := make([]string, 0, len(index))
	for kid := range index {
		kids = append(kids, kid)
	}
	sort.Strings(kids)
	return kids
}

// Contains reports whether a key with the given kid is part of the set.
func (s KeySet) Contains(kid string) bool {
	for _, key := range s {
		if key.Kid == kid {
			return true
		}
	}
	return false
}

// Sorted returns a copy of the set ordered by kid.
func (s KeySet) Sorted() KeySet {
	sorted := make(KeySet, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Kid < sorted[j].Kid })
	return sorted
}
