// Package location resolves free-text place names into canonical keys and
// deterministic coordinates.
package location

import (
	"errors"
	"hash/fnv"
	"strings"
	"unicode"
)

// ErrInvalidInput is returned when a location name fails basic validation.
var ErrInvalidInput = errors.New("location name must be at least 2 characters")

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a resolved place: canonical key, display form, coordinates.
type Location struct {
	// Key is the canonical identity: trimmed and case-folded.
	// All lookups and deterministic seeding use this form.
	Key string

	// DisplayName is the title-cased form shown to callers.
	DisplayName string

	// Coordinates is the resolved position. Stable across calls for the
	// same key; not guaranteed to be geodetically precise.
	Coordinates Coordinates

	// Match records which resolution rule produced the coordinates.
	Match MatchKind
}

// MatchKind identifies the resolution rule that matched.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchRegion    MatchKind = "region"
	MatchDefault   MatchKind = "default"
)

// Canonicalize normalizes a raw location name into its canonical key and
// display form. It is a pure function of the input string.
func Canonicalize(input string) (key, display string, err error) {
	trimmed := strings.TrimSpace(input)
	if len([]rune(trimmed)) < 2 {
		return "", "", ErrInvalidInput
	}
	return strings.ToLower(trimmed), titleCase(trimmed), nil
}

// Seed derives a deterministic PRNG seed from a canonical key.
// Bounded to six decimal digits so seeds stay stable and printable.
func Seed(key string) int64 {
	return int64(Hash(key) % 1_000_000)
}

// Hash returns the FNV-1a 64-bit hash of a canonical key.
func Hash(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// titleCase upper-cases the first rune of each space-separated word and
// lower-cases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
