// Package cache provides the durable write-once response cache consulted
// before every CourtListener request. Entries hold verbatim response bodies
// so replays are byte-identical; because the underlying data is historical
// record of terminated cases, entries never expire and a key's first write
// wins permanently. Adapting this design to a live data source would require
// adding explicit invalidation.
package cache

import (
	"fmt"
	"strings"
)

// Kind identifies the logical query behind a cache key.
type Kind string

const (
	// KindSearch is a docket search by court and docket number candidate.
	KindSearch Kind = "search"

	// KindEntries is one page of a docket entry listing.
	KindEntries Kind = "entries"
)

// FirstPageCursor is the canonical sentinel for page 1 of an entry listing,
// so repeated first-page fetches collide on the same key. Subsequent pages
// are keyed by their own continuation cursor.
const FirstPageCursor = "p1"

// negPrefix namespaces cached negative (not-found) outcomes away from
// positive responses, so a cached 404 is distinguishable in logs from a
// resolved case.
const negPrefix = "neg"

// Key identifies a cached response. Derivation is pure and deterministic
// from the logical query parameters; volatile request details never
// participate.
type Key struct {
	Kind     Kind
	Court    string
	Docket   string
	DocketID int64
	Cursor   string
	Negative bool
}

// SearchKey derives the key for a docket search query.
func SearchKey(court, docketNumber string) Key {
	return Key{
		Kind:   KindSearch,
		Court:  normalize(court),
		Docket: normalize(docketNumber),
	}
}

// EntriesKey derives the key for one page of a docket entry listing.
// An empty cursor means the first page.
func EntriesKey(docketID int64, cursor string) Key {
	if cursor == "" {
		cursor = FirstPageCursor
	}
	return Key{
		Kind:     KindEntries,
		DocketID: docketID,
		Cursor:   cursor,
	}
}

// AsNegative returns the negative-namespace variant of the key.
func (k Key) AsNegative() Key {
	k.Negative = true
	return k
}

// String generates the deterministic store key.
// Format: recap:[neg:]search:court:docket or recap:[neg:]entries:id:cursor
func (k Key) String() string {
	parts := []string{"recap"}
	if k.Negative {
		parts = append(parts, negPrefix)
	}
	parts = append(parts, string(k.Kind))

	switch k.Kind {
	case KindSearch:
		parts = append(parts, k.Court, k.Docket)
	case KindEntries:
		parts = append(parts, fmt.Sprintf("%d", k.DocketID), k.Cursor)
	}

	return strings.Join(parts, ":")
}

// normalize lowercases and strips whitespace so equivalent spellings of the
// same query collide on one key.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
