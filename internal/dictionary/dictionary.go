// Package dictionary interns strings into compact integer handles and
// produces a collation-aware total order over them, mirroring the two-phase
// builder/built-dictionary split of the original Polaris's string interner.
package dictionary

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Handle is a stable integer identifying one interned string within the
// Dictionary that produced it. It has no meaning across dictionaries.
type Handle uint32

// sanitize produces the canonical form used to fold near-duplicate strings:
// lowercased, with spaces, underscores, hyphens and apostrophes removed.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '_', '-', '\'':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Sanitize exposes the canonical-form transform for callers (search
// tokenization) that need the same folding rule outside of interning.
func Sanitize(s string) string { return sanitize(s) }

// Builder accumulates strings during a scan/build pass and hands out stable
// Handles. It is not safe for concurrent use; the index builder runs it
// single-threaded even though the scanner that feeds it is parallel.
type Builder struct {
	strings []string
	byValue map[string]Handle
	canon   map[string]Handle
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		byValue: make(map[string]Handle),
		canon:   make(map[string]Handle),
	}
}

// GetOrIntern returns the Handle for s, interning it if this is the first
// time it has been seen (compared by exact value, not canonical form).
func (b *Builder) GetOrIntern(s string) Handle {
	if h, ok := b.byValue[s]; ok {
		return h
	}
	h := Handle(len(b.strings))
	b.strings = append(b.strings, s)
	b.byValue[s] = h
	return h
}

// GetOrInternCanon interns s through its canonical form: if another string
// with the same canonical form was already interned, its Handle is reused
// (so "The Beatles" and "the beatles" collapse to one handle). Returns
// (0, false) if s's canonical form is empty.
func (b *Builder) GetOrInternCanon(s string) (Handle, bool) {
	c := sanitize(s)
	if c == "" {
		return 0, false
	}
	if h, ok := b.canon[c]; ok {
		return h, true
	}
	h := b.GetOrIntern(s)
	b.canon[c] = h
	return h, true
}

// Build finalizes the dictionary: strings become read-only and a
// collation-ordered sort-key table is computed once so that later Cmp calls
// are O(1).
func (b *Builder) Build() *Dictionary {
	order := make([]int, len(b.strings))
	for i := range order {
		order[i] = i
	}
	col := collate.New(language.Und, collate.Strength(collate.Secondary))
	sort.Slice(order, func(i, j int) bool {
		return col.CompareString(b.strings[order[i]], b.strings[order[j]]) < 0
	})

	sortKeys := make([]uint32, len(b.strings))
	for rank, idx := range order {
		sortKeys[idx] = uint32(rank)
	}

	canon := make(map[string]Handle, len(b.canon))
	for k, v := range b.canon {
		canon[k] = v
	}
	byValue := make(map[string]Handle, len(b.byValue))
	for k, v := range b.byValue {
		byValue[k] = v
	}

	return &Dictionary{
		strings:  append([]string(nil), b.strings...),
		byValue:  byValue,
		canon:    canon,
		sortKeys: sortKeys,
	}
}

// Dictionary is the read-only, built form of a Builder. It is safe for
// concurrent reads (it is never mutated after Build).
type Dictionary struct {
	strings  []string
	byValue  map[string]Handle
	canon    map[string]Handle
	sortKeys []uint32
}

// Resolve returns the string a Handle was interned from.
func (d *Dictionary) Resolve(h Handle) string {
	return d.strings[h]
}

// Get looks up the Handle for an exact string value, if it was interned.
func (d *Dictionary) Get(s string) (Handle, bool) {
	h, ok := d.byValue[s]
	return h, ok
}

// GetCanon looks up the canonical handle for s's canonical form.
func (d *Dictionary) GetCanon(s string) (Handle, bool) {
	h, ok := d.canon[sanitize(s)]
	return h, ok
}

// Len returns the number of interned strings.
func (d *Dictionary) Len() int { return len(d.strings) }

// Cmp orders two handles using the precomputed collation-based sort key,
// matching spec.md's Strength=Secondary (case-insensitive, accent-sensitive)
// ordering requirement in O(1) per comparison.
func (d *Dictionary) Cmp(a, b Handle) int {
	ra, rb := d.sortKeys[a], d.sortKeys[b]
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// Strings returns the raw backing slice, indexed by Handle. Callers must
// treat it as read-only; it is exposed for snapshot serialization.
func (d *Dictionary) Strings() []string { return d.strings }

// SortKeys returns the precomputed collation rank per handle, exposed for
// snapshot serialization.
func (d *Dictionary) SortKeys() []uint32 { return d.sortKeys }

// FromParts reconstructs a built Dictionary from its serialized pieces
// (used by snapshot restore). The canon map is carried explicitly because
// canon entries aren't derivable from strings alone after folding
// collisions; the exact-value lookup map is rebuilt from strs.
func FromParts(strs []string, sortKeys []uint32, canon map[string]Handle) *Dictionary {
	byValue := make(map[string]Handle, len(strs))
	for i, v := range strs {
		byValue[v] = Handle(i)
	}
	return &Dictionary{strings: strs, byValue: byValue, sortKeys: sortKeys, canon: canon}
}

// Canon exposes the canonical-form map for snapshot serialization.
func (d *Dictionary) Canon() map[string]Handle { return d.canon }
