// Package search provides the full-text, AND-token match view over a
// scanned library: an inverted index over the canonicalized words of each
// song's title, album, artist-family fields, genres and virtual path.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/scanner"
)

// Index is the built, read-only inverted index. Safe for concurrent reads.
type Index struct {
	postings map[string]map[collection.SongKey]struct{}
}

// Builder accumulates songs into an Index. Not safe for concurrent use; it
// shares a dictionary.Builder with the collection builder so SongKeys line
// up across both views.
type Builder struct {
	dict     *dictionary.Builder
	postings map[string]map[collection.SongKey]struct{}
}

// NewBuilder returns an empty Builder backed by dict.
func NewBuilder(dict *dictionary.Builder) *Builder {
	return &Builder{dict: dict, postings: make(map[string]map[collection.SongKey]struct{})}
}

// AddSong indexes every canonicalized word of s's title, album, artists,
// album_artists, genres, and virtual path components.
func (b *Builder) AddSong(s scanner.Song) {
	key := collection.SongKey{VirtualPath: b.dict.GetOrIntern(s.VirtualPath)}

	fields := make([]string, 0, 4+len(s.Artists)+len(s.AlbumArtists)+len(s.Genres))
	if s.Title != nil {
		fields = append(fields, *s.Title)
	}
	if s.Album != nil {
		fields = append(fields, *s.Album)
	}
	fields = append(fields, s.Artists...)
	fields = append(fields, s.AlbumArtists...)
	fields = append(fields, s.Genres...)
	fields = append(fields, strings.Split(s.VirtualPath, "/")...)

	seen := make(map[string]struct{})
	for _, f := range fields {
		for _, tok := range tokenize(f) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			set := b.postings[tok]
			if set == nil {
				set = make(map[collection.SongKey]struct{})
				b.postings[tok] = set
			}
			set[key] = struct{}{}
		}
	}
}

// Build finalizes the Builder into an immutable Index.
func (b *Builder) Build() *Index {
	return &Index{postings: b.postings}
}

// Postings exposes the raw inverted index for snapshot serialization.
func (idx *Index) Postings() map[string]map[collection.SongKey]struct{} {
	return idx.postings
}

// FromPostings rebuilds an Index directly from a deserialized posting list,
// used when restoring a persisted index.
func FromPostings(postings map[string]map[collection.SongKey]struct{}) *Index {
	return &Index{postings: postings}
}

// ParseQuery splits q into required search tokens (whitespace-separated,
// further split on punctuation, folded through the same canonical form used
// when indexing). A query with no resulting token is malformed.
func ParseQuery(q string) ([]string, error) {
	var tokens []string
	for _, word := range strings.Fields(q) {
		tokens = append(tokens, tokenize(word)...)
	}
	if len(tokens) == 0 {
		return nil, apperror.ErrSearchQueryParse
	}
	return tokens, nil
}

// Find returns every song matching q's AND-ed tokens, sorted by
// dictionary.Cmp on title (this index's boolean AND match has no partial
// score, so this is the only ordering the spec's tie-break leaves to
// define; see DESIGN.md).
func (idx *Index) Find(q string, col *collection.Collection) ([]collection.SongKey, error) {
	tokens, err := ParseQuery(q)
	if err != nil {
		return nil, err
	}

	sets := make([]map[collection.SongKey]struct{}, 0, len(tokens))
	for _, t := range tokens {
		set, ok := idx.postings[t]
		if !ok {
			return nil, nil
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })

	matches := make(map[collection.SongKey]struct{}, len(sets[0]))
	for k := range sets[0] {
		matches[k] = struct{}{}
	}
	for _, set := range sets[1:] {
		for k := range matches {
			if _, ok := set[k]; !ok {
				delete(matches, k)
			}
		}
	}

	keys := make([]collection.SongKey, 0, len(matches))
	for k := range matches {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return col.Dict.Cmp(titleHandle(col, keys[i]), titleHandle(col, keys[j])) < 0
	})
	return keys, nil
}

func titleHandle(col *collection.Collection, key collection.SongKey) dictionary.Handle {
	song, ok := col.Songs[key]
	if !ok || !song.HasTitle {
		return 0
	}
	return song.Title
}

// tokenize splits s on runs of non-letter/non-digit runes and folds each
// resulting word through lowercasing and diacritic removal, matching the
// "case- and accent-insensitive" requirement on the canonical form.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := normalizeWord(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// normalizeWord lowercases a word and strips combining diacritical marks
// after Unicode NFD decomposition, so "café" and "cafe" index identically -
// the same fold the teacher's trigram matcher applies via RemoveDiacritics,
// adapted here to run before lowercasing is irrelevant (case-folding is
// independent of the decomposition).
func normalizeWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
