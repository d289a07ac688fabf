package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/metadata"
	"github.com/agersant/polaris/internal/scanner"
)

func strp(s string) *string { return &s }

type fixture struct {
	col *collection.Collection
	idx *Index
}

func build(t *testing.T, songs []scanner.Song) fixture {
	t.Helper()
	dict := dictionary.NewBuilder()
	colBuilder := collection.NewBuilder(dict)
	searchBuilder := NewBuilder(dict)
	for _, s := range songs {
		require.NoError(t, colBuilder.AddSong(s))
		searchBuilder.AddSong(s)
	}
	return fixture{col: colBuilder.Build(), idx: searchBuilder.Build()}
}

func titlesOf(f fixture, keys []collection.SongKey) []string {
	var titles []string
	for _, k := range keys {
		titles = append(titles, f.col.Dict.Resolve(f.col.Songs[k].Title))
	}
	return titles
}

func TestFindMatchesSingleToken(t *testing.T) {
	f := build(t, []scanner.Song{
		{SongMetadata: metadata.SongMetadata{Title: strp("Beyond The Door")}, VirtualPath: "a.mp3"},
		{SongMetadata: metadata.SongMetadata{Title: strp("Open Window")}, VirtualPath: "b.mp3"},
	})

	keys, err := f.idx.Find("door", f.col)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beyond The Door"}, titlesOf(f, keys))
}

func TestFindIsCaseAndAccentInsensitive(t *testing.T) {
	f := build(t, []scanner.Song{
		{SongMetadata: metadata.SongMetadata{Title: strp("Café Society")}, VirtualPath: "a.mp3"},
	})

	keys, err := f.idx.Find("CAFE", f.col)
	require.NoError(t, err)
	assert.Equal(t, []string{"Café Society"}, titlesOf(f, keys))
}

func TestFindANDsMultipleTokens(t *testing.T) {
	f := build(t, []scanner.Song{
		{SongMetadata: metadata.SongMetadata{Title: strp("Beyond The Door"), Artists: []string{"Tobokegao"}}, VirtualPath: "a.mp3"},
		{SongMetadata: metadata.SongMetadata{Title: strp("Open The Door"), Artists: []string{"Someone Else"}}, VirtualPath: "b.mp3"},
	})

	keys, err := f.idx.Find("door tobokegao", f.col)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beyond The Door"}, titlesOf(f, keys))
}

func TestFindMatchesAcrossGenreAndPathFields(t *testing.T) {
	f := build(t, []scanner.Song{
		{SongMetadata: metadata.SongMetadata{Title: strp("Kai"), Genres: []string{"Ambient"}}, VirtualPath: "FSOL/ISDN/Kai.mp3"},
	})

	keys, err := f.idx.Find("ambient", f.col)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	keys, err = f.idx.Find("isdn", f.col)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestFindReturnsNoResultsWithoutError(t *testing.T) {
	f := build(t, []scanner.Song{
		{SongMetadata: metadata.SongMetadata{Title: strp("Kai")}, VirtualPath: "a.mp3"},
	})
	keys, err := f.idx.Find("nonexistentword", f.col)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFindRejectsMalformedQuery(t *testing.T) {
	f := build(t, nil)
	_, err := f.idx.Find("   ", f.col)
	assert.ErrorIs(t, err, apperror.ErrSearchQueryParse)
}
