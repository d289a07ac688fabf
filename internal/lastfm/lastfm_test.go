package lastfm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
)

type fakeLookup struct {
	results []collection.SongResult
	dict    *dictionary.Dictionary
}

func (f *fakeLookup) GetSongs(virtualPaths []string) []collection.SongResult { return f.results }
func (f *fakeLookup) Dict() *dictionary.Dictionary                           { return f.dict }

func buildDict(t *testing.T, strs ...string) (*dictionary.Dictionary, map[string]dictionary.Handle) {
	t.Helper()
	b := dictionary.NewBuilder()
	handles := make(map[string]dictionary.Handle, len(strs))
	for _, s := range strs {
		handles[s] = b.GetOrIntern(s)
	}
	return b.Build(), handles
}

func TestResolveTrackFillsKnownFields(t *testing.T) {
	dict, h := buildDict(t, "Beyond The Door", "Hunted", "Khemmis")
	duration := uint32(245)
	song := &collection.Song{
		Title: h["Beyond The Door"], HasTitle: true,
		Album: h["Hunted"], HasAlbum: true,
		Artists:         []dictionary.Handle{h["Khemmis"]},
		DurationSeconds: &duration,
	}
	lookup := &fakeLookup{results: []collection.SongResult{{Song: song}}, dict: dict}
	r := NewReporter(New("key", "secret"), lookup)

	track, err := r.resolveTrack("Khemmis/Hunted/01.flac")
	require.NoError(t, err)
	assert.Equal(t, "Beyond The Door", track.Title)
	assert.Equal(t, "Hunted", track.Album)
	assert.Equal(t, "Khemmis", track.Artist)
	assert.Equal(t, 245*time.Second, track.Duration)
}

func TestResolveTrackRejectsSongWithNoTitle(t *testing.T) {
	dict, _ := buildDict(t)
	song := &collection.Song{}
	lookup := &fakeLookup{results: []collection.SongResult{{Song: song}}, dict: dict}
	r := NewReporter(New("key", "secret"), lookup)

	_, err := r.resolveTrack("root/unknown.flac")
	assert.ErrorIs(t, err, ErrSongNotPlayable)
}

func TestResolveTrackPropagatesLookupError(t *testing.T) {
	dict, _ := buildDict(t)
	lookup := &fakeLookup{results: []collection.SongResult{{Err: assert.AnError}}, dict: dict}
	r := NewReporter(New("key", "secret"), lookup)

	_, err := r.resolveTrack("root/missing.flac")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGetAuthURLEmbedsKeyAndToken(t *testing.T) {
	c := New("my-key", "my-secret")
	url := c.GetAuthURL("tok-123")
	assert.Contains(t, url, "api_key=my-key")
	assert.Contains(t, url, "token=tok-123")
}
