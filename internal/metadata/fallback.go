package metadata

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"

	"github.com/agersant/polaris/internal/apperror"
)

// readGenericFallback reads path with dhowden/tag's format-agnostic frame
// reader. It is used when a format's dedicated reader can't open the tag at
// all (e.g. id3v2.Open rejecting a malformed ID3v2 header): dhowden/tag's
// more permissive parser recovers basic fields in cases the specialized
// reader can't, at the cost of the richer per-format detail (multi-valued
// frames, duration) the specialized readers extract.
func readGenericFallback(path string) (*SongMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIO, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("generic tag fallback %s", path), err)
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	albumArtist := m.AlbumArtist()
	if albumArtist == "" {
		albumArtist = m.Artist()
	}

	sm := &SongMetadata{
		Title: strPtr(m.Title()),
		Album: strPtr(m.Album()),
	}
	if track > 0 {
		sm.TrackNumber = u32Ptr(track)
	}
	if disc > 0 {
		sm.DiscNumber = u32Ptr(disc)
	}
	if year := m.Year(); year > 0 {
		sm.Year = i32Ptr(year)
	}
	sm.Artists = dropEmpty([]string{m.Artist()})
	sm.AlbumArtists = dropEmpty([]string{albumArtist})
	sm.Genres = dropEmpty([]string{m.Genre()})
	sm.HasEmbeddedArtwork = m.Picture() != nil

	return sm, nil
}
