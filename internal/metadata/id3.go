package metadata

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/agersant/polaris/internal/apperror"
)

// yearFrameIDs lists the ID3v2 date frames in the fallback priority spec.md
// gives: TYER / TDRL / TDOR / TDRC, taking the first non-empty.
var yearFrameIDs = []string{"TYER", "TDRL", "TDOR", "TDRC"}

func readID3Tag(tag *id3v2.Tag) *SongMetadata {
	m := &SongMetadata{}

	m.Title = strPtr(tag.Title())
	m.Album = strPtr(tag.Album())

	m.Artists = dropEmpty(splitID3Multi(textFrameValue(tag, "TPE1")))
	m.AlbumArtists = dropEmpty(splitID3Multi(textFrameValue(tag, "TPE2")))
	m.Lyricists = dropEmpty(splitID3Multi(textFrameValue(tag, "TEXT")))
	m.Composers = dropEmpty(splitID3Multi(textFrameValue(tag, "TCOM")))
	m.Genres = dropEmpty(splitID3Multi(textFrameValue(tag, "TCON")))
	m.Labels = dropEmpty(splitID3Multi(textFrameValue(tag, "TPUB")))

	if trck := textFrameValue(tag, "TRCK"); trck != "" {
		track, _ := splitNumberPair(trck)
		m.TrackNumber = u32Ptr(track)
	}
	if tpos := textFrameValue(tag, "TPOS"); tpos != "" {
		disc, _ := splitNumberPair(tpos)
		m.DiscNumber = u32Ptr(disc)
	}

	for _, id := range yearFrameIDs {
		if v := textFrameValue(tag, id); v != "" {
			if year, ok := leadingInt(v); ok {
				m.Year = i32Ptr(year)
				break
			}
		}
	}

	if tlen := textFrameValue(tag, "TLEN"); tlen != "" {
		if ms, ok := leadingInt(tlen); ok {
			m.DurationSeconds = u32Ptr(ms / 1000)
		}
	}

	m.HasEmbeddedArtwork = len(tag.GetFrames(tag.CommonID("Attached picture"))) > 0

	return m
}

// textFrameValue returns the text of the first frame with the raw
// four-character ID id, or "" if absent. It does not translate common frame
// names; callers that must cover frames which differ across ID3v2.3 and
// ID3v2.4 (such as the year frames) try each raw ID in turn.
func textFrameValue(tag *id3v2.Tag, id string) string {
	frames := tag.GetFrames(id)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

// splitID3Multi splits a text frame's value on the ID3v2.4 multi-value null
// separator; single-valued frames come back as a one-element slice.
func splitID3Multi(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, "\x00")
}

func readMP3(path string) (*SongMetadata, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		// id3v2 rejects some malformed or unusually-encoded headers outright;
		// fall back to the more permissive generic reader before giving up.
		if m, fallbackErr := readGenericFallback(path); fallbackErr == nil {
			return m, nil
		}
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("read id3 tag: %s", path), err)
	}
	defer tag.Close()

	m := readID3Tag(tag)
	if m.DurationSeconds == nil {
		if d, err := mp3Duration(path); err == nil {
			m.DurationSeconds = u32Ptr(int(d.Seconds()))
		}
	}
	return m, nil
}
