package metadata

import (
	"fmt"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/agersant/polaris/internal/apperror"
)

func readFLAC(path string) (*SongMetadata, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("parse flac %s", path), err)
	}

	m := &SongMetadata{}

	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			applyVorbisComments(m, vorbisCommentMap(comment.Comments))
		case flac.Picture:
			if _, err := flacpicture.ParseFromMetaDataBlock(*block); err == nil {
				m.HasEmbeddedArtwork = true
			}
		case flac.StreamInfo:
			if d, ok := parseFLACStreamInfo(block.Data); ok {
				m.DurationSeconds = u32Ptr(int(d))
			}
		}
	}

	return m, nil
}

// parseFLACStreamInfo computes duration in seconds from the raw STREAMINFO
// block bytes: sample rate is the 20 bits at [80:100) of the block, total
// samples the 36 bits at [108:144), after the 3-bit channel count and 5-bit
// bits-per-sample fields. This hand-rolled byte layout mirrors the
// teacher's readFLACStreamInfo in internal/tags/audio.go, itself
// independently confirming the total_samples/sample_rate formula used by
// the original Polaris's metadata.rs.
func parseFLACStreamInfo(data []byte) (seconds uint32, ok bool) {
	if len(data) < 18 {
		return 0, false
	}
	sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
	totalSamples := int64(data[13]&0x0F)<<32 |
		int64(data[14])<<24 |
		int64(data[15])<<16 |
		int64(data[16])<<8 |
		int64(data[17])
	if sampleRate <= 0 || totalSamples <= 0 {
		return 0, false
	}
	return uint32(totalSamples / int64(sampleRate)), true
}

// vorbisCommentMap uppercases Vorbis comment keys into a multi-value map,
// the shared shape consumed by both the FLAC and Ogg Vorbis readers.
func vorbisCommentMap(comments []string) map[string][]string {
	out := make(map[string][]string)
	for _, c := range comments {
		key, value, found := cutComment(c)
		if !found {
			continue
		}
		out[key] = append(out[key], value)
	}
	return out
}

func cutComment(c string) (key, value string, ok bool) {
	for i := 0; i < len(c); i++ {
		if c[i] == '=' {
			return toUpperASCII(c[:i]), c[i+1:], true
		}
	}
	return "", "", false
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// applyVorbisComments fills m from a Vorbis-style comment map, shared by
// the FLAC and Ogg Vorbis readers since both use the same key vocabulary.
func applyVorbisComments(m *SongMetadata, c map[string][]string) {
	m.Title = strPtr(first(c["TITLE"]))
	m.Album = strPtr(first(c["ALBUM"]))
	m.Artists = dropEmpty(c["ARTIST"])
	m.AlbumArtists = dropEmpty(c["ALBUMARTIST"])
	m.Lyricists = dropEmpty(c["LYRICIST"])
	m.Composers = dropEmpty(c["COMPOSER"])
	m.Genres = dropEmpty(c["GENRE"])
	m.Labels = dropEmpty(c["PUBLISHER"])

	if v := first(c["TRACKNUMBER"]); v != "" {
		track, _ := splitNumberPair(v)
		m.TrackNumber = u32Ptr(track)
	}
	if v := first(c["DISCNUMBER"]); v != "" {
		disc, _ := splitNumberPair(v)
		m.DiscNumber = u32Ptr(disc)
	}
	if v := first(c["DATE"]); v != "" {
		if year, ok := leadingInt(v); ok {
			m.Year = i32Ptr(year)
		}
	}
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
