package metadata

import (
	"fmt"

	"go.senan.xyz/taglib"

	"github.com/agersant/polaris/internal/apperror"
)

// taglibTags is a multi-valued property map as returned by taglib.ReadTags,
// with get/getAll accessors modeled on the taglibTags type the teacher uses
// in internal/tags/tags.go.
type taglibTags map[string][]string

func (t taglibTags) get(keys ...string) string {
	for _, k := range keys {
		if v := first(t[k]); v != "" {
			return v
		}
	}
	return ""
}

func (t taglibTags) getAll(keys ...string) []string {
	for _, k := range keys {
		if vs := t[k]; len(vs) > 0 {
			return dropEmpty(vs)
		}
	}
	return nil
}

// readTagLibGeneric reads tag strings through TagLib's normalized property
// map. It is used for MP4/APE/Musepack (the only pack library with native
// support for those containers); no other format falls back to it.
func readTagLibGeneric(path string) (*SongMetadata, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("read tags %s", path), err)
	}
	t := taglibTags(tags)

	m := &SongMetadata{}
	m.Title = strPtr(t.get("TITLE"))
	m.Album = strPtr(t.get("ALBUM"))
	m.Artists = t.getAll("ARTIST")
	m.AlbumArtists = t.getAll("ALBUMARTIST")
	m.Lyricists = t.getAll("LYRICIST")
	m.Composers = t.getAll("COMPOSER")
	m.Genres = t.getAll("GENRE")
	m.Labels = t.getAll("LABEL", "PUBLISHER")

	if v := t.get("TRACKNUMBER"); v != "" {
		track, _ := splitNumberPair(v)
		m.TrackNumber = u32Ptr(track)
	}
	if v := t.get("DISCNUMBER"); v != "" {
		disc, _ := splitNumberPair(v)
		m.DiscNumber = u32Ptr(disc)
	}
	if v := t.get("DATE", "YEAR"); v != "" {
		if year, ok := leadingInt(v); ok {
			m.Year = i32Ptr(year)
		}
	}

	props, err := taglib.ReadProperties(path)
	if err == nil && props.Length > 0 {
		m.DurationSeconds = u32Ptr(int(props.Length.Seconds()))
	}

	// TagLib's generic property map does not surface embedded-picture
	// presence; APE/Musepack artwork is left unsupported here, matching
	// the field mapping's "false (unsupported)" entry for those formats.
	return m, nil
}

// hasTagLibArtwork reports whether TagLib can extract an embedded picture,
// used only by the MP4 reader since APE/Musepack artwork is out of scope.
func hasTagLibArtwork(path string) bool {
	img, err := taglib.ReadImage(path)
	return err == nil && len(img) > 0
}
