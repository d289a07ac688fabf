// Package metadata probes audio files by extension and extracts a
// normalized SongMetadata record, dispatching to one reader per codec.
// Readers never fail a scan: an unsupported extension yields (nil, nil);
// a corrupt or unreadable tag yields (nil, error) and it is the caller's
// (the scanner's) responsibility to log and skip the file.
package metadata

import (
	"path/filepath"
	"strings"
)

// SongMetadata is the normalized, pre-interning record extracted from one
// audio file.
type SongMetadata struct {
	DiscNumber      *uint32
	TrackNumber     *uint32
	Title           *string
	Album           *string
	Year            *int32
	DurationSeconds *uint32

	Artists      []string
	AlbumArtists []string
	Lyricists    []string
	Composers    []string
	Genres       []string
	Labels       []string

	HasEmbeddedArtwork bool
}

// Format identifies the codec/container family of an audio file.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
	FormatOgg  Format = "ogg"
	FormatOpus Format = "opus"
	FormatMP4  Format = "mp4"
	FormatAPE  Format = "ape"
	FormatMPC  Format = "mpc"
	FormatAIFF Format = "aiff"
	FormatWAV  Format = "wav"
)

var extensionFormats = map[string]Format{
	".mp3":  FormatMP3,
	".flac": FormatFLAC,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
	".opus": FormatOpus,
	".m4a":  FormatMP4,
	".m4b":  FormatMP4,
	".mp4":  FormatMP4,
	".ape":  FormatAPE,
	".mpc":  FormatMPC,
	".aiff": FormatAIFF,
	".aif":  FormatAIFF,
	".wav":  FormatWAV,
}

// DetectFormat returns the Format implied by path's extension, and false if
// the extension is not a recognized audio format.
func DetectFormat(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensionFormats[ext]
	return f, ok
}

// Read extracts metadata from path. It returns (nil, nil) for files whose
// extension is not a recognized audio format, and (nil, err) when the
// extension is recognized but the file could not be decoded.
func Read(path string) (*SongMetadata, error) {
	format, ok := DetectFormat(path)
	if !ok {
		return nil, nil
	}
	switch format {
	case FormatMP3:
		return readMP3(path)
	case FormatFLAC:
		return readFLAC(path)
	case FormatOgg:
		return readVorbis(path)
	case FormatOpus:
		return readOpus(path)
	case FormatMP4:
		return readMP4(path)
	case FormatAPE, FormatMPC:
		return readTagLibGeneric(path)
	case FormatAIFF:
		return readAIFF(path)
	case FormatWAV:
		return readWAV(path)
	default:
		return nil, nil
	}
}

// dropEmpty removes empty-string entries from a multi-valued field, per the
// rule that empty strings are dropped before interning.
func dropEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func u32Ptr(n int) *uint32 {
	if n <= 0 {
		return nil
	}
	v := uint32(n)
	return &v
}

func i32Ptr(n int) *int32 {
	if n == 0 {
		return nil
	}
	v := int32(n)
	return &v
}

// leadingInt parses the leading run of ASCII digits in s, used for "n/m"
// track/disc strings and ID3 date-frame year prefixes.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n := 0
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	return n, true
}

// splitNumberPair splits an "n" or "n/m" string into its numerator and
// denominator, mirroring the teacher's parseNumberPair helper.
func splitNumberPair(s string) (num, total int) {
	parts := strings.SplitN(s, "/", 2)
	num, _ = leadingInt(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		total, _ = leadingInt(strings.TrimSpace(parts[1]))
	}
	return num, total
}
