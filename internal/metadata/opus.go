package metadata

import (
	"fmt"
	"os"

	"github.com/jj11hh/opus"

	"github.com/agersant/polaris/internal/apperror"
)

// opusSampleRate is fixed by the Opus specification: the encoder always
// operates at a 48kHz internal clock regardless of the source material's
// original sample rate, so granule positions are always counted at 48kHz.
const opusSampleRate = 48000

func readOpus(path string) (*SongMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIO, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	headers, err := opus.ParseHeaders(f)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("read opus headers %s", path), err)
	}

	m := &SongMetadata{}
	applyVorbisComments(m, vorbisCommentMap(headers.Comments.UserComments))

	if d, ok := oggGranuleDuration(path, opusSampleRate); ok {
		m.DurationSeconds = u32Ptr(int(d))
	}

	return m, nil
}
