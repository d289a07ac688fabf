package metadata

import (
	"fmt"
	"os"

	"github.com/jfreymuth/vorbis"

	"github.com/agersant/polaris/internal/apperror"
)

func readVorbis(path string) (*SongMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIO, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	decoder := &vorbis.Decoder{}
	if err := decoder.ReadHeaders(f); err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("read vorbis headers %s", path), err)
	}

	m := &SongMetadata{}
	applyVorbisComments(m, vorbisCommentMap(decoder.Comment.Comments))

	if decoder.SampleRate() > 0 {
		if d, ok := oggGranuleDuration(path, uint32(decoder.SampleRate())); ok {
			m.DurationSeconds = u32Ptr(int(d))
		}
	}

	return m, nil
}
