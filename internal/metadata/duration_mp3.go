package metadata

import (
	"fmt"
	"os"
	"time"

	"github.com/llehouerou/go-mp3"

	"github.com/agersant/polaris/internal/apperror"
)

// mp3Duration decodes just enough of an MP3 stream to learn its sample rate
// and total sample count, used when no TLEN frame is present. This mirrors
// the teacher's readMP3AudioInfo in internal/tags/audio.go.
func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindIO, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("decode mp3 %s", path), err)
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return 0, apperror.New(apperror.KindDecode, "mp3 sample rate unavailable")
	}
	// go-mp3 always decodes to 16-bit stereo PCM, so byte length / 4 gives
	// the sample count regardless of the source channel layout.
	samples := decoder.Length() / 4
	seconds := float64(samples) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}
