package metadata

import (
	"encoding/binary"
	"os"
)

// oggGranuleDuration seeks to the tail of an Ogg-container file and scans
// backwards for the last page's "OggS" capture pattern, reading its granule
// position to derive a duration at the given sample rate. This mirrors the
// teacher's getOggDuration in internal/tags/audio.go, which uses the same
// technique for Opus (always 48kHz); here it is shared with Ogg Vorbis,
// parameterized by the stream's own sample rate.
func oggGranuleDuration(path string, sampleRate uint32) (seconds uint32, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false
	}

	const scanWindow = 64 * 1024
	size := info.Size()
	start := int64(0)
	if size > scanWindow {
		start = size - scanWindow
	}

	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return 0, false
	}

	for i := len(buf) - 27; i >= 0; i-- {
		if buf[i] == 'O' && buf[i+1] == 'g' && buf[i+2] == 'g' && buf[i+3] == 'S' {
			granule := binary.LittleEndian.Uint64(buf[i+6 : i+14])
			if granule == 0 || sampleRate == 0 {
				continue
			}
			return uint32(granule / uint64(sampleRate)), true
		}
	}
	return 0, false
}
