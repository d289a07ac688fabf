package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bogem/id3v2/v2"

	"github.com/agersant/polaris/internal/apperror"
)

// findRIFFChunk walks a RIFF-family container (little-endian WAV or
// big-endian AIFF) looking for a chunk whose 4-byte ID matches one of want,
// returning its raw payload bytes. Both formats share the same
// four-byte-ID + size + payload(+pad) chunk framing; only the size field's
// endianness differs. This is a hand-rolled walker in the same spirit as
// the teacher's FLAC StreamInfo and Ogg page parsing in internal/tags,
// since no library in the pack locates an embedded ID3 chunk inside a
// RIFF/AIFF container.
func findRIFFChunk(path string, bigEndianSize bool, want ...string) ([]byte, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	// Skip the 12-byte outer container header: 4-byte form type ("RIFF"/
	// "FORM"), 4-byte size, 4-byte format ("WAVE"/"AIFF").
	if _, err := f.Seek(12, io.SeekStart); err != nil {
		return nil, false
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			return nil, false
		}
		id := string(header[0:4])
		var size uint32
		if bigEndianSize {
			size = binary.BigEndian.Uint32(header[4:8])
		} else {
			size = binary.LittleEndian.Uint32(header[4:8])
		}

		for _, w := range want {
			if id == w {
				payload := make([]byte, size)
				if _, err := io.ReadFull(f, payload); err != nil {
					return nil, false
				}
				return payload, true
			}
		}

		// Chunks are padded to an even byte boundary.
		skip := int64(size)
		if size%2 == 1 {
			skip++
		}
		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			return nil, false
		}
	}
}

func readEmbeddedID3(payload []byte, path string) (*SongMetadata, error) {
	tag, err := id3v2.ParseReader(bytes.NewReader(payload), id3v2.Options{Parse: true})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, fmt.Sprintf("read embedded id3 tag %s", path), err)
	}
	defer tag.Close()
	return readID3Tag(tag), nil
}

func readAIFF(path string) (*SongMetadata, error) {
	payload, ok := findRIFFChunk(path, true, "ID3 ", "id3 ")
	if !ok {
		return &SongMetadata{}, nil
	}
	return readEmbeddedID3(payload, path)
}

func readWAV(path string) (*SongMetadata, error) {
	payload, ok := findRIFFChunk(path, false, "id3 ", "ID3 ")
	if !ok {
		return &SongMetadata{}, nil
	}
	return readEmbeddedID3(payload, path)
}
