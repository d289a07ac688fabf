package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	f, ok := DetectFormat("/music/song.FLAC")
	assert.True(t, ok)
	assert.Equal(t, FormatFLAC, f)

	_, ok = DetectFormat("/music/cover.jpg")
	assert.False(t, ok)
}

func TestSplitNumberPair(t *testing.T) {
	num, total := splitNumberPair("3/12")
	assert.Equal(t, 3, num)
	assert.Equal(t, 12, total)

	num, total = splitNumberPair("7")
	assert.Equal(t, 7, num)
	assert.Equal(t, 0, total)
}

func TestLeadingInt(t *testing.T) {
	n, ok := leadingInt("2004-05-01")
	assert.True(t, ok)
	assert.Equal(t, 2004, n)

	_, ok = leadingInt("n/a")
	assert.False(t, ok)
}

func TestDropEmpty(t *testing.T) {
	got := dropEmpty([]string{"a", "", "b", ""})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestVorbisCommentMap(t *testing.T) {
	m := vorbisCommentMap([]string{"ARTIST=Low", "artist=California", "TITLE=Words"})
	assert.Equal(t, []string{"Low", "California"}, m["ARTIST"])
	assert.Equal(t, []string{"Words"}, m["TITLE"])
}

func TestApplyVorbisComments(t *testing.T) {
	m := &SongMetadata{}
	applyVorbisComments(m, vorbisCommentMap([]string{
		"TITLE=Beyond The Door",
		"ARTIST=Tobokegao",
		"TRACKNUMBER=3/8",
		"DATE=2013-04-01",
	}))

	assert.Equal(t, "Beyond The Door", *m.Title)
	assert.Equal(t, []string{"Tobokegao"}, m.Artists)
	assert.Equal(t, uint32(3), *m.TrackNumber)
	assert.Equal(t, int32(2013), *m.Year)
}

func TestParseFLACStreamInfo(t *testing.T) {
	// Encodes sample rate 44100 and total samples 441000 (10 seconds) per
	// the STREAMINFO byte layout parseFLACStreamInfo expects.
	data := make([]byte, 18)
	data[10] = 0x0A
	data[11] = 0xC4
	data[12] = 0x40
	data[13] = 0x00
	data[14] = 0x00
	data[15] = 0x06
	data[16] = 0xBA
	data[17] = 0xA8

	seconds, ok := parseFLACStreamInfo(data)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), seconds)
}
