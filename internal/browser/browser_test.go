package browser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agersant/polaris/internal/scanner"
)

const mountName = "root"

// buildSmallCollection mirrors the fixture described for this subsystem: 13
// songs across 6 directories, with "Tobokegao/Picnic" (7 songs) and its
// similarly-named sibling "Tobokegao/Picnic (Picnic Remixes)" (1 song)
// exercising prefix-disambiguation during flatten.
func buildSmallCollection(t *testing.T) *Browser {
	t.Helper()
	b := NewBuilder()

	dirs := []scanner.Directory{
		{VirtualPath: mountName},
		{VirtualPath: mountName + "/Khemmis", VirtualParent: mountName},
		{VirtualPath: mountName + "/Khemmis/Hunted", VirtualParent: mountName + "/Khemmis"},
		{VirtualPath: mountName + "/Tobokegao", VirtualParent: mountName},
		{VirtualPath: mountName + "/Tobokegao/Picnic", VirtualParent: mountName + "/Tobokegao"},
		{VirtualPath: mountName + "/Tobokegao/Picnic (Picnic Remixes)", VirtualParent: mountName + "/Tobokegao"},
	}
	for _, d := range dirs {
		b.AddDirectory(d)
	}

	for i := 1; i <= 5; i++ {
		b.AddSong(scanner.Song{
			VirtualPath:   fmt.Sprintf("%s/Khemmis/Hunted/%02d.mp3", mountName, i),
			VirtualParent: mountName + "/Khemmis/Hunted",
		})
	}
	for i := 1; i <= 7; i++ {
		b.AddSong(scanner.Song{
			VirtualPath:   fmt.Sprintf("%s/Tobokegao/Picnic/%02d.mp3", mountName, i),
			VirtualParent: mountName + "/Tobokegao/Picnic",
		})
	}
	b.AddSong(scanner.Song{
		VirtualPath:   mountName + "/Tobokegao/Picnic (Picnic Remixes)/01.mp3",
		VirtualParent: mountName + "/Tobokegao/Picnic (Picnic Remixes)",
	})

	return b.Build()
}

func TestBrowseTopLevel(t *testing.T) {
	br := buildSmallCollection(t)
	files, err := br.Browse("")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, FileDirectory, files[0].Kind)
	assert.Equal(t, mountName, files[0].VirtualPath)
}

func TestBrowseDirectory(t *testing.T) {
	br := buildSmallCollection(t)
	files, err := br.Browse(mountName)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, mountName+"/Khemmis", files[0].VirtualPath)
	assert.Equal(t, mountName+"/Tobokegao", files[1].VirtualPath)
}

func TestBrowseUnknownDirectory(t *testing.T) {
	br := buildSmallCollection(t)
	_, err := br.Browse(mountName + "/Nope")
	assert.Error(t, err)
}

func TestFlattenRoot(t *testing.T) {
	br := buildSmallCollection(t)
	songs, err := br.Flatten(mountName)
	require.NoError(t, err)
	assert.Len(t, songs, 13)
}

func TestFlattenDirectory(t *testing.T) {
	br := buildSmallCollection(t)
	songs, err := br.Flatten(mountName + "/Tobokegao")
	require.NoError(t, err)
	assert.Len(t, songs, 8)
}

func TestFlattenDisambiguatesSimilarlyNamedSiblings(t *testing.T) {
	br := buildSmallCollection(t)
	songs, err := br.Flatten(mountName + "/Tobokegao/Picnic")
	require.NoError(t, err)
	require.Len(t, songs, 7)
	for _, s := range songs {
		assert.NotContains(t, s, "Picnic (Picnic Remixes)")
	}
}
