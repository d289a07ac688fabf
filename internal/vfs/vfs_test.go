package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualToReal(t *testing.T) {
	v := New([]Mount{
		{Name: "root", Source: "/music"},
		{Name: "dupe", Source: "/a"},
		{Name: "dupe", Source: "/b"},
	})

	t.Run("top level", func(t *testing.T) {
		real, err := v.VirtualToReal("root")
		require.NoError(t, err)
		assert.Equal(t, "/music", real)
	})

	t.Run("nested", func(t *testing.T) {
		real, err := v.VirtualToReal("root/Artist/Album")
		require.NoError(t, err)
		assert.Equal(t, "/music/Artist/Album", real)
	})

	t.Run("unknown mount", func(t *testing.T) {
		_, err := v.VirtualToReal("nope/x")
		assert.Error(t, err)
	})

	t.Run("duplicate mount names keep first", func(t *testing.T) {
		real, err := v.VirtualToReal("dupe")
		require.NoError(t, err)
		assert.Equal(t, "/a", real)
	})
}

func TestRealToVirtual(t *testing.T) {
	v := New([]Mount{{Name: "root", Source: "/music"}})

	real, err := v.RealToVirtual("/music/Artist/Album/song.mp3")
	require.NoError(t, err)
	assert.Equal(t, "root/Artist/Album/song.mp3", real)

	_, err = v.RealToVirtual("/other/song.mp3")
	assert.Error(t, err)
}

func TestVirtualRealRoundTrip(t *testing.T) {
	v := New([]Mount{{Name: "root", Source: "/music"}})
	real, err := v.VirtualToReal("root/a/b")
	require.NoError(t, err)
	back, err := v.RealToVirtual(real)
	require.NoError(t, err)
	assert.Equal(t, "root/a/b", back)
}

func TestSourceSeparatorNormalization(t *testing.T) {
	v := New([]Mount{{Name: "root", Source: `/music//sub\\x`}})
	assert.NotContains(t, v.Mounts()[0].Source, "//")
}
