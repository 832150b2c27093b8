package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "The Godfather", "the_godfather"},
		{"punctuation", "Amélie: Poulain!", "am_lie_poulain"},
		{"leading and trailing junk", "  --Blade Runner--  ", "blade_runner"},
		{"digits kept", "2001 A Space Odyssey", "2001_a_space_odyssey"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestMediaStoreSaveAndDelete(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("poster_the_godfather.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "poster_the_godfather.jpg", path)

	data, err := os.ReadFile(filepath.Join(store.Root(), path))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.True(t, store.Exists(path))

	require.NoError(t, store.Delete(path))
	assert.False(t, store.Exists(path))
}

func TestMediaStoreDeleteMissingIsNoop(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("never_saved.jpg"))
}

func TestMediaStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.jpg", []byte("x"))
	assert.Error(t, err)

	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestMediaStoreOverwriteReplacesContent(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("poster_dune.jpg", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("poster_dune.jpg", []byte("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), "poster_dune.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}
