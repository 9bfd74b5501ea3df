package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, "/media/")
	require.NoError(t, err)

	url, err := d.Save(context.Background(), "photo.JPG", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Random object name, not the uploaded filename.
	assert.NotContains(t, entries[0].Name(), "photo")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, d.Delete(context.Background(), url))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisk_DeleteMissingIsNoop(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/media")
	require.NoError(t, err)

	assert.NoError(t, d.Delete(context.Background(), "/media/does-not-exist.png"))
	assert.NoError(t, d.Delete(context.Background(), ""))
}
