package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskImageStoreSaveDataURI(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskImageStore(dir, "/media/")
	require.NoError(t, err)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))
	url, err := store.SaveDataURI(context.Background(), "data:image/png;base64,"+payload)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "/media/"), "got %q", url)
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), data)
}

func TestDiskImageStoreRejectsBadPayloads(t *testing.T) {
	store, err := NewDiskImageStore(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, uri := range []string{
		"",
		"not-a-data-uri",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,%%%not-base64%%%",
		"data:image/;base64,aGVsbG8=",
		"data:image/svg+xml;base64,aGVsbG8=",
	} {
		_, err := store.SaveDataURI(context.Background(), uri)
		assert.ErrorIs(t, err, ErrBadImageData, "payload %q", uri)
	}
}

func TestDiskImageStoreRejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	mediaDir := filepath.Join(root, "media")
	store, err := NewDiskImageStore(mediaDir, "/media")
	require.NoError(t, err)

	payload := base64.StdEncoding.EncodeToString([]byte("payload"))
	// The declared extension must never steer the write target.
	for _, ext := range []string{
		"png/../../escaped.txt",
		"png/../x.png",
		`png\..\escaped.txt`,
		"../../etc/passwd",
	} {
		_, err := store.SaveDataURI(context.Background(), "data:image/"+ext+";base64,"+payload)
		assert.ErrorIs(t, err, ErrBadImageData, "extension %q", ext)
	}

	// Nothing may have landed outside the media directory.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "media", entries[0].Name())
	escaped, err := os.ReadDir(mediaDir)
	require.NoError(t, err)
	assert.Empty(t, escaped)
}
