package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "archive")
	m, err := NewManager(base, nil)
	require.NoError(t, err)
	return m, base
}

func TestNewManagerCreatesBaseDir(t *testing.T) {
	_, base := newTestManager(t)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPostDirName(t *testing.T) {
	assert.Equal(t, "[0001] UgX", PostDirName(1, false, "UgX"))
	assert.Equal(t, "[0042] (Members only) UgY", PostDirName(42, true, "UgY"))
	assert.Equal(t, "[0007] no_id_found", PostDirName(7, false, "no_id_found"))
	assert.Equal(t, "[10000] UgBig", PostDirName(10000, false, "UgBig"), "width grows past four digits")
}

func TestCreatePostDirIsReentrant(t *testing.T) {
	m, base := newTestManager(t)

	dir, err := m.CreatePostDir(3, false, "UgX")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "[0003] UgX"), dir)

	// a second call reuses the directory
	again, err := m.CreatePostDir(3, false, "UgX")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestWriteText(t *testing.T) {
	m, _ := newTestManager(t)
	dir, err := m.CreatePostDir(1, false, "UgX")
	require.NoError(t, err)

	require.NoError(t, m.WriteText(dir, "hello\n"))

	data, err := os.ReadFile(filepath.Join(dir, "post.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriteJSONIndentsWithFourSpaces(t *testing.T) {
	m, _ := newTestManager(t)
	dir, err := m.CreatePostDir(1, false, "UgX")
	require.NoError(t, err)

	require.NoError(t, m.WriteJSON(dir, []byte(`{"postId":"UgX","likeCount":"3"}`)))

	data, err := os.ReadFile(filepath.Join(dir, "post.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"postId\": \"UgX\",\n    \"likeCount\": \"3\"\n}", string(data))
}

func TestWriteJSONMalformedPayloadWrittenAsIs(t *testing.T) {
	m, _ := newTestManager(t)
	dir, err := m.CreatePostDir(1, false, "UgX")
	require.NoError(t, err)

	require.NoError(t, m.WriteJSON(dir, []byte("not json")))

	data, err := os.ReadFile(filepath.Join(dir, "post.json"))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
}

func TestWriteImage(t *testing.T) {
	m, _ := newTestManager(t)
	dir, err := m.CreatePostDir(1, false, "UgX")
	require.NoError(t, err)

	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, m.WriteImage(dir, "abc123.png", payload))

	data, err := os.ReadFile(filepath.Join(dir, "abc123.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	m, _ := newTestManager(t)
	dir, err := m.CreatePostDir(1, false, "UgX")
	require.NoError(t, err)

	require.NoError(t, m.WriteText(dir, "x"))
	require.NoError(t, m.WriteJSON(dir, []byte(`{}`)))
	require.NoError(t, m.WriteImage(dir, "a.png", []byte{1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}

func TestImageFilename(t *testing.T) {
	assert.Equal(t, "abc-def_123=s0.png", ImageFilename("https://yt3.ggpht.com/abc-def_123=s0"))
	assert.Equal(t, "image.png", ImageFilename("https://yt3.ggpht.com/"))
	assert.Equal(t, "image.png", ImageFilename("://bad url"))
}
