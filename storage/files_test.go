package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	t.Setenv("UPLOAD_DIR", t.TempDir())
	fs, err := NewFileStore()
	require.NoError(t, err)
	return fs
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	stored, err := fs.Save("2026/08/logo.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "2026/08/logo.png", stored)

	data, err := fs.Read("2026/08/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestFileStoreNeutralizesTraversal(t *testing.T) {
	fs := newTestStore(t)
	_, err := fs.Save("ok.txt", []byte("x"))
	require.NoError(t, err)

	// Cleaning roots the path, so "../" cannot escape the upload dir.
	for _, p := range []string{"../outside.txt", "a/../../outside.txt", "../../etc/passwd"} {
		full, err := fs.Path(p)
		require.NoError(t, err)
		assert.Contains(t, full, fs.root, "resolved path must stay inside the store: %s", p)
	}

	_, err = fs.Read("../outside.txt")
	assert.Error(t, err, "nothing was written outside the root, so the read must fail")
}
