package hasher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFileMatchesHashString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    return 1\n"), 0644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashString("def f():\n    return 1\n"), got)
	assert.Len(t, got, 64)
}

func TestHashStringKnownValue(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashString(""))
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "gone.py"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilesEqual(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(c, []byte("diff"), 0644))

	eq, err := FilesEqual(a, b)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = FilesEqual(a, c)
	require.NoError(t, err)
	assert.False(t, eq)

	_, err = FilesEqual(a, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
