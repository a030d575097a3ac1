package fs_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vaultcore/pkg/fs"
)

func TestReal_Exists_ReturnsFalseForMissingNote(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()

	exists, err := real.Exists(filepath.Join(dir, "missing.md"))

	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReal_Exists_ReturnsTrueForSavedNote(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")

	require.NoError(t, fs.NewAtomicWriter(real).WriteWithDefaults(path, strings.NewReader("# Note")))

	exists, err := real.Exists(path)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReal_Exists_ReturnsTrueForVaultDirectory(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()
	subdir := filepath.Join(dir, "projects")

	require.NoError(t, real.MkdirAll(subdir, 0o755))

	exists, err := real.Exists(subdir)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReal_ReadFile_RoundTripsAtomicallyWrittenContent(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.md")

	require.NoError(t, fs.NewAtomicWriter(real).WriteWithDefaults(path, strings.NewReader("# Journal\n\ntoday")))

	got, err := real.ReadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "# Journal\n\ntoday", string(got))
}
