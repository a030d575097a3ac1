package fsgateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vfs "github.com/calvinalkan/vaultcore/pkg/fs"
	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

func newGateway(t *testing.T) (*fsgateway.Gateway, string) {
	t.Helper()

	root := t.TempDir()

	return fsgateway.New(vfs.NewReal(), root), root
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	path := vaultpath.New("/notes/a.md")

	_, err := g.Save(path, "# Hello\nWorld")
	require.NoError(t, err)

	got, err := g.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# Hello\nWorld", got)
}

func TestLoad_MissingFileReturnsPathNotFound(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)

	_, err := g.Load(vaultpath.New("/missing.md"))
	require.ErrorIs(t, err, fsgateway.ErrPathNotFound)
}

func TestSave_RejectsNonNotePath(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)

	_, err := g.Save(vaultpath.New("/a.png"), "data")
	require.ErrorIs(t, err, fsgateway.ErrNotANote)
}

func TestSave_CreatesMissingParents(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	path := vaultpath.New("/deep/nested/dir/note.md")

	entry, err := g.Save(path, "content")
	require.NoError(t, err)
	assert.Equal(t, int64(len("content")), entry.SizeBytes)
}

func TestRenameNote(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	from := vaultpath.New("/a.md")
	to := vaultpath.New("/sub/b.md")

	_, err := g.Save(from, "x")
	require.NoError(t, err)

	require.NoError(t, g.RenameNote(from, to))

	_, err = g.Load(from)
	require.ErrorIs(t, err, fsgateway.ErrPathNotFound)

	got, err := g.Load(to)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestDeleteDirectory_Recursive(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)

	_, err := g.Save(vaultpath.New("/sub/a.md"), "1")
	require.NoError(t, err)
	_, err = g.Save(vaultpath.New("/sub/b.md"), "2")
	require.NoError(t, err)

	require.NoError(t, g.DeleteDirectory(vaultpath.New("/sub")))

	exists, err := g.Exists(vaultpath.New("/sub"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWalk_SkipsHiddenEntriesAndClassifiesKinds(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)

	_, err := g.Save(vaultpath.New("/note.md"), "hello")
	require.NoError(t, err)
	_, err = g.Save(vaultpath.New("/.hidden.md"), "nope")
	require.NoError(t, err)

	var notes, dirs int

	for entry := range g.Walk(vaultpath.Root(), true) {
		require.NoError(t, entry.Err)

		switch entry.Kind {
		case fsgateway.EntryNote:
			notes++
			assert.NotEqual(t, "/.hidden.md", entry.Path.String())
		case fsgateway.EntryDirectory:
			dirs++
		}
	}

	assert.Equal(t, 1, notes)
	assert.Equal(t, 0, dirs)
}

func TestHashText_StableAndSensitiveToChange(t *testing.T) {
	t.Parallel()

	a := fsgateway.HashText("hello world")
	b := fsgateway.HashText("hello world")
	c := fsgateway.HashText("hello world!")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
