package vaultpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

func TestNew_Normalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "/Foo/BAR.md", "/foo/bar.md"},
		{"replaces disallowed chars", "/a:b*c?d.md", "/a_b_c_d.md"},
		{"collapses leading dot runs", "/..evil/x.md", "/_evil/x.md"},
		{"keeps single leading dot", "/.hidden.md", "/.hidden.md"},
		{"discards empty segments", "//a///b.md", "/a/b.md"},
		{"relative has no leading slash", "a/b.md", "a/b.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := vaultpath.New(tt.in).String()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{"/a/b/c.md", "a/b.md", "/", "", "/a/../b.md"}

	for _, s := range inputs {
		p := vaultpath.New(s)
		reparsed := vaultpath.New(p.String())
		assert.True(t, p.Equal(reparsed), "round trip failed for %q -> %q", s, p.String())
	}
}

func TestIsNote(t *testing.T) {
	t.Parallel()

	assert.True(t, vaultpath.New("/a/b.md").IsNote())
	assert.False(t, vaultpath.New("/a/b.png").IsNote())
	assert.False(t, vaultpath.Root().IsNote())
}

func TestFlatten_AboveRootIsSilentNoOp(t *testing.T) {
	t.Parallel()

	var warned []vaultpath.VaultPath

	p := vaultpath.New("/a/../../b.md")
	got := p.Flatten(func(path vaultpath.VaultPath) { warned = append(warned, path) })

	assert.Equal(t, "/b.md", got.String())
	assert.Len(t, warned, 1, "exactly one above-root climb should be reported")
}

func TestFlatten_Idempotent(t *testing.T) {
	t.Parallel()

	p := vaultpath.New("/a/./b/../c.md")
	once := p.Flatten(nil)
	twice := once.Flatten(nil)

	assert.True(t, once.Equal(twice))
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, vaultpath.IsValid("/a/b.md"))
	assert.True(t, vaultpath.IsValid("/a/../b.md"), "a bare \"..\" segment is valid, it's the Up sentinel")
	assert.False(t, vaultpath.IsValid("/a//b.md"))
	assert.False(t, vaultpath.IsValid("/a/...evil.md"))
	assert.False(t, vaultpath.IsValid("/a:b.md"))
}

func TestTryNew_RejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := vaultpath.TryNew("/a//b.md")
	require.Error(t, err)

	var invalid *vaultpath.InvalidPathError
	require.ErrorAs(t, err, &invalid)
}

func TestGetParentPath(t *testing.T) {
	t.Parallel()

	parent, name := vaultpath.New("/a/b/c.md").GetParentPath()

	assert.Equal(t, "/a/b", parent.String())
	assert.Equal(t, "c.md", name)
}

func TestGetRelativeTo(t *testing.T) {
	t.Parallel()

	ref := vaultpath.New("/a/b")
	target := vaultpath.New("/a/c/d.md")

	rel := target.GetRelativeTo(ref)

	got := ref.Append(rel).Flatten(nil)
	want := target.Flatten(nil)

	assert.True(t, got.Equal(want))
}

func TestGetNameOnConflict(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{
		"/a/b.md":   true,
		"/a/b_0.md": true,
	}

	exists := func(p vaultpath.VaultPath) bool { return taken[p.String()] }

	got := vaultpath.New("/a/b.md").GetNameOnConflict(exists)
	assert.Equal(t, "/a/b_1.md", got.String())
}

func TestNotePathFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b.md", vaultpath.NotePathFrom("/a/b").String())
	assert.Equal(t, "/a/b.md", vaultpath.NotePathFrom("/a/b.md").String())
	assert.Equal(t, "/a/b.md", vaultpath.NotePathFrom("/a/b/").String())
}
