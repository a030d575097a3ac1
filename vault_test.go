package vaultcore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vaultcore"
	"github.com/calvinalkan/vaultcore/internal/reconcile"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

func openTestVault(t *testing.T) (*vaultcore.Vault, string) {
	t.Helper()

	root := t.TempDir()

	v, err := vaultcore.Open(root)
	require.NoError(t, err)

	t.Cleanup(func() { _ = v.Close() })

	return v, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// S1: one note, one heading, search hits it with the heading as title.
func TestScenario_S1_SearchAfterInitialIndex(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "a.md", "# Title\nHello")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	rows, err := v.Search(ctx, "Hello")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/a.md", rows[0].Path)
	assert.Equal(t, "Title", rows[0].Title)
}

// S2: appending a subheading and reindexing with Fast validation produces
// two content chunks with the expected breadcrumbs.
func TestScenario_S2_FastReindexPicksUpAppendedSubheading(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "a.md", "# Title\nHello")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	writeFile(t, root, "a.md", "# Title\nHello\n\n## Sub\nWorld")

	// Fast validation keys off (size, mtime); force the mtime a whole
	// second forward so it can't alias the original write under
	// ModifiedSecs' one-second granularity.
	bumped := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.md"), bumped, bumped))

	require.NoError(t, v.IndexNotes(ctx, reconcile.ValidationFast))

	var gotTitle, gotSub string

	for result := range v.BrowseVault(ctx, vaultpath.Root(), vaultcore.BrowseOptions{Recursive: true, Validation: reconcile.ValidationNone}) {
		if result.Kind != reconcile.ResultNote || result.Path.String() != "/a.md" {
			continue
		}

		require.Len(t, result.Content.ContentChunks, 2)
		gotTitle = result.Content.ContentChunks[0].Text
		gotSub = result.Content.ContentChunks[1].Text
	}

	assert.Equal(t, "Hello", gotTitle)
	assert.Equal(t, "World", gotSub)
}

// S3: journal_entry creates today's note with the expected initial text,
// and journal_date parses it back out.
func TestScenario_S3_JournalEntryRoundTrips(t *testing.T) {
	t.Parallel()

	v, _ := openTestVault(t)
	ctx := context.Background()

	details, text, err := v.JournalEntry(ctx)
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, "/journal/"+today+".md", details.Path.String())
	assert.Equal(t, "# "+today+"\n\n", text)

	date, ok := vaultcore.JournalDate(details.Path)
	require.True(t, ok)
	assert.Equal(t, today, date.Format("2006-01-02"))
}

// S4: a bare-name open_or_search matches every note sharing that filename;
// an exact-path query matches only one.
func TestScenario_S4_OpenOrSearchBareNameVsExactPath(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "n.md", "# N\nbody")
	writeFile(t, root, "sub/n.md", "# Other\nbody")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	bare, err := v.OpenOrSearch(ctx, vaultpath.NotePathFrom("n"))
	require.NoError(t, err)
	assert.Len(t, bare, 2)

	exact, err := v.OpenOrSearch(ctx, vaultpath.New("/sub/n.md"))
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "/sub/n.md", exact[0].Path)
}

// S5: a breadcrumb-qualified query intersects correctly against text.
func TestScenario_S5_QueryIntersectsBreadcrumbAndText(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "a.md", "# Title\nHello\n\n## Sub\nWorld")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	hit, err := v.Search(ctx, ">Title World")
	require.NoError(t, err)
	require.Len(t, hit, 1)
	assert.Equal(t, "/a.md", hit[0].Path)

	miss, err := v.Search(ctx, ">Nonexistent World")
	require.NoError(t, err)
	assert.Empty(t, miss)
}

// S6: deleting a directory removes every descendant note from the index
// in one transaction.
func TestScenario_S6_DeleteDirectoryCascades(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "n.md", "# N\nbody")
	writeFile(t, root, "sub/n.md", "# Other\nbody")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	require.NoError(t, v.DeleteDirectory(ctx, vaultpath.New("/sub")))

	_, err = os.Stat(filepath.Join(root, "sub"))
	assert.True(t, os.IsNotExist(err))

	rows, err := v.OpenOrSearch(ctx, vaultpath.New("/sub/n.md"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// Reconciler idempotence: indexing an unchanged vault twice with Full
// validation leaves every note's data unchanged.
func TestIndexNotes_FullValidationIdempotentOnUnchangedVault(t *testing.T) {
	t.Parallel()

	v, root := openTestVault(t)
	writeFile(t, root, "a.md", "# Title\nHello")

	ctx := context.Background()
	_, err := v.InitAndValidate(ctx)
	require.NoError(t, err)

	require.NoError(t, v.IndexNotes(ctx, reconcile.ValidationFull))

	rows, err := v.Search(ctx, "Hello")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/a.md", rows[0].Path)
}

func TestSaveNote_CreateThenLoadOrCreateReturnsExistingText(t *testing.T) {
	t.Parallel()

	v, _ := openTestVault(t)
	ctx := context.Background()

	path := vaultpath.New("/notes/created.md")

	_, err := v.CreateNote(ctx, path, "# Created\nbody")
	require.NoError(t, err)

	_, err = v.CreateNote(ctx, path, "# Created again\nbody")
	require.Error(t, err)

	_, text, err := v.LoadOrCreateNote(ctx, path, "# Default\n")
	require.NoError(t, err)
	assert.Equal(t, "# Created\nbody", text)
}

func TestRenameNote_RefusesWhenDestinationExists(t *testing.T) {
	t.Parallel()

	v, _ := openTestVault(t)
	ctx := context.Background()

	from := vaultpath.New("/a.md")
	to := vaultpath.New("/b.md")

	_, err := v.CreateNote(ctx, from, "# A\n")
	require.NoError(t, err)

	_, err = v.CreateNote(ctx, to, "# B\n")
	require.NoError(t, err)

	err = v.RenameNote(ctx, from, to)
	assert.Error(t, err)
}
