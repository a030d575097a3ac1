package extractor_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/vaultcore/pkg/extractor"
)

func TestExtract_NoHeader(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("just a paragraph of text")

	assert.Equal(t, "just a paragraph of text", got.Title)
	assert.Len(t, got.ContentChunks, 1)
	assert.Empty(t, got.ContentChunks[0].Breadcrumb)
	assert.Equal(t, "just a paragraph of text", got.ContentChunks[0].Text)
}

func TestExtract_HierarchyDepthOne(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("# Title\nHello")

	assert.Equal(t, "Title", got.Title)
	assert.Len(t, got.ContentChunks, 1)
	assert.Equal(t, []string{"Title"}, got.ContentChunks[0].Breadcrumb)
	assert.Equal(t, "Hello", got.ContentChunks[0].Text)
}

func TestExtract_HierarchyDepthTwo(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("# Title\nHello\n## Sub\nWorld")

	require := assert.New(t)
	require.Len(got.ContentChunks, 2)
	require.Equal([]string{"Title"}, got.ContentChunks[0].Breadcrumb)
	require.Equal("Hello", got.ContentChunks[0].Text)
	require.Equal([]string{"Title", "Sub"}, got.ContentChunks[1].Breadcrumb)
	require.Equal("World", got.ContentChunks[1].Text)
}

func TestExtract_HierarchyDepthThree(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("# A\none\n## B\ntwo\n### C\nthree")

	a := assert.New(t)
	a.Len(got.ContentChunks, 3)
	a.Equal([]string{"A"}, got.ContentChunks[0].Breadcrumb)
	a.Equal([]string{"A", "B"}, got.ContentChunks[1].Breadcrumb)
	a.Equal([]string{"A", "B", "C"}, got.ContentChunks[2].Breadcrumb)
}

// TestExtract_NestedHierarchyFourJump: a level jump (h1 -> h3, skipping
// h2) does not pop, it pushes, producing a breadcrumb of mixed levels; a
// subsequent same-or-shallower heading pops back down as usual.
func TestExtract_NestedHierarchyFourJump(t *testing.T) {
	t.Parallel()

	md := "# One\na\n### Three\nb\n#### Four\nc\n## Two\nd"

	got := extractor.Extract(md)

	a := assert.New(t)
	a.Len(got.ContentChunks, 4)
	a.Equal([]string{"One"}, got.ContentChunks[0].Breadcrumb)
	a.Equal([]string{"One", "Three"}, got.ContentChunks[1].Breadcrumb)
	a.Equal([]string{"One", "Three", "Four"}, got.ContentChunks[2].Breadcrumb)
	// "## Two" (level 2) pops "Four" (4>=2) and "Three" (3>=2), leaving "One" (1<2).
	a.Equal([]string{"One", "Two"}, got.ContentChunks[3].Breadcrumb)
}

func TestExtract_ListAtTopOfDocument(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("- first bullet\n- second bullet\n\nfollowing paragraph")

	assert.Equal(t, "first bullet", got.Title)
	assert.Len(t, got.ContentChunks, 1)
	assert.Empty(t, got.ContentChunks[0].Breadcrumb)
}

func TestExtract_TitleWithLink(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("# [linktext](http://example.com)\nbody")

	assert.Equal(t, "linktext", got.Title)
}

func TestExtract_TitleWithEmphasis(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("# **Bold** Title\nbody")

	assert.Equal(t, "Bold Title", got.Title)
}

func TestExtract_TitleTruncatedByRuneCount(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 60)
	got := extractor.Extract("# " + long + "\nbody")

	assert.Len(t, []rune(got.Title), 40)
}

func TestExtract_FrontmatterRoundTrip(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("---\nA\n---\nB")

	var fm, root *extractor.ContentChunk

	for i := range got.ContentChunks {
		c := &got.ContentChunks[i]
		if len(c.Breadcrumb) == 1 && c.Breadcrumb[0] == "FrontMatter" {
			fm = c
		} else if len(c.Breadcrumb) == 0 {
			root = c
		}
	}

	if assert.NotNil(t, fm) {
		assert.Equal(t, "A", fm.Text)
	}

	if assert.NotNil(t, root) {
		assert.Equal(t, "B", root.Text)
	}
}

func TestExtract_FrontmatterUnclosedFenceTreatedAsBody(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("---\nA\nstill body, no closing fence")

	for _, c := range got.ContentChunks {
		assert.NotEqual(t, "FrontMatter", firstOrEmpty(c.Breadcrumb))
	}
}

func TestExtract_HashChangesIffTextChanges(t *testing.T) {
	t.Parallel()

	a := extractor.Extract("# Title\nHello")
	b := extractor.Extract("# Title\nHello")
	c := extractor.Extract("# Title\nHello!")

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestExtract_HashCoversRawTextIncludingFrontmatter(t *testing.T) {
	t.Parallel()

	withFM := extractor.Extract("---\nA\n---\nB")
	withoutFM := extractor.Extract("B")

	assert.NotEqual(t, withFM.Hash, withoutFM.Hash,
		"hash is computed over the raw input text, before frontmatter peeling")
}

func TestExtract_DiacriticsStrippedFromChunkText(t *testing.T) {
	t.Parallel()

	got := extractor.Extract("café")

	assert.Equal(t, "cafe", got.ContentChunks[0].Text)
}

// TestExtract_PureFunction: Extract is pure, so parsing equal text twice
// must yield struct-for-struct equal NoteContentData. cmp.Diff (rather
// than reflect.DeepEqual/assert.Equal) pinpoints exactly which field
// regressed if this ever drifts.
func TestExtract_PureFunction(t *testing.T) {
	t.Parallel()

	text := "---\nkey: value\n---\n# Title\nHello\n\n## Sub\nWorld café"

	a := extractor.Extract(text)
	b := extractor.Extract(text)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("Extract is not pure for identical input (-first +second):\n%s", diff)
	}
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}

	return s[0]
}
