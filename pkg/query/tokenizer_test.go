package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/vaultcore/pkg/query"
)

func TestParse_PlainTerms(t *testing.T) {
	t.Parallel()

	got := query.Parse("some text more terms")

	assert.Empty(t, got.Breadcrumb)
	assert.Empty(t, got.Path)
	assert.ElementsMatch(t, []string{"some", "text", "more", "terms"}, got.Terms)
}

func TestParse_In(t *testing.T) {
	t.Parallel()

	got := query.Parse(">title in:othertitle")

	assert.Empty(t, got.Path)
	assert.Empty(t, got.Terms)
	assert.ElementsMatch(t, []string{"title", "othertitle"}, got.Breadcrumb)
}

func TestParse_At(t *testing.T) {
	t.Parallel()

	got := query.Parse("@file at:directory")

	assert.Empty(t, got.Breadcrumb)
	assert.Empty(t, got.Terms)
	assert.ElementsMatch(t, []string{"file", "directory"}, got.Path)
}

func TestParse_AtQuoted(t *testing.T) {
	t.Parallel()

	got := query.Parse(`@'file name' at:"directory path"`)

	assert.Empty(t, got.Breadcrumb)
	assert.Empty(t, got.Terms)
	assert.ElementsMatch(t, []string{"file name", "directory path"}, got.Path)
}

// TestParse_AtQuotedNotClosed: an unclosed quote discards the rest of the
// query, not just the dangling quote, so only the first, well-formed
// element survives.
func TestParse_AtQuotedNotClosed(t *testing.T) {
	t.Parallel()

	got := query.Parse(`@'file name' at:"directory path`)

	assert.Empty(t, got.Breadcrumb)
	assert.Empty(t, got.Terms)
	assert.Equal(t, []string{"file name"}, got.Path)
}

func TestParse_Combined(t *testing.T) {
	t.Parallel()

	got := query.Parse(`searchterm    @file otherterm at:directory in:title >text      "some text"`)

	assert.ElementsMatch(t, []string{"searchterm", "otherterm", "some text"}, got.Terms)
	assert.ElementsMatch(t, []string{"title", "text"}, got.Breadcrumb)
	assert.ElementsMatch(t, []string{"file", "directory"}, got.Path)
}

func TestParse_EmptyQueryIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, query.Parse("").IsEmpty())
	assert.False(t, query.Parse("anything").IsEmpty())
}
