package query_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vaultcore/pkg/query"
)

func TestCompile_EmptyQuerySkipsDB(t *testing.T) {
	t.Parallel()

	sqlQuery, args, ok := query.Compile(query.Terms{})

	assert.False(t, ok)
	assert.Empty(t, sqlQuery)
	assert.Nil(t, args)
}

func TestCompile_SingleListBindsOneJoinedArg(t *testing.T) {
	t.Parallel()

	sqlQuery, args, ok := query.Compile(query.Terms{Terms: []string{"some", "text"}})

	require.True(t, ok)
	require.Len(t, args, 1)
	assert.Equal(t, "text:some text:text", args[0])
	assert.Contains(t, sqlQuery, "notesContent MATCH ?")
	assert.NotContains(t, sqlQuery, "INTERSECT")
}

func TestCompile_AllThreeListsIntersect(t *testing.T) {
	t.Parallel()

	sqlQuery, args, ok := query.Compile(query.Terms{
		Terms:      []string{"some", "text"},
		Path:       []string{"file"},
		Breadcrumb: []string{"title", "more_title"},
	})

	require.True(t, ok)
	require.Len(t, args, 3)
	assert.Equal(t, "text:some text:text", args[0])
	assert.Equal(t, "path:file", args[1])
	assert.Equal(t, "breadcrumb:title breadcrumb:more_title", args[2])

	assert.Equal(t, 2, strings.Count(sqlQuery, "INTERSECT"))
	assert.Equal(t, 3, strings.Count(sqlQuery, "notesContent MATCH ?"))
}

func TestCompile_QuotedPhraseStaysOneUnitUnderColumnScope(t *testing.T) {
	t.Parallel()

	_, args, ok := query.Compile(query.Terms{Terms: []string{"some text"}})

	require.True(t, ok)
	require.Len(t, args, 1)
	assert.Equal(t, `text:"some text"`, args[0])
}

func TestTerms_BuilderMethodsAreFluentAndAppend(t *testing.T) {
	t.Parallel()

	t1 := query.Terms{}.WithText("foo")
	t2 := t1.WithText("bar").Inside("chapter").Under("notes/a")

	assert.Equal(t, []string{"foo"}, t1.Terms, "building t2 from t1 must not mutate t1")
	assert.Equal(t, []string{"foo", "bar"}, t2.Terms)
	assert.Equal(t, []string{"chapter"}, t2.Breadcrumb)
	assert.Equal(t, []string{"notes/a"}, t2.Path)
}
