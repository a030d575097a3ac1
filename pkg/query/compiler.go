package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Row is one result of [Search]: a note's metadata joined against
// whichever notesContent row matched.
type Row struct {
	Path     string
	Title    string
	Size     int64
	Modified int64
	Hash     string
	NoteName string
}

const subqueryTemplate = `SELECT notesContent.path, title, size, modified, hash, noteName
FROM notesContent JOIN notes ON notesContent.path = notes.path
WHERE notesContent MATCH ?`

// Compile builds the INTERSECT-composed SQL and its bind arguments for t:
// one subquery per non-empty list, each list's terms joined by a single
// space into one bound MATCH argument. Returns ("", nil, false) for an
// empty query; the caller must skip the DB round trip entirely.
//
// notesContent is an FTS4 table, which (unlike FTS5) has no
// "table.column MATCH ?" form; a column is instead selected with a
// "column:" prefix inside the MATCH string itself. The prefix scopes only
// the single term that follows it, so every term gets its own.
func Compile(t Terms) (query string, args []any, ok bool) {
	if t.IsEmpty() {
		return "", nil, false
	}

	var subqueries []string

	add := func(column string, terms []string) {
		if len(terms) == 0 {
			return
		}

		scoped := make([]string, len(terms))
		for i, term := range terms {
			if strings.ContainsRune(term, ' ') {
				// A quoted phrase stays one unit under the column scope.
				term = `"` + term + `"`
			}

			scoped[i] = column + ":" + term
		}

		subqueries = append(subqueries, subqueryTemplate)
		args = append(args, strings.Join(scoped, " "))
	}

	add("text", t.Terms)
	add("path", t.Path)
	add("breadcrumb", t.Breadcrumb)

	return strings.Join(subqueries, "\nINTERSECT\n"), args, true
}

// Search parses raw, compiles it, and executes it against db.
func Search(ctx context.Context, db *sql.DB, raw string) ([]Row, error) {
	terms := Parse(raw)

	sqlQuery, args, ok := Compile(terms)
	if !ok {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Row

	for rows.Next() {
		var r Row

		if err := rows.Scan(&r.Path, &r.Title, &r.Size, &r.Modified, &r.Hash, &r.NoteName); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}
