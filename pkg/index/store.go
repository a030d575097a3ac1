package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// ErrNotFound is returned when a lookup by path finds no row.
var ErrNotFound = errors.New("index: not found")

// ContentChunk is the storage-layer view of a parsed content chunk: a
// breadcrumb (joined for storage) and its body text. Kept independent of
// [github.com/calvinalkan/vaultcore/pkg/extractor.ContentChunk] so the
// index package has no dependency on the parser; the facade converts
// between the two.
type ContentChunk struct {
	Breadcrumb []string
	Text       string
}

// NoteEntry is the storage-layer view of a note's filesystem facts.
type NoteEntry struct {
	Path      vaultpath.VaultPath
	SizeBytes int64
	Modified  int64
}

// NoteRow is one row of the notes table.
type NoteRow struct {
	Path     string
	Title    string
	Hash     string
	Size     int64
	Modified int64
	BasePath string
	NoteName string
}

// Store is the concrete SQLite-backed index store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite file at path and applies
// pragmas. It does not check or create the schema; call [Store.CheckDB]
// and [Store.Init] as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying connection for ad-hoc queries (used by
// [github.com/calvinalkan/vaultcore/pkg/query] and the async DB client).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

func breadcrumbString(path vaultpath.VaultPath) (basePath, noteName string) {
	parent, name := path.GetParentPath()
	return parent.String(), name
}

// GetNotes returns rows whose basePath equals path (non-recursive) or
// whose basePath starts with path as a literal string prefix (recursive),
// i.e. basePath LIKE path || '%'.
func (s *Store) GetNotes(ctx context.Context, path vaultpath.VaultPath, recursive bool) ([]NoteRow, error) {
	base := path.String()

	query := `SELECT path, title, hash, size, modified, basePath, noteName FROM notes WHERE basePath = ?`
	arg := any(base)

	if recursive {
		query = `SELECT path, title, hash, size, modified, basePath, noteName FROM notes WHERE basePath LIKE ? ESCAPE '\'`
		arg = any(escapeLike(base) + "%")
	}

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}

	defer func() { _ = rows.Close() }()

	return scanNoteRows(rows)
}

func scanNoteRows(rows *sql.Rows) ([]NoteRow, error) {
	var out []NoteRow

	for rows.Next() {
		var r NoteRow

		if err := rows.Scan(&r.Path, &r.Title, &r.Hash, &r.Size, &r.Modified, &r.BasePath, &r.NoteName); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// GetNotesSections joins notes and notesContent, returning every chunk for
// notes under path.
func (s *Store) GetNotesSections(ctx context.Context, path vaultpath.VaultPath, recursive bool) (map[string][]ContentChunk, error) {
	base := path.String()

	query := `
		SELECT notes.path, notesContent.breadcrumb, notesContent.text
		FROM notes JOIN notesContent ON notes.path = notesContent.path
		WHERE notes.basePath = ?`
	arg := any(base)

	if recursive {
		query = `
			SELECT notes.path, notesContent.breadcrumb, notesContent.text
			FROM notes JOIN notesContent ON notes.path = notesContent.path
			WHERE notes.basePath LIKE ? ESCAPE '\'`
		arg = any(escapeLike(base) + "%")
	}

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("get note sections: %w", err)
	}

	defer func() { _ = rows.Close() }()

	out := make(map[string][]ContentChunk)

	for rows.Next() {
		var path, breadcrumb, text string

		if err := rows.Scan(&path, &breadcrumb, &text); err != nil {
			return nil, fmt.Errorf("scan section row: %w", err)
		}

		out[path] = append(out[path], ContentChunk{Breadcrumb: splitBreadcrumb(breadcrumb), Text: text})
	}

	return out, rows.Err()
}

// breadcrumbSep separates breadcrumb segments in their stored, single-
// column FTS representation.
const breadcrumbSep = " > "

func joinBreadcrumb(b []string) string { return strings.Join(b, breadcrumbSep) }

func splitBreadcrumb(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, breadcrumbSep)
}

// InsertNote inserts one notes row and one notesContent row per chunk,
// inside a single transaction.
func (s *Store) InsertNote(ctx context.Context, entry NoteEntry, title string, hash uint64, chunks []ContentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertNoteTx(ctx, tx, entry, title, hash, chunks); err != nil {
		return err
	}

	return tx.Commit()
}

func insertNoteTx(ctx context.Context, tx *sql.Tx, entry NoteEntry, title string, hash uint64, chunks []ContentChunk) error {
	basePath, noteName := breadcrumbString(entry.Path)

	_, err := tx.ExecContext(ctx,
		`INSERT INTO notes(path, title, hash, size, modified, basePath, noteName) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Path.String(), title, strconv.FormatUint(hash, 10), entry.SizeBytes, entry.Modified, basePath, noteName)
	if err != nil {
		return fmt.Errorf("insert notes row: %w", err)
	}

	return insertContentRows(ctx, tx, entry.Path.String(), chunks)
}

func insertContentRows(ctx context.Context, tx *sql.Tx, path string, chunks []ContentChunk) error {
	for _, c := range chunks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notesContent(path, breadcrumb, text) VALUES (?, ?, ?)`,
			path, joinBreadcrumb(c.Breadcrumb), c.Text)
		if err != nil {
			return fmt.Errorf("insert notesContent row: %w", err)
		}
	}

	return nil
}

// UpdateNote updates the notes row and replaces all notesContent rows for
// path, inside a single transaction.
func (s *Store) UpdateNote(ctx context.Context, entry NoteEntry, title string, hash uint64, chunks []ContentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateNoteTx(ctx, tx, entry, title, hash, chunks); err != nil {
		return err
	}

	return tx.Commit()
}

func updateNoteTx(ctx context.Context, tx *sql.Tx, entry NoteEntry, title string, hash uint64, chunks []ContentChunk) error {
	basePath, noteName := breadcrumbString(entry.Path)
	pathStr := entry.Path.String()

	_, err := tx.ExecContext(ctx,
		`UPDATE notes SET title = ?, hash = ?, size = ?, modified = ?, basePath = ?, noteName = ? WHERE path = ?`,
		title, strconv.FormatUint(hash, 10), entry.SizeBytes, entry.Modified, basePath, noteName, pathStr)
	if err != nil {
		return fmt.Errorf("update notes row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM notesContent WHERE path = ?`, pathStr)
	if err != nil {
		return fmt.Errorf("delete old notesContent rows: %w", err)
	}

	return insertContentRows(ctx, tx, pathStr, chunks)
}

// DeleteNote deletes path from both tables.
func (s *Store) DeleteNote(ctx context.Context, path vaultpath.VaultPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteNoteTx(ctx, tx, path.String()); err != nil {
		return err
	}

	return tx.Commit()
}

func deleteNoteTx(ctx context.Context, tx *sql.Tx, pathStr string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE path = ?`, pathStr); err != nil {
		return fmt.Errorf("delete notes row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notesContent WHERE path = ?`, pathStr); err != nil {
		return fmt.Errorf("delete notesContent rows: %w", err)
	}

	return nil
}

// BatchNote is one note to insert or update within [Store.ApplyBatch].
type BatchNote struct {
	Entry  NoteEntry
	Title  string
	Hash   uint64
	Chunks []ContentChunk
}

// ApplyBatch commits adds, deletes, then updates, in that fixed order,
// inside a single transaction. A reader never observes a
// partially-reconciled index.
func (s *Store) ApplyBatch(ctx context.Context, adds, updates []BatchNote, deletes []vaultpath.VaultPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range adds {
		if err := insertNoteTx(ctx, tx, n.Entry, n.Title, n.Hash, n.Chunks); err != nil {
			return err
		}
	}

	for _, path := range deletes {
		if err := deleteNoteTx(ctx, tx, path.String()); err != nil {
			return err
		}
	}

	for _, n := range updates {
		if err := updateNoteTx(ctx, tx, n.Entry, n.Title, n.Hash, n.Chunks); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteDirectory cascades a delete to every row whose path starts with p
// as a literal string prefix (path LIKE p || '%'), from both tables, in a
// single transaction.
func (s *Store) DeleteDirectory(ctx context.Context, p vaultpath.VaultPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete-directory tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	like := escapeLike(p.String()) + "%"

	if _, err := tx.ExecContext(ctx, `DELETE FROM notesContent WHERE path LIKE ? ESCAPE '\'`, like); err != nil {
		return fmt.Errorf("delete notesContent rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE path LIKE ? ESCAPE '\'`, like); err != nil {
		return fmt.Errorf("delete notes rows: %w", err)
	}

	return tx.Commit()
}

// RenameNote updates path (and the derived basePath/noteName) for the
// affected row in both tables.
func (s *Store) RenameNote(ctx context.Context, from, to vaultpath.VaultPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	basePath, noteName := breadcrumbString(to)

	_, err = tx.ExecContext(ctx,
		`UPDATE notes SET path = ?, basePath = ?, noteName = ? WHERE path = ?`,
		to.String(), basePath, noteName, from.String())
	if err != nil {
		return fmt.Errorf("rename notes row: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE notesContent SET path = ? WHERE path = ?`,
		to.String(), from.String())
	if err != nil {
		return fmt.Errorf("rename notesContent rows: %w", err)
	}

	return tx.Commit()
}

// RenameDirectory rewrites path/basePath for every row whose path starts
// with from as a literal string prefix, replacing that prefix with to.
func (s *Store) RenameDirectory(ctx context.Context, from, to vaultpath.VaultPath) error {
	fromPrefix := from.String()
	toPrefix := to.String()

	rows, err := s.GetNotes(ctx, from, true)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename-directory tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range rows {
		if !strings.HasPrefix(row.Path, fromPrefix) {
			continue
		}

		newPath := toPrefix + strings.TrimPrefix(row.Path, fromPrefix)
		newVP := vaultpath.New(newPath)
		basePath, noteName := breadcrumbString(newVP)

		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET path = ?, basePath = ?, noteName = ? WHERE path = ?`,
			newPath, basePath, noteName, row.Path); err != nil {
			return fmt.Errorf("rename notes row %q: %w", row.Path, err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE notesContent SET path = ? WHERE path = ?`,
			newPath, row.Path); err != nil {
			return fmt.Errorf("rename notesContent rows %q: %w", row.Path, err)
		}
	}

	return tx.Commit()
}

// GetByNoteName finds notes rows by exact noteName (the facade's
// bare-filename lookup).
func (s *Store) GetByNoteName(ctx context.Context, name string) ([]NoteRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, title, hash, size, modified, basePath, noteName FROM notes WHERE noteName = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("get by note name: %w", err)
	}

	defer func() { _ = rows.Close() }()

	return scanNoteRows(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
