package index

import (
	"context"
	"database/sql"
	"fmt"
)

// CheckStatus is the result of [Store.CheckDB].
type CheckStatus int

const (
	// StatusReady means the schema version matches; no rebuild needed.
	StatusReady CheckStatus = iota
	// StatusOutdated means the file exists but its schema version is stale.
	StatusOutdated
	// StatusNotValid means the file exists but isn't a valid index (e.g.
	// corrupt, or missing expected tables).
	StatusNotValid
	// StatusFileNotFound means the index file does not exist yet.
	StatusFileNotFound
)

// createSchema drops the three tables this schema defines (notesContent,
// notes, appData; dropping the FTS virtual table removes its shadow tables
// with it) and recreates the schema: appData(name, value),
// notes(path, title, hash, size, modified, basePath, noteName), and the
// notesContent FTS4 virtual table over (path, breadcrumb, text). Any other
// user table in the database file is left in place.
//
// FTS4, not FTS5: mattn/go-sqlite3 only links SQLite's fts5 module when
// built with -tags sqlite_fts5; fts3/fts4 are compiled in by default, so
// this stays buildable without extra build tags.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DROP TABLE IF EXISTS notesContent`,
		`DROP TABLE IF EXISTS notes`,
		`DROP TABLE IF EXISTS appData`,
		`CREATE TABLE appData (
			name  TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE notes (
			path     TEXT PRIMARY KEY,
			title    TEXT NOT NULL DEFAULT '',
			hash     TEXT NOT NULL,
			size     INTEGER NOT NULL,
			modified INTEGER NOT NULL,
			basePath TEXT NOT NULL,
			noteName TEXT NOT NULL
		) WITHOUT ROWID`,
		`CREATE INDEX idx_notes_base_path ON notes(basePath)`,
		`CREATE INDEX idx_notes_note_name ON notes(noteName)`,
		`CREATE VIRTUAL TABLE notesContent USING fts4(
			path,
			breadcrumb,
			text,
			tokenize=unicode61 "separators=._"
		)`,
		fmt.Sprintf(`INSERT INTO appData(name, value) VALUES ('version', '%s')`, SchemaVersion),
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}

	return setUserVersion(ctx, db, expectedUserVersion)
}

// CheckDB reports the index's readiness without mutating it.
func (s *Store) CheckDB(ctx context.Context) (CheckStatus, error) {
	version, err := storedUserVersion(ctx, s.db)
	if err != nil {
		return StatusNotValid, err
	}

	if version == 0 {
		return StatusNotValid, nil
	}

	if version != expectedUserVersion {
		return StatusOutdated, nil
	}

	var appVersion string

	row := s.db.QueryRowContext(ctx, `SELECT value FROM appData WHERE name = 'version'`)
	if err := row.Scan(&appVersion); err != nil {
		return StatusNotValid, nil //nolint:nilerr // a missing/corrupt appData row just means "not valid", not an operational error
	}

	if appVersion != SchemaVersion {
		return StatusOutdated, nil
	}

	return StatusReady, nil
}

// Init drops and recreates the schema at the current version.
func (s *Store) Init(ctx context.Context) error {
	return createSchema(ctx, s.db)
}
