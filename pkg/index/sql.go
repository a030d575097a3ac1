// Package index implements the vault's SQLite index store: schema
// management, connection lifecycle, schema-version checking, and CRUD over
// the notes/notesContent tables.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "sqlite3" driver used by [sql.Open] below.
	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the version stamped into appData.version whenever this
// package recreates the schema (PRAGMA user_version gets the integer
// [expectedUserVersion] at the same time). A mismatch against either stored
// version triggers the facade's rebuild path.
const SchemaVersion = "0.2"

// openSQLite opens the index database and applies the configured pragmas:
// a single dedicated connection so per-connection PRAGMAs apply
// consistently, busy_timeout so concurrent readers don't spuriously fail,
// WAL for concurrent-reader/single-writer semantics, and synchronous=FULL
// because the index, while reconstructable, is still the fast path users
// hit on every browse.
func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

const sqliteBusyTimeoutMS = 10000

func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
		PRAGMA mmap_size = 268435456;
		PRAGMA cache_size = -20000;
		PRAGMA temp_store = MEMORY;
	`, sqliteBusyTimeoutMS))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	return nil
}

func storedUserVersion(ctx context.Context, db *sql.DB) (int, error) {
	row := db.QueryRowContext(ctx, "PRAGMA user_version")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}

	return version, nil
}

func setUserVersion(ctx context.Context, db *sql.DB, version int) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	if err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// expectedUserVersion is the integer PRAGMA user_version this package
// writes and checks; a single monotonic counter is simpler to compare than
// the decimal-string form stored for humans in appData.version.
const expectedUserVersion = 2
