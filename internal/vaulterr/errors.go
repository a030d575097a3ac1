// Package vaulterr implements the vault's three-tier error taxonomy: leaf
// components (filesystem gateway, index store) return [FSError]/[DBError];
// the facade wraps both into [VaultError].
package vaulterr

import (
	"errors"
	"fmt"
)

// FSKind discriminates the filesystem gateway's error cases.
type FSKind int

const (
	FSInvalidPath FSKind = iota
	FSPathNotFound
	FSReadFileError
	FSDecoding
	FSNoFileOrDirectoryFound
)

func (k FSKind) String() string {
	switch k {
	case FSInvalidPath:
		return "invalid_path"
	case FSPathNotFound:
		return "path_not_found"
	case FSReadFileError:
		return "read_file_error"
	case FSDecoding:
		return "decoding"
	case FSNoFileOrDirectoryFound:
		return "no_file_or_directory_found"
	default:
		return "unknown"
	}
}

// FSError is the uniform error type returned by the filesystem gateway.
type FSError struct {
	Kind FSKind
	Path string
	Err  error
}

func (e *FSError) Error() string {
	if e == nil {
		return ""
	}

	if e.Path == "" {
		return fmt.Sprintf("fs: %s: %s", e.Kind, e.cause())
	}

	return fmt.Sprintf("fs: %s: %s (path=%s)", e.Kind, e.cause(), e.Path)
}

func (e *FSError) Unwrap() error { return e.Err }

func (e *FSError) cause() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Err.Error()
}

// NewFSError builds an [*FSError]; err may be nil when the kind is
// self-explanatory (e.g. [FSInvalidPath]).
func NewFSError(kind FSKind, path string, err error) *FSError {
	return &FSError{Kind: kind, Path: path, Err: err}
}

// DBKind discriminates the index store's error cases.
type DBKind int

const (
	DBBackend DBKind = iota
	DBConnectionClosed
	DBQuery
	DBSchemaMismatch
	DBAsyncRecv
	DBOther
)

func (k DBKind) String() string {
	switch k {
	case DBBackend:
		return "backend"
	case DBConnectionClosed:
		return "connection_closed"
	case DBQuery:
		return "query"
	case DBSchemaMismatch:
		return "schema_mismatch"
	case DBAsyncRecv:
		return "async_recv"
	case DBOther:
		return "other"
	default:
		return "unknown"
	}
}

// DBError is the uniform error type returned by the index store and the
// async DB client.
type DBError struct {
	Kind DBKind
	Err  error
}

func (e *DBError) Error() string {
	if e == nil {
		return ""
	}

	if e.Err == nil {
		return fmt.Sprintf("db: %s", e.Kind)
	}

	return fmt.Sprintf("db: %s: %s", e.Kind, e.Err.Error())
}

func (e *DBError) Unwrap() error { return e.Err }

// NewDBError builds an [*DBError].
func NewDBError(kind DBKind, err error) *DBError {
	return &DBError{Kind: kind, Err: err}
}

// VaultKind discriminates the facade's error cases.
type VaultKind int

const (
	VaultPathNotFound VaultKind = iota
	VaultFS
	VaultDB
	VaultNoteExists
	VaultDirectoryExists
)

func (k VaultKind) String() string {
	switch k {
	case VaultPathNotFound:
		return "vault_path_not_found"
	case VaultFS:
		return "fs"
	case VaultDB:
		return "db"
	case VaultNoteExists:
		return "note_exists"
	case VaultDirectoryExists:
		return "directory_exists"
	default:
		return "unknown"
	}
}

// VaultError is the uniform error type returned by every public Vault
// method: any DB error surfaces through DB, any filesystem error through
// FS, structural failures through Kind alone.
type VaultError struct {
	Kind VaultKind
	Path string
	FS   *FSError
	DB   *DBError
}

func (e *VaultError) Error() string {
	if e == nil {
		return ""
	}

	switch {
	case e.FS != nil:
		return "vault: " + e.FS.Error()
	case e.DB != nil:
		return "vault: " + e.DB.Error()
	case e.Path != "":
		return fmt.Sprintf("vault: %s (path=%s)", e.Kind, e.Path)
	default:
		return "vault: " + e.Kind.String()
	}
}

// Unwrap exposes the wrapped FSError or DBError, if any, for [errors.As]/
// [errors.Is].
func (e *VaultError) Unwrap() error {
	switch {
	case e.FS != nil:
		return e.FS
	case e.DB != nil:
		return e.DB
	default:
		return nil
	}
}

// WrapFS wraps an FSError as a VaultError. If err is not an *FSError, it
// is adapted into one with [FSReadFileError] as a conservative default.
func WrapFS(err error) *VaultError {
	if err == nil {
		return nil
	}

	var fsErr *FSError
	if !errors.As(err, &fsErr) {
		fsErr = &FSError{Kind: FSReadFileError, Err: err}
	}

	return &VaultError{Kind: VaultFS, Path: fsErr.Path, FS: fsErr}
}

// WrapDB wraps a DBError as a VaultError.
func WrapDB(err error) *VaultError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		dbErr = &DBError{Kind: DBOther, Err: err}
	}

	return &VaultError{Kind: VaultDB, DB: dbErr}
}

// NewVaultError builds a structural VaultError carrying no wrapped cause
// (e.g. [VaultNoteExists], [VaultDirectoryExists], [VaultPathNotFound]).
func NewVaultError(kind VaultKind, path string) *VaultError {
	return &VaultError{Kind: kind, Path: path}
}
