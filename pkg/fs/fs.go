// Package fs is the vault's filesystem abstraction: the thin seam between
// [github.com/calvinalkan/vaultcore/pkg/fsgateway] and the OS, so the
// gateway's note/directory operations can be exercised against a fake in
// tests instead of always touching the real disk.
//
// The main types are:
//   - [FS]: the filesystem operations the gateway and its atomic writer need
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor, as returned by
// [FS.Open] and [FS.OpenFile].
//
// This interface is satisfied by [os.File]. [AtomicWriter] is the only
// caller in this package that needs more than [io.Closer] from it: it
// writes the note body through [io.Writer], [File.Chmod]s the temp file to
// the vault's note permissions, and [File.Sync]s both the temp file and the
// parent directory handle before renaming into place.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type File interface {
	io.Writer
	io.Closer

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Chmod changes the mode of the file. See [os.File.Chmod].
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations [github.com/calvinalkan/vaultcore/pkg/fsgateway]
// and [AtomicWriter] need to load, save, rename, and walk notes and
// directories under a vault root.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with a fake.
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by the standard library io/fs package.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// Open opens a file for reading. See [os.Open]. Used by [AtomicWriter]
	// to fsync a note's parent directory after a rename.
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile]. Used by [AtomicWriter] to create the exclusive temp
	// file a note is staged into before the atomic rename.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire note into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// ReadDir reads a directory and returns its entries. See [os.ReadDir].
	// Entries are sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	// For recursive deletion, use [FS.RemoveAll].
	Remove(path string) error

	// RemoveAll deletes a path and any children. See [os.RemoveAll].
	// No error if path doesn't exist.
	RemoveAll(path string) error

	// Rename moves/renames a file or directory. See [os.Rename].
	// Atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
