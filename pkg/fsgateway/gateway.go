// Package fsgateway is the vault's filesystem gateway: it reads, writes,
// deletes, and renames notes and directories, and walks a vault tree in
// parallel while filtering hidden entries.
package fsgateway

import (
	"errors"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	vfs "github.com/calvinalkan/vaultcore/pkg/fs"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// Sentinel errors returned by gateway operations. Wrap with
// [github.com/calvinalkan/vaultcore/internal/vaulterr] at the facade
// boundary; the gateway itself stays free of the vault-level taxonomy so it
// can be used standalone.
var (
	ErrPathNotFound  = errors.New("path not found")
	ErrNotUTF8       = errors.New("file is not valid utf-8")
	ErrNotANote      = errors.New("path is not a note")
	ErrNotADirectory = errors.New("path is not a directory")
)

// NoteEntryData holds the filesystem-observable facts about a note,
// independent of its parsed content.
type NoteEntryData struct {
	Path         vaultpath.VaultPath
	SizeBytes    int64
	ModifiedSecs int64
}

// Gateway is the concrete filesystem gateway, backed by an [vfs.FS].
type Gateway struct {
	fs     vfs.FS
	writer *vfs.AtomicWriter
	root   string
	sep    string
}

// New builds a Gateway rooted at workspaceRoot, backed by the given
// filesystem. Pass [vfs.NewReal] for production use.
func New(fsys vfs.FS, workspaceRoot string) *Gateway {
	return &Gateway{
		fs:     fsys,
		writer: vfs.NewAtomicWriter(fsys),
		root:   workspaceRoot,
		sep:    string(os.PathSeparator),
	}
}

func (g *Gateway) osPath(p vaultpath.VaultPath) string {
	return p.ToOSPath(g.root, g.sep)
}

// Load reads the file at path and decodes it as UTF-8.
//
// Returns [ErrPathNotFound] if the file is missing (so callers can
// implement lazy-create), [ErrNotUTF8] if the bytes are not valid UTF-8,
// or a wrapped I/O error otherwise.
func (g *Gateway) Load(path vaultpath.VaultPath) (string, error) {
	data, err := g.fs.ReadFile(g.osPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrPathNotFound
		}

		return "", err
	}

	if !utf8.Valid(data) {
		return "", ErrNotUTF8
	}

	return string(data), nil
}

// Save refuses non-note paths, creates missing parent directories, writes
// text atomically and durably, then restats the file.
func (g *Gateway) Save(path vaultpath.VaultPath, text string) (NoteEntryData, error) {
	if !path.IsNote() {
		return NoteEntryData{}, ErrNotANote
	}

	parent, _ := path.GetParentPath()
	if err := g.fs.MkdirAll(g.osPath(parent), 0o755); err != nil {
		return NoteEntryData{}, err
	}

	osPath := g.osPath(path)
	if err := g.writer.WriteWithDefaults(osPath, strings.NewReader(text)); err != nil {
		return NoteEntryData{}, err
	}

	return g.Stat(path)
}

// DeleteNote removes a single note file.
func (g *Gateway) DeleteNote(path vaultpath.VaultPath) error {
	if !path.IsNote() {
		return ErrNotANote
	}

	err := g.fs.Remove(g.osPath(path))
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}

	return err
}

// DeleteDirectory recursively removes a directory.
func (g *Gateway) DeleteDirectory(path vaultpath.VaultPath) error {
	return g.fs.RemoveAll(g.osPath(path))
}

// RenameNote renames a note, creating the destination's missing parent
// directories first.
func (g *Gateway) RenameNote(from, to vaultpath.VaultPath) error {
	if !from.IsNote() || !to.IsNote() {
		return ErrNotANote
	}

	return g.rename(from, to)
}

// RenameDirectory renames a directory, creating the destination's missing
// parent directories first.
func (g *Gateway) RenameDirectory(from, to vaultpath.VaultPath) error {
	return g.rename(from, to)
}

func (g *Gateway) rename(from, to vaultpath.VaultPath) error {
	parent, _ := to.GetParentPath()
	if err := g.fs.MkdirAll(g.osPath(parent), 0o755); err != nil {
		return err
	}

	return g.fs.Rename(g.osPath(from), g.osPath(to))
}

// Stat returns the size and modification time (seconds since epoch,
// falling back to 0 if unavailable) of the entry at path.
func (g *Gateway) Stat(path vaultpath.VaultPath) (NoteEntryData, error) {
	info, err := g.fs.Stat(g.osPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return NoteEntryData{}, ErrPathNotFound
		}

		return NoteEntryData{}, err
	}

	modSecs := int64(0)
	if mt := info.ModTime(); !mt.IsZero() {
		modSecs = mt.Unix()
	}

	return NoteEntryData{
		Path:         path,
		SizeBytes:    info.Size(),
		ModifiedSecs: modSecs,
	}, nil
}

// Exists reports whether path refers to an existing filesystem entry.
func (g *Gateway) Exists(path vaultpath.VaultPath) (bool, error) {
	return g.fs.Exists(g.osPath(path))
}

// HashText computes a fast, non-cryptographic, stable fingerprint of text
// using 64-bit FNV-1a. Equal bytes always hash equal; collisions are
// acceptably rare for change detection.
func HashText(text string) uint64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, text)

	return h.Sum64()
}
