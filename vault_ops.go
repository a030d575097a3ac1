package vaultcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calvinalkan/vaultcore/internal/vaulterr"
	"github.com/calvinalkan/vaultcore/pkg/extractor"
	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
	"github.com/calvinalkan/vaultcore/pkg/index"
	"github.com/calvinalkan/vaultcore/pkg/query"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// journalDir is the fixed directory journal entries live under.
var journalDir = vaultpath.New("/journal")

// journalDateLayout is the basename format for a journal entry, without
// its ".md" extension.
const journalDateLayout = "2006-01-02"

// NoteDetails is the metadata half of a loaded or created note.
type NoteDetails struct {
	Path         vaultpath.VaultPath
	Title        string
	SizeBytes    int64
	ModifiedSecs int64
}

// LoadOrCreateNote loads path, creating it with defaultText if missing.
func (v *Vault) LoadOrCreateNote(ctx context.Context, path vaultpath.VaultPath, defaultText string) (NoteDetails, string, error) {
	text, err := v.gw.Load(path)
	if err != nil {
		if errors.Is(err, fsgateway.ErrPathNotFound) {
			details, createErr := v.SaveNote(ctx, path, defaultText)
			return details, defaultText, createErr
		}

		return NoteDetails{}, "", vaulterr.WrapFS(err)
	}

	entry, err := v.gw.Stat(path)
	if err != nil {
		return NoteDetails{}, "", vaulterr.WrapFS(err)
	}

	content := extractContent(text)

	return detailsFromEntryAndContent(entry, content), text, nil
}

// SaveNote writes text through to the filesystem first, then upserts the
// index row.
func (v *Vault) SaveNote(ctx context.Context, path vaultpath.VaultPath, text string) (NoteDetails, error) {
	entry, err := v.gw.Save(path, text)
	if err != nil {
		return NoteDetails{}, vaulterr.WrapFS(err)
	}

	content := extractContent(text)
	indexEntry := entryFromGateway(entry)

	exists, err := v.noteExistsInIndex(ctx, path)
	if err != nil {
		return NoteDetails{}, vaulterr.WrapDB(err)
	}

	if exists {
		err = v.store.UpdateNote(ctx, indexEntry, content.Title, content.Hash, toChunks(content))
	} else {
		err = v.store.InsertNote(ctx, indexEntry, content.Title, content.Hash, toChunks(content))
	}

	if err != nil {
		return NoteDetails{}, vaulterr.WrapDB(err)
	}

	return detailsFromEntryAndContent(entry, content), nil
}

// CreateNote fails with [vaulterr.VaultNoteExists] if path already exists.
func (v *Vault) CreateNote(ctx context.Context, path vaultpath.VaultPath, text string) (NoteDetails, error) {
	exists, err := v.gw.Exists(path)
	if err != nil {
		return NoteDetails{}, vaulterr.WrapFS(err)
	}

	if exists {
		return NoteDetails{}, vaulterr.NewVaultError(vaulterr.VaultNoteExists, path.String())
	}

	return v.SaveNote(ctx, path, text)
}

// DeleteNote removes path's DB row first (inside a transaction), then the
// file. A path that is not a note is rejected with [vaulterr.FSInvalidPath].
func (v *Vault) DeleteNote(ctx context.Context, path vaultpath.VaultPath) error {
	if !path.IsNote() {
		return vaulterr.WrapFS(vaulterr.NewFSError(vaulterr.FSInvalidPath, path.String(), nil))
	}

	if err := v.store.DeleteNote(ctx, path); err != nil {
		return vaulterr.WrapDB(err)
	}

	if err := v.gw.DeleteNote(path); err != nil {
		return vaulterr.WrapFS(err)
	}

	return nil
}

// DeleteDirectory cascades the delete in the DB first, then on disk. A
// note path is rejected with [vaulterr.FSInvalidPath].
func (v *Vault) DeleteDirectory(ctx context.Context, path vaultpath.VaultPath) error {
	if path.IsNote() {
		return vaulterr.WrapFS(vaulterr.NewFSError(vaulterr.FSInvalidPath, path.String(), nil))
	}

	if err := v.store.DeleteDirectory(ctx, path); err != nil {
		return vaulterr.WrapDB(err)
	}

	if err := v.gw.DeleteDirectory(path); err != nil {
		return vaulterr.WrapFS(err)
	}

	return nil
}

// RenameNote refuses if to already exists; otherwise renames on disk, then
// in the index.
func (v *Vault) RenameNote(ctx context.Context, from, to vaultpath.VaultPath) error {
	exists, err := v.gw.Exists(to)
	if err != nil {
		return vaulterr.WrapFS(err)
	}

	if exists {
		return vaulterr.NewVaultError(vaulterr.VaultNoteExists, to.String())
	}

	if err := v.gw.RenameNote(from, to); err != nil {
		return vaulterr.WrapFS(err)
	}

	if err := v.store.RenameNote(ctx, from, to); err != nil {
		return vaulterr.WrapDB(err)
	}

	return nil
}

// RenameDirectory refuses if to already exists; otherwise renames on disk,
// then in the index.
func (v *Vault) RenameDirectory(ctx context.Context, from, to vaultpath.VaultPath) error {
	exists, err := v.gw.Exists(to)
	if err != nil {
		return vaulterr.WrapFS(err)
	}

	if exists {
		return vaulterr.NewVaultError(vaulterr.VaultDirectoryExists, to.String())
	}

	if err := v.gw.RenameDirectory(from, to); err != nil {
		return vaulterr.WrapFS(err)
	}

	if err := v.store.RenameDirectory(ctx, from, to); err != nil {
		return vaulterr.WrapDB(err)
	}

	return nil
}

// OpenOrSearch reports 0, 1, or N matches. If path is a bare filename (one
// slice, note extension, not absolute) it searches by noteName; otherwise
// it searches by exact path. It never creates anything.
func (v *Vault) OpenOrSearch(ctx context.Context, path vaultpath.VaultPath) ([]index.NoteRow, error) {
	if isBareFilename(path) {
		rows, err := v.store.GetByNoteName(ctx, path.Slices()[0].String())
		if err != nil {
			return nil, vaulterr.WrapDB(err)
		}

		return rows, nil
	}

	parent, _ := path.GetParentPath()

	rows, err := v.store.GetNotes(ctx, parent, false)
	if err != nil {
		return nil, vaulterr.WrapDB(err)
	}

	var matches []index.NoteRow

	for _, row := range rows {
		if row.Path == path.String() {
			matches = append(matches, row)
		}
	}

	return matches, nil
}

func isBareFilename(p vaultpath.VaultPath) bool {
	return !p.IsAbsolute() && p.Len() == 1 && p.IsNote()
}

// Search compiles and runs a path-query-language string against the
// full-text index.
func (v *Vault) Search(ctx context.Context, raw string) ([]query.Row, error) {
	rows, err := query.Search(ctx, v.store.DB(), raw)
	if err != nil {
		return nil, vaulterr.WrapDB(err)
	}

	return rows, nil
}

// JournalEntry computes today's date in UTC, lazy-creates
// /journal/{date}.md with initial text "# {date}\n\n" if missing, and
// returns its details and content.
func (v *Vault) JournalEntry(ctx context.Context) (NoteDetails, string, error) {
	date := time.Now().UTC().Format(journalDateLayout)
	path := journalDir.Append(vaultpath.New(date + ".md"))

	return v.LoadOrCreateNote(ctx, path, fmt.Sprintf("# %s\n\n", date))
}

// JournalDate parses path's basename as a YYYY-MM-DD date, returning ok =
// false unless path's parent is exactly /journal.
func JournalDate(path vaultpath.VaultPath) (date time.Time, ok bool) {
	parent, name := path.GetParentPath()
	if !parent.Equal(journalDir) {
		return time.Time{}, false
	}

	base := name
	if len(base) > 3 && base[len(base)-3:] == ".md" {
		base = base[:len(base)-3]
	}

	t, err := time.Parse(journalDateLayout, base)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func detailsFromEntryAndContent(entry fsgateway.NoteEntryData, content extractor.NoteContentData) NoteDetails {
	return NoteDetails{
		Path:         entry.Path,
		Title:        content.Title,
		SizeBytes:    entry.SizeBytes,
		ModifiedSecs: entry.ModifiedSecs,
	}
}

func (v *Vault) noteExistsInIndex(ctx context.Context, path vaultpath.VaultPath) (bool, error) {
	parent, _ := path.GetParentPath()

	rows, err := v.store.GetNotes(ctx, parent, false)
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if row.Path == path.String() {
			return true, nil
		}
	}

	return false, nil
}
