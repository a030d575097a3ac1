// Package reconcile implements the vault's parallel reconciler: it
// classifies entries streamed off a directory walk against a cached index
// snapshot and decides what needs to be inserted, updated, or deleted.
package reconcile

import (
	"sync"

	"github.com/calvinalkan/vaultcore/pkg/extractor"
	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// ValidationMode controls how aggressively the reconciler re-parses a note
// it already has a cached row for.
type ValidationMode uint8

const (
	// ValidationNone trusts the cache unconditionally.
	ValidationNone ValidationMode = iota
	// ValidationFast compares (size, modified) and only reparses on a
	// mismatch.
	ValidationFast
	// ValidationFull always reparses and compares content hashes.
	ValidationFull
)

// CachedNote is one entry of the snapshot the reconciler seeds its
// "pending deletion" set from.
type CachedNote struct {
	Entry   fsgateway.NoteEntryData
	Content extractor.NoteContentData
}

// PendingNote is a note queued for insertion or update, carrying the text
// its content data was (or will be) parsed from.
type PendingNote struct {
	Entry fsgateway.NoteEntryData
	Text  string
}

// ResultKind discriminates the three event shapes streamed by [Reconciler.Visit].
type ResultKind uint8

const (
	ResultDirectory ResultKind = iota
	ResultNote
	ResultAttachment
)

// SearchResult is one event produced by visiting a single walk entry.
type SearchResult struct {
	Kind    ResultKind
	Path    vaultpath.VaultPath
	Content extractor.NoteContentData // zero for Directory/Attachment
}

// Reconciler holds the shared, concurrently-written state a walk's workers
// report into. Each field is guarded by its own mutex, held only long
// enough to push or remove a single entry; no two are ever held at once.
type Reconciler struct {
	deleteMu sync.Mutex
	toDelete map[string]CachedNote

	addMu sync.Mutex
	toAdd []PendingNote

	modifyMu sync.Mutex
	toModify []PendingNote

	dirsMu    sync.Mutex
	dirsFound []vaultpath.VaultPath
}

// New seeds a Reconciler's deletion candidates from a cached snapshot;
// every path visited during the walk is removed from this set, so whatever
// remains afterward was deleted on disk.
func New(snapshot map[string]CachedNote) *Reconciler {
	seed := make(map[string]CachedNote, len(snapshot))
	for k, v := range snapshot {
		seed[k] = v
	}

	return &Reconciler{toDelete: seed}
}

// LoadText reads a note's text for (re)parsing; callers pass
// [fsgateway.Gateway.Load] in production and a stub in tests.
type LoadText func(vaultpath.VaultPath) (string, error)

// Visit classifies one walk entry, mutates the shared state as needed, and
// returns the event to stream to the caller. A non-nil error means the
// entry was skipped (e.g. a non-UTF-8 note); the caller logs it and
// continues, so one bad entry never aborts the walk.
func (r *Reconciler) Visit(entry fsgateway.WalkEntry, mode ValidationMode, load LoadText) (SearchResult, error) {
	if entry.Err != nil {
		return SearchResult{}, entry.Err
	}

	switch entry.Kind {
	case fsgateway.EntryDirectory:
		r.recordDirectory(entry.Path)
		return SearchResult{Kind: ResultDirectory, Path: entry.Path}, nil
	case fsgateway.EntryAttachment:
		return SearchResult{Kind: ResultAttachment, Path: entry.Path}, nil
	case fsgateway.EntryNote:
		return r.visitNote(entry, mode, load)
	default:
		return SearchResult{Kind: ResultAttachment, Path: entry.Path}, nil
	}
}

func (r *Reconciler) visitNote(entry fsgateway.WalkEntry, mode ValidationMode, load LoadText) (SearchResult, error) {
	cached, existed := r.takeCached(entry.Path)

	if !existed {
		text, err := load(entry.Path)
		if err != nil {
			return SearchResult{}, err
		}

		content := extractor.Extract(text)
		r.pushAdd(PendingNote{Entry: entry.Stat, Text: text})

		return SearchResult{Kind: ResultNote, Path: entry.Path, Content: content}, nil
	}

	switch mode {
	case ValidationNone:
		return SearchResult{Kind: ResultNote, Path: entry.Path, Content: cached.Content}, nil

	case ValidationFast:
		if cached.Entry.SizeBytes == entry.Stat.SizeBytes && cached.Entry.ModifiedSecs == entry.Stat.ModifiedSecs {
			return SearchResult{Kind: ResultNote, Path: entry.Path, Content: cached.Content}, nil
		}

		text, err := load(entry.Path)
		if err != nil {
			return SearchResult{}, err
		}

		content := extractor.Extract(text)
		r.pushModify(PendingNote{Entry: entry.Stat, Text: text})

		return SearchResult{Kind: ResultNote, Path: entry.Path, Content: content}, nil

	default: // ValidationFull
		text, err := load(entry.Path)
		if err != nil {
			return SearchResult{}, err
		}

		content := extractor.Extract(text)
		if content.Hash != cached.Content.Hash {
			r.pushModify(PendingNote{Entry: entry.Stat, Text: text})
		}

		return SearchResult{Kind: ResultNote, Path: entry.Path, Content: content}, nil
	}
}

func (r *Reconciler) takeCached(path vaultpath.VaultPath) (CachedNote, bool) {
	key := path.String()

	r.deleteMu.Lock()
	defer r.deleteMu.Unlock()

	cached, ok := r.toDelete[key]
	if ok {
		delete(r.toDelete, key)
	}

	return cached, ok
}

func (r *Reconciler) pushAdd(p PendingNote) {
	r.addMu.Lock()
	defer r.addMu.Unlock()

	r.toAdd = append(r.toAdd, p)
}

func (r *Reconciler) pushModify(p PendingNote) {
	r.modifyMu.Lock()
	defer r.modifyMu.Unlock()

	r.toModify = append(r.toModify, p)
}

func (r *Reconciler) recordDirectory(p vaultpath.VaultPath) {
	r.dirsMu.Lock()
	defer r.dirsMu.Unlock()

	r.dirsFound = append(r.dirsFound, p)
}

// Batch is the final, drained state after a walk completes: everything
// that must be applied to the index in one transaction. Any path still in
// the deletion set after the walk was removed on disk.
type Batch struct {
	ToAdd     []PendingNote
	ToModify  []PendingNote
	ToDelete  []vaultpath.VaultPath
	DirsFound []vaultpath.VaultPath
}

// Drain returns the accumulated batch. Call only after the walk's channel
// has been fully consumed; Drain does not itself wait for anything.
func (r *Reconciler) Drain() Batch {
	r.deleteMu.Lock()
	toDelete := make([]vaultpath.VaultPath, 0, len(r.toDelete))

	for k := range r.toDelete {
		toDelete = append(toDelete, vaultpath.New(k))
	}

	r.deleteMu.Unlock()

	r.addMu.Lock()
	toAdd := append([]PendingNote(nil), r.toAdd...)
	r.addMu.Unlock()

	r.modifyMu.Lock()
	toModify := append([]PendingNote(nil), r.toModify...)
	r.modifyMu.Unlock()

	r.dirsMu.Lock()
	dirs := append([]vaultpath.VaultPath(nil), r.dirsFound...)
	r.dirsMu.Unlock()

	return Batch{ToAdd: toAdd, ToModify: toModify, ToDelete: toDelete, DirsFound: dirs}
}
