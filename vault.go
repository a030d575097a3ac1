// Package vaultcore implements the note vault engine: a filesystem of
// Markdown notes kept in sync with a SQLite full-text index. [Vault] is
// the library surface: construct one with [Open], then call its methods.
// No CLI, no environment variables, no process-wide state is required by
// this package itself; cmd/vaultctl wires an optional one.
package vaultcore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/calvinalkan/vaultcore/internal/reconcile"
	"github.com/calvinalkan/vaultcore/internal/vaulterr"
	vfs "github.com/calvinalkan/vaultcore/pkg/fs"
	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
	"github.com/calvinalkan/vaultcore/pkg/index"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// indexFileName is the on-disk index file, relative to the vault root.
const indexFileName = "notes.sqlite"

// Vault is the concrete engine: a filesystem gateway plus an index store,
// kept consistent through the reconciler.
type Vault struct {
	root   string
	dbPath string
	gw     *fsgateway.Gateway
	store  *index.Store
	log    zerolog.Logger
}

// Option configures [Open].
type Option func(*Vault)

// WithLogger attaches logger to the Vault. Without it the Vault uses a
// disabled logger, so the library stays silent unless an embedder opts in.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Vault) { v.log = logger }
}

// Open constructs a Vault rooted at root. It does not validate or build
// the index; call [Vault.InitAndValidate] for that.
func Open(root string, opts ...Option) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create vault root: %w", err)
	}

	dbPath := filepath.Join(abs, indexFileName)

	store, err := index.Open(context.Background(), dbPath)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		root:   abs,
		dbPath: dbPath,
		gw:     fsgateway.New(vfs.NewReal(), abs),
		store:  store,
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Close releases the underlying index connection.
func (v *Vault) Close() error {
	return v.store.Close()
}

// IndexReport summarizes an [Vault.InitAndValidate] pass.
type IndexReport struct {
	Start    time.Time
	Duration time.Duration
}

// InitAndValidate dispatches by the index's schema-check status: Ready
// reconciles the root cheaply (None validation); Outdated recreates the
// schema and fully reconciles; NotValid deletes and recreates the DB
// file; FileNotFound recreates it.
func (v *Vault) InitAndValidate(ctx context.Context) (IndexReport, error) {
	start := time.Now()

	status, err := v.checkDBWithFileState(ctx)
	if err != nil {
		return IndexReport{}, vaulterr.WrapDB(err)
	}

	var mode reconcile.ValidationMode

	switch status {
	case index.StatusReady:
		mode = reconcile.ValidationNone
	case index.StatusOutdated:
		if err := v.store.Init(ctx); err != nil {
			return IndexReport{}, vaulterr.WrapDB(err)
		}

		mode = reconcile.ValidationFull
	case index.StatusNotValid, index.StatusFileNotFound:
		if err := v.recreateDBFile(ctx); err != nil {
			return IndexReport{}, vaulterr.WrapDB(err)
		}

		mode = reconcile.ValidationFull
	}

	if err := v.indexRoot(ctx, mode); err != nil {
		return IndexReport{}, err
	}

	return IndexReport{Start: start, Duration: time.Since(start)}, nil
}

// checkDBWithFileState folds the "file doesn't even exist yet" case (which
// [index.Store.CheckDB] alone can't observe, since opening the store
// already materializes an empty SQLite file) into [index.StatusFileNotFound].
func (v *Vault) checkDBWithFileState(ctx context.Context) (index.CheckStatus, error) {
	info, statErr := os.Stat(v.dbPath)
	if statErr != nil || info.Size() == 0 {
		return index.StatusFileNotFound, nil
	}

	return v.store.CheckDB(ctx)
}

func (v *Vault) recreateDBFile(ctx context.Context) error {
	if err := v.store.Close(); err != nil {
		v.log.Warn().Err(err).Msg("closing index before recreation")
	}

	if err := os.Remove(v.dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove index file: %w", err)
	}

	store, err := index.Open(ctx, v.dbPath)
	if err != nil {
		return err
	}

	v.store = store

	return v.store.Init(ctx)
}

// ForceRebuild unconditionally deletes the index file and reindexes.
func (v *Vault) ForceRebuild(ctx context.Context) error {
	if err := v.recreateDBFile(ctx); err != nil {
		return vaulterr.WrapDB(err)
	}

	return v.indexRoot(ctx, reconcile.ValidationFull)
}

// RecreateIndex drops the tables and reindexes with full validation.
func (v *Vault) RecreateIndex(ctx context.Context) error {
	if err := v.store.Init(ctx); err != nil {
		return vaulterr.WrapDB(err)
	}

	return v.indexRoot(ctx, reconcile.ValidationFull)
}

// IndexNotes reindexes the root at the chosen validation mode.
func (v *Vault) IndexNotes(ctx context.Context, mode reconcile.ValidationMode) error {
	return v.indexRoot(ctx, mode)
}

func (v *Vault) indexRoot(ctx context.Context, mode reconcile.ValidationMode) error {
	for range v.BrowseVault(ctx, vaultpath.Root(), BrowseOptions{Recursive: true, Validation: mode}) {
		// Draining alone applies the reconciled batch (see BrowseVault);
		// callers that want to observe results use the channel directly.
	}

	return nil
}

// BrowseOptions configures [Vault.BrowseVault].
type BrowseOptions struct {
	Recursive  bool
	Validation reconcile.ValidationMode
}

// BrowseVault streams [reconcile.SearchResult]s for root, then applies the
// reconciled insert/update/delete batch in a single transaction once the
// walk completes. The returned channel is closed once streaming and the
// batch application are both done.
func (v *Vault) BrowseVault(ctx context.Context, root vaultpath.VaultPath, opts BrowseOptions) <-chan reconcile.SearchResult {
	out := make(chan reconcile.SearchResult)

	go func() {
		defer close(out)

		snapshot, err := v.cachedSnapshot(ctx, root, opts.Recursive)
		if err != nil {
			v.log.Error().Err(err).Msg("load cached snapshot")
			return
		}

		r := reconcile.New(snapshot)

		for entry := range v.gw.Walk(root, opts.Recursive) {
			res, visitErr := r.Visit(entry, opts.Validation, v.gw.Load)
			if visitErr != nil {
				v.log.Warn().Err(visitErr).Str("path", entry.Path.String()).Msg("skipping entry")
				continue
			}

			out <- res
		}

		if err := v.applyBatch(ctx, r.Drain()); err != nil {
			v.log.Error().Err(err).Msg("apply reconciled batch")
		}
	}()

	return out
}

func (v *Vault) cachedSnapshot(ctx context.Context, root vaultpath.VaultPath, recursive bool) (map[string]reconcile.CachedNote, error) {
	rows, err := v.store.GetNotes(ctx, root, recursive)
	if err != nil {
		return nil, err
	}

	sections, err := v.store.GetNotesSections(ctx, root, recursive)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]reconcile.CachedNote, len(rows))

	for _, row := range rows {
		chunks := sections[row.Path]

		content := extractedFromRow(row, chunks)
		snapshot[row.Path] = reconcile.CachedNote{
			Entry: fsgateway.NoteEntryData{
				Path:         vaultpath.New(row.Path),
				SizeBytes:    row.Size,
				ModifiedSecs: row.Modified,
			},
			Content: content,
		}
	}

	return snapshot, nil
}

// applyBatch commits inserts, deletes, then updates, in that fixed order,
// in a single transaction via [index.Store.ApplyBatch], so a concurrent
// reader never observes a partially-applied reconciliation.
func (v *Vault) applyBatch(ctx context.Context, batch reconcile.Batch) error {
	adds := make([]index.BatchNote, 0, len(batch.ToAdd))
	for _, p := range batch.ToAdd {
		content := extractContent(p.Text)
		adds = append(adds, index.BatchNote{
			Entry:  toEntry(p),
			Title:  content.Title,
			Hash:   content.Hash,
			Chunks: toChunks(content),
		})
	}

	updates := make([]index.BatchNote, 0, len(batch.ToModify))
	for _, p := range batch.ToModify {
		content := extractContent(p.Text)
		updates = append(updates, index.BatchNote{
			Entry:  toEntry(p),
			Title:  content.Title,
			Hash:   content.Hash,
			Chunks: toChunks(content),
		})
	}

	return v.store.ApplyBatch(ctx, adds, updates, batch.ToDelete)
}
