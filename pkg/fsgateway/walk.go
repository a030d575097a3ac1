package fsgateway

import (
	"strings"
	"sync"

	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

// EntryKind discriminates the three kinds of entry a walk can visit.
type EntryKind uint8

const (
	// EntryDirectory is a directory entry (which the caller may recurse into).
	EntryDirectory EntryKind = iota
	// EntryNote is a ".md" regular file.
	EntryNote
	// EntryAttachment is any other non-hidden regular file.
	EntryAttachment
)

// WalkEntry is a single filesystem entry discovered by [Gateway.Walk].
type WalkEntry struct {
	Kind EntryKind
	Path vaultpath.VaultPath
	Stat NoteEntryData // zero for directories
	Err  error         // set if stat-ing or reading this entry failed
}

// walkWorkers bounds the number of goroutines stat-ing files concurrently.
const walkWorkers = 8

// Walk performs a (optionally recursive) directory walk rooted at path,
// skipping any entry whose name starts with ".", and streams [WalkEntry]
// values on the returned channel. The channel is closed once the walk
// completes; the caller must drain it to avoid leaking the walker's
// goroutines.
func (g *Gateway) Walk(root vaultpath.VaultPath, recursive bool) <-chan WalkEntry {
	out := make(chan WalkEntry)

	go func() {
		defer close(out)

		var wg sync.WaitGroup

		sem := make(chan struct{}, walkWorkers)

		g.walkDir(root, recursive, out, &wg, sem)

		wg.Wait()
	}()

	return out
}

func (g *Gateway) walkDir(dir vaultpath.VaultPath, recursive bool, out chan<- WalkEntry, wg *sync.WaitGroup, sem chan struct{}) {
	entries, err := g.fs.ReadDir(g.osPath(dir))
	if err != nil {
		out <- WalkEntry{Kind: EntryDirectory, Path: dir, Err: err}
		return
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		childPath := dir.Append(vaultpath.New(entry.Name()))

		if entry.IsDir() {
			out <- WalkEntry{Kind: EntryDirectory, Path: childPath}

			if recursive {
				g.walkDir(childPath, recursive, out, wg, sem)
			}

			continue
		}

		wg.Add(1)

		sem <- struct{}{}

		go func(p vaultpath.VaultPath) {
			defer wg.Done()
			defer func() { <-sem }()

			g.statAndEmit(p, out)
		}(childPath)
	}
}

func (g *Gateway) statAndEmit(p vaultpath.VaultPath, out chan<- WalkEntry) {
	entry, err := g.Stat(p)

	kind := EntryAttachment
	if p.IsNote() {
		kind = EntryNote
	}

	if err != nil {
		out <- WalkEntry{Kind: kind, Path: p, Err: err}
		return
	}

	out <- WalkEntry{Kind: kind, Path: p, Stat: entry}
}
