package vaultcore

import (
	"strconv"

	"github.com/calvinalkan/vaultcore/internal/reconcile"
	"github.com/calvinalkan/vaultcore/pkg/extractor"
	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
	"github.com/calvinalkan/vaultcore/pkg/index"
)

// extractContent is a thin named wrapper around [extractor.Extract], kept
// so call sites in this package read as vault-domain operations.
func extractContent(text string) extractor.NoteContentData {
	return extractor.Extract(text)
}

func toEntry(p reconcile.PendingNote) index.NoteEntry {
	return index.NoteEntry{
		Path:      p.Entry.Path,
		SizeBytes: p.Entry.SizeBytes,
		Modified:  p.Entry.ModifiedSecs,
	}
}

func toChunks(content extractor.NoteContentData) []index.ContentChunk {
	out := make([]index.ContentChunk, len(content.ContentChunks))

	for i, c := range content.ContentChunks {
		out[i] = index.ContentChunk{Breadcrumb: c.Breadcrumb, Text: c.Text}
	}

	return out
}

// extractedFromRow reconstructs a [extractor.NoteContentData] from a
// cached index row, so the reconciler can compare against it without
// reparsing on the None/Fast validation paths.
func extractedFromRow(row index.NoteRow, chunks []index.ContentChunk) extractor.NoteContentData {
	out := extractor.NoteContentData{
		Title:         row.Title,
		Hash:          parseHash(row.Hash),
		ContentChunks: make([]extractor.ContentChunk, len(chunks)),
	}

	for i, c := range chunks {
		out.ContentChunks[i] = extractor.ContentChunk{Breadcrumb: c.Breadcrumb, Text: c.Text}
	}

	return out
}

func parseHash(s string) uint64 {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}

	return h
}

// entryFromGateway adapts a gateway stat result into the index layer's
// entry type.
func entryFromGateway(e fsgateway.NoteEntryData) index.NoteEntry {
	return index.NoteEntry{Path: e.Path, SizeBytes: e.SizeBytes, Modified: e.ModifiedSecs}
}
