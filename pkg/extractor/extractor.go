// Package extractor implements the vault's content extractor: it parses a
// note's raw Markdown text into a title, a stable change-detection hash,
// and an ordered list of hierarchical [ContentChunk] values.
//
// The extraction walks goldmark's AST in document order, treating each
// heading as a single atomic event and flattening every other block into
// the current chunk's text, which yields the same breadcrumb push/pop
// behavior a streaming event parser would without hand-rolling one.
package extractor

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/calvinalkan/vaultcore/pkg/fsgateway"
)

// maxTitleRunes is the title truncation limit, counted in runes, not
// bytes.
const maxTitleRunes = 40

// frontMatterBreadcrumb is the sentinel breadcrumb for the trailing
// frontmatter chunk.
const frontMatterBreadcrumb = "FrontMatter"

var parser = goldmark.New()

// ContentChunk is body text between two headings (or document boundaries),
// tagged with the stack of heading titles leading to it.
type ContentChunk struct {
	Breadcrumb []string
	Text       string
}

// NoteContentData is the output of extracting a note's content.
type NoteContentData struct {
	// Title is the first non-empty line produced by any event (heading or
	// body text), truncated to maxTitleRunes. Empty means no title.
	Title string

	// Hash is a stable, non-cryptographic fingerprint of the raw input
	// text, computed before frontmatter peeling.
	Hash uint64

	// ContentChunks is in document order; a trailing chunk with
	// breadcrumb ["FrontMatter"] carries frontmatter text when present.
	ContentChunks []ContentChunk
}

// Extract parses raw note text into [NoteContentData].
//
// The parser is total: malformed or unexpected input never panics, it
// simply produces degenerate chunks.
func Extract(raw string) NoteContentData {
	frontmatter, body := peelFrontmatter(raw)

	b := &chunkBuilder{}

	source := []byte(body)
	doc := parser.Parser().Parse(gmtext.NewReader(source))

	walkBlock(doc, source, b)
	b.closeChunk()

	if frontmatter != "" {
		b.chunks = append(b.chunks, ContentChunk{
			Breadcrumb: []string{frontMatterBreadcrumb},
			Text:       removeDiacritics(frontmatter),
		})
	}

	return NoteContentData{
		Title:         b.title,
		Hash:          fsgateway.HashText(raw),
		ContentChunks: b.chunks,
	}
}

// peelFrontmatter splits off frontmatter: if the first line is exactly
// "---" or "+++", scan for the matching closing fence on a line by itself;
// text between fences is frontmatter, everything after is body. If no
// closing fence is found, the whole text is body and frontmatter is
// empty.
func peelFrontmatter(raw string) (frontmatter, body string) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 {
		return "", raw
	}

	fence := lines[0]
	if fence != "---" && fence != "+++" {
		return "", raw
	}

	for i := 1; i < len(lines); i++ {
		if lines[i] == fence {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}

	return "", raw
}

// breadcrumbEntry is one heading currently open on the breadcrumb stack.
type breadcrumbEntry struct {
	level int
	text  string
}

// chunkBuilder accumulates chunks while walking the document.
type chunkBuilder struct {
	stack    []breadcrumbEntry
	content  []string
	chunks   []ContentChunk
	title    string
	titleSet bool
}

// addText appends body text to the current chunk's content buffer. Block
// boundaries become a single "\n" break when b.content is joined at
// closeChunk time.
func (b *chunkBuilder) addText(s string) {
	if s == "" {
		return
	}

	b.observeTitle(s)
	b.content = append(b.content, s)
}

// onHeading closes the current chunk, pops stack entries with level >=
// the incoming level, then pushes the new heading. A level jump upward in
// nesting (e.g. "#" then "###" with no intervening "##") pops nothing,
// since no existing entry has level >= 3, producing a mixed-level
// breadcrumb of depth 2.
func (b *chunkBuilder) onHeading(level int, text string) {
	b.closeChunk()

	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}

	b.stack = append(b.stack, breadcrumbEntry{level: level, text: text})
	b.observeTitle(text)
}

// observeTitle captures the first non-empty line seen across the whole
// walk (heading or body text) as the note's title.
func (b *chunkBuilder) observeTitle(s string) {
	if b.titleSet {
		return
	}

	line := firstLine(s)
	if line == "" {
		return
	}

	b.title = truncateRunes(line, maxTitleRunes)
	b.titleSet = true
}

// closeChunk emits a chunk if the breadcrumb or content buffer is
// non-empty.
func (b *chunkBuilder) closeChunk() {
	if len(b.stack) == 0 && len(b.content) == 0 {
		return
	}

	breadcrumb := make([]string, len(b.stack))
	for i, e := range b.stack {
		breadcrumb[i] = e.text
	}

	b.chunks = append(b.chunks, ContentChunk{
		Breadcrumb: breadcrumb,
		Text:       removeDiacritics(strings.Join(b.content, "\n")),
	})

	b.content = nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}

// walkBlock visits n's block-level children in document order. Headings
// are atomic events (their text is rendered once, as a unit, and their
// children are never walked as separate blocks); containers (lists, list
// items, blockquotes) are recursed into so that, in particular, a list at
// the very top of a document collapses into a single root chunk whose
// breadcrumb is empty, with its first item's text becoming the title.
func walkBlock(n ast.Node, source []byte, b *chunkBuilder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Heading:
			b.onHeading(v.Level, renderInline(v, source))
		case *ast.Paragraph, *ast.TextBlock:
			b.addText(renderInline(c, source))
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			b.addText(blockLinesText(c, source))
		case *ast.ThematicBreak:
			// rules emit no text.
		default:
			walkBlock(c, source, b)
		}
	}
}

// linesNode is satisfied by the block node kinds whose content is raw
// source lines rather than parsed inline children.
type linesNode interface {
	Lines() *gmtext.Segments
}

func blockLinesText(n ast.Node, source []byte) string {
	ln, ok := n.(linesNode)
	if !ok {
		return ""
	}

	lines := ln.Lines()

	var buf strings.Builder

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}

	return strings.TrimRight(buf.String(), "\n")
}

// renderInline concatenates n's inline children: text, code spans,
// autolinks, and raw HTML contribute their literal text; emphasis/strong/
// link/image children are concatenated without extra breaks; soft/hard
// breaks emit no text.
func renderInline(n ast.Node, source []byte) string {
	var buf strings.Builder

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		buf.WriteString(renderInlineNode(c, source))
	}

	return buf.String()
}

func renderInlineNode(n ast.Node, source []byte) string {
	switch v := n.(type) {
	case *ast.Text:
		return string(v.Segment.Value(source))
	case *ast.String:
		return string(v.Value)
	case *ast.AutoLink:
		return string(v.URL(source))
	case *ast.RawHTML:
		var buf strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			buf.Write(v.Segments.At(i).Value(source))
		}

		return buf.String()
	case *ast.Link:
		return joinWithTitle(string(v.Title), renderInline(v, source))
	case *ast.Image:
		return joinWithTitle(string(v.Title), renderInline(v, source))
	default:
		// Emphasis/strong and any other inline container: concatenate
		// children without inserting extra breaks.
		if n.Type() == ast.TypeInline {
			return renderInline(n, source)
		}

		return ""
	}
}

// joinWithTitle implements the link/image text rule: (title present ?
// [title] : []) ++ [inner_text], joined by a single space.
func joinWithTitle(title, inner string) string {
	if title == "" {
		return inner
	}

	return title + " " + inner
}
