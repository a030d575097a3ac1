// Package vaultpath implements the canonical path key used throughout the
// vault engine: the sole type that connects the filesystem gateway, the
// content extractor, and the SQLite index.
package vaultpath

import (
	"strings"
	"unicode/utf8"
)

// disallowed holds the characters a [Name] slice may never contain; each is
// replaced with "_" during normalization.
const disallowed = `\/:*?"<>|[]^#`

// noteExt is the extension that makes a trailing Name slice a note.
const noteExt = ".md"

// sliceKind discriminates the three forms a path slice can take.
type sliceKind uint8

const (
	kindName sliceKind = iota
	kindUp
	kindCurrent
)

// Slice is one normalized path segment: either a concrete [Name], or one of
// the sentinels [Up] (i.e. "..") or [Current] (i.e. ".").
type Slice struct {
	kind sliceKind
	name string
}

// Name returns a concrete, normalized name slice.
func Name(s string) Slice { return Slice{kind: kindName, name: normalizeName(s)} }

// Up is the ".." sentinel slice.
var Up = Slice{kind: kindUp}

// Current is the "." sentinel slice.
var Current = Slice{kind: kindCurrent}

// IsName reports whether the slice is a concrete name (not a sentinel).
func (s Slice) IsName() bool { return s.kind == kindName }

// String renders the slice in display form.
func (s Slice) String() string {
	switch s.kind {
	case kindUp:
		return ".."
	case kindCurrent:
		return "."
	default:
		return s.name
	}
}

// normalizeName lowercases s, replaces disallowed characters with "_", and
// replaces a leading run of two or more dots with a single "_".
func normalizeName(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if strings.ContainsRune(disallowed, r) {
			b.WriteByte('_')
			continue
		}

		b.WriteRune(r)
	}

	out := b.String()

	dots := 0
	for dots < len(out) && out[dots] == '.' {
		dots++
	}

	if dots >= 2 {
		out = "_" + out[dots:]
	}

	return out
}

// VaultPath is the canonical, normalized, OS-independent path key.
//
// Two VaultPaths compare equal (via [VaultPath.Equal]) iff their absolute
// flag and slice sequences are equal after construction; construction is
// deterministic and idempotent.
type VaultPath struct {
	absolute bool
	slices   []Slice
}

// Root is the absolute path with no slices.
func Root() VaultPath { return VaultPath{absolute: true} }

// Empty is the relative path with no slices.
func Empty() VaultPath { return VaultPath{} }

// New splits s on "/", discards empty segments, and normalizes each
// resulting slice. It never fails; use [IsValid] beforehand to reject
// malformed input strictly.
func New(s string) VaultPath {
	absolute := strings.HasPrefix(s, "/")

	parts := strings.Split(s, "/")

	slices := make([]Slice, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		switch part {
		case ".":
			slices = append(slices, Current)
		case "..":
			slices = append(slices, Up)
		default:
			slices = append(slices, Name(part))
		}
	}

	return VaultPath{absolute: absolute, slices: slices}
}

// NotePathFrom strips any trailing "/", appends ".md" if the last segment
// doesn't already have it, then builds the path via [New].
func NotePathFrom(s string) VaultPath {
	s = strings.TrimSuffix(s, "/")
	if !strings.HasSuffix(strings.ToLower(s), noteExt) {
		s += noteExt
	}

	return New(s)
}

// IsValid reports whether s would parse with no disallowed characters in
// any slice, no ".." (or longer) dot run, and no empty "//" segment.
func IsValid(s string) bool {
	if strings.Contains(s, "//") {
		return false
	}

	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")

	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}

		dots := 0
		for dots < len(part) && part[dots] == '.' {
			dots++
		}

		if dots >= 2 {
			return false
		}

		for _, r := range part {
			if strings.ContainsRune(disallowed, r) {
				return false
			}
		}
	}

	return true
}

// InvalidPathError is returned by strict constructors when [IsValid] fails.
type InvalidPathError struct {
	Path    string
	Message string
}

func (e *InvalidPathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Message
}

// TryNew strictly constructs a VaultPath, rejecting malformed input.
func TryNew(s string) (VaultPath, error) {
	if !IsValid(s) {
		return VaultPath{}, &InvalidPathError{Path: s, Message: "contains disallowed characters, a \"..\" segment, or \"//\""}
	}

	return New(s), nil
}

// IsAbsolute reports whether the path is rooted.
func (p VaultPath) IsAbsolute() bool { return p.absolute }

// Slices returns the path's normalized slices. The returned slice must not
// be mutated by callers.
func (p VaultPath) Slices() []Slice { return p.slices }

// IsNote reports whether the last slice is a Name ending in ".md".
func (p VaultPath) IsNote() bool {
	if len(p.slices) == 0 {
		return false
	}

	last := p.slices[len(p.slices)-1]

	return last.IsName() && strings.HasSuffix(last.name, noteExt)
}

// IsRoot reports whether p is the absolute path with no slices.
func (p VaultPath) IsRoot() bool { return p.absolute && len(p.slices) == 0 }

// Equal reports whether p and other have the same absolute flag and slice
// sequence.
func (p VaultPath) Equal(other VaultPath) bool {
	if p.absolute != other.absolute || len(p.slices) != len(other.slices) {
		return false
	}

	for i := range p.slices {
		if p.slices[i] != other.slices[i] {
			return false
		}
	}

	return true
}

// Append concatenates other's slices onto p's. The absolute flag of p
// (the receiver) wins.
func (p VaultPath) Append(other VaultPath) VaultPath {
	slices := make([]Slice, 0, len(p.slices)+len(other.slices))
	slices = append(slices, p.slices...)
	slices = append(slices, other.slices...)

	return VaultPath{absolute: p.absolute, slices: slices}
}

// Flattener is invoked by [VaultPath.Flatten] whenever an ".." segment
// would climb above the root; it exists so callers can observe (e.g. log)
// the otherwise-silent no-op without the package importing a logger.
type Flattener func(path VaultPath)

// Flatten resolves Up/Current slices, producing an absolute path with only
// Name slices. Attempting to move above root is a silent no-op: the
// offending ".." is simply dropped. If onAboveRoot is non-nil, it is
// invoked once per such dropped segment.
func (p VaultPath) Flatten(onAboveRoot Flattener) VaultPath {
	out := make([]Slice, 0, len(p.slices))

	for _, s := range p.slices {
		switch s.kind {
		case kindCurrent:
			continue
		case kindUp:
			if len(out) == 0 {
				if onAboveRoot != nil {
					onAboveRoot(p)
				}

				continue
			}

			out = out[:len(out)-1]
		default:
			out = append(out, s)
		}
	}

	return VaultPath{absolute: true, slices: out}
}

// GetParentPath splits the path into its parent and the name of its last
// slice. Sentinels are returned verbatim as the name.
func (p VaultPath) GetParentPath() (VaultPath, string) {
	if len(p.slices) == 0 {
		return p, ""
	}

	last := p.slices[len(p.slices)-1]
	parent := VaultPath{absolute: p.absolute, slices: append([]Slice(nil), p.slices[:len(p.slices)-1]...)}

	return parent, last.String()
}

// GetRelativeTo returns the shortest slice sequence of Up/Name slices such
// that ref.Append(result).Flatten() equals p.Flatten().
func (p VaultPath) GetRelativeTo(ref VaultPath) VaultPath {
	self := p.Flatten(nil)
	base := ref.Flatten(nil)

	common := 0
	for common < len(self.slices) && common < len(base.slices) && self.slices[common] == base.slices[common] {
		common++
	}

	ups := len(base.slices) - common

	out := make([]Slice, 0, ups+len(self.slices)-common)
	for i := 0; i < ups; i++ {
		out = append(out, Up)
	}

	out = append(out, self.slices[common:]...)

	return VaultPath{absolute: false, slices: out}
}

// GetNameOnConflict returns a copy of p whose terminal slice carries a "_N"
// suffix, where N is the smallest non-negative integer such that exists
// reports false for the resulting path.
func (p VaultPath) GetNameOnConflict(exists func(VaultPath) bool) VaultPath {
	if len(p.slices) == 0 {
		return p
	}

	parent, name := p.GetParentPath()

	base := name
	ext := ""

	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		ext = base[dot:]
		base = base[:dot]
	}

	for n := 0; ; n++ {
		candidateName := base + "_" + itoa(n) + ext
		candidate := parent.Append(New(candidateName))

		if !exists(candidate) {
			return candidate
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	var b [20]byte

	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}

	return string(b[i:])
}

// ToOSPath joins workspaceRoot with each normalized slice using the OS's
// native separator conventions (callers pass the result to [path/filepath]
// or the filesystem gateway, both of which use OS semantics).
func (p VaultPath) ToOSPath(workspaceRoot string, sep string) string {
	parts := make([]string, 0, len(p.slices)+1)
	parts = append(parts, strings.TrimSuffix(workspaceRoot, sep))

	for _, s := range p.slices {
		parts = append(parts, s.String())
	}

	return strings.Join(parts, sep)
}

// String renders the display form: "/"-separated, with a leading "/" if
// absolute. Round-tripping through [New] is lossless for any already
// canonical path.
func (p VaultPath) String() string {
	var b strings.Builder

	if p.absolute {
		b.WriteByte('/')
	}

	for i, s := range p.slices {
		if i > 0 {
			b.WriteByte('/')
		}

		b.WriteString(s.String())
	}

	return b.String()
}

// Len returns the number of slices, a cheap proxy for path depth.
func (p VaultPath) Len() int { return len(p.slices) }

// RuneLen is a helper used by callers that need char (not byte) counts,
// e.g. title truncation.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }
