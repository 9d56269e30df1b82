// Package document models source buffers and the per-session overlay of
// editor-owned content. Buffers map byte offsets to line/column positions and
// back; the mapping is exact in both directions.
package document

import (
	"sort"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Buffer is one addressable unit of source text. Content is treated as
// read-mostly: a query works against the content the buffer had when the
// query started.
type Buffer struct {
	Path    string
	content []byte
	lines   []int // byte offset of each line start, always starting with 0
}

func NewBuffer(path string, content []byte) *Buffer {
	b := &Buffer{Path: path, content: content}
	b.lines = append(b.lines, 0)
	for i, c := range content {
		if c == '\n' {
			b.lines = append(b.lines, i+1)
		}
	}
	return b
}

func (b *Buffer) Text() []byte { return b.content }

func (b *Buffer) URI() uri.URI { return uri.File(b.Path) }

// OffsetToPosition converts a byte offset to a zero-based line/character
// position. Offsets beyond the buffer clamp to the last position.
func (b *Buffer) OffsetToPosition(off int) protocol.Position {
	if off < 0 {
		off = 0
	}
	if off > len(b.content) {
		off = len(b.content)
	}
	line := sort.Search(len(b.lines), func(i int) bool { return b.lines[i] > off }) - 1
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(off - b.lines[line]),
	}
}

// PositionToOffset converts a zero-based position back to a byte offset.
// Positions past the end of a line clamp to the line end.
func (b *Buffer) PositionToOffset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(b.lines) {
		return len(b.content)
	}
	off := b.lines[line] + int(pos.Character)
	lineEnd := len(b.content)
	if line+1 < len(b.lines) {
		lineEnd = b.lines[line+1] - 1
	}
	if off > lineEnd {
		off = lineEnd
	}
	return off
}

// Range converts an interval [start, end) of byte offsets to a position
// range.
func (b *Buffer) Range(start, end int) protocol.Range {
	return protocol.Range{
		Start: b.OffsetToPosition(start),
		End:   b.OffsetToPosition(end),
	}
}
