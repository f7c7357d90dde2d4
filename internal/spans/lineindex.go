package spans

import "sort"

// LineIndex maps byte offsets to line and column positions.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex records the start offset of every line in text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(text)}
}

// Lines returns the number of lines. Text ending in a newline has an empty
// final line.
func (x *LineIndex) Lines() int { return len(x.starts) }

// Position returns the 1-based line and 0-based byte column of off.
func (x *LineIndex) Position(off int) (line, col int) {
	if off < 0 {
		off = 0
	}
	if off > x.size {
		off = x.size
	}
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > off }) - 1
	return i + 1, off - x.starts[i]
}

// LineStart returns the offset of the first byte of the 1-based line.
func (x *LineIndex) LineStart(line int) int {
	if line < 1 {
		return 0
	}
	if line > len(x.starts) {
		return x.size
	}
	return x.starts[line-1]
}

// LineEnd returns the offset of the newline ending the 1-based line, or
// the end of the text for the last line.
func (x *LineIndex) LineEnd(line int) int {
	if line >= len(x.starts) {
		return x.size
	}
	if line < 1 {
		line = 1
	}
	return x.starts[line] - 1
}

// Offset converts a 1-based line and 0-based column back to an offset,
// clamping to the text.
func (x *LineIndex) Offset(line, col int) int {
	off := x.LineStart(line) + col
	if end := x.LineEnd(line); off > end {
		off = end
	}
	return off
}
