package spans

import "context"

// ResyncMargin is the distance, in bytes, that an old span boundary must
// keep from an edit before it is trusted as a resynchronisation point.
const ResyncMargin = 24

// Reclassify updates prev, the spans of the text before edit, to the spans
// of newText. Spans well before the edit are reused, the edited area is
// rescanned, and the scan stops as soon as it lands on a region boundary
// that already existed after the edit. The result always equals
// Classify(newText).
func Reclassify(prev []Span, newText string, edit Edit) []Span {
	delta := edit.NewLen - edit.OldLen
	oldLen := len(newText) - delta
	if len(prev) == 0 || edit.Offset < 0 || edit.OldLen < 0 || edit.NewLen < 0 ||
		edit.Offset+edit.NewLen > len(newText) || prev[len(prev)-1].End != oldLen {
		return Classify(newText)
	}

	keep := 0
	for keep < len(prev) && prev[keep].End+ResyncMargin <= edit.Offset {
		keep++
	}
	// A trailing code span may grow with the edit; rescan it.
	if keep > 0 && prev[keep-1].Kind == Code {
		keep--
	}
	from := 0
	if keep > 0 {
		from = prev[keep-1].End
	}

	oldEditEnd := edit.Offset + edit.OldLen
	newEditEnd := edit.Offset + edit.NewLen
	regions := make(map[int]int)
	for i := keep; i < len(prev); i++ {
		if prev[i].Kind != Code && prev[i].Start >= oldEditEnd {
			regions[prev[i].Start] = i
		}
	}

	resume := -1
	s := newScanner(newText)
	s.stop = func(start int) bool {
		if start < newEditEnd+ResyncMargin {
			return false
		}
		if idx, ok := regions[start-delta]; ok {
			resume = idx
			return true
		}
		return false
	}
	_, _ = s.run(context.Background(), from)

	out := make([]Span, 0, keep+len(s.out)+len(prev)-keep)
	out = append(out, prev[:keep]...)
	out = append(out, s.out...)
	if resume >= 0 {
		for _, sp := range prev[resume:] {
			sp.Start += delta
			sp.End += delta
			out = append(out, sp)
		}
	}
	return out
}
