package index

import (
	"doxyscan/internal/changes"
	"doxyscan/internal/storage"
)

// OnlyChanged keeps the findings whose lines intersect lines added by the
// patch. A nil patch keeps everything.
func OnlyChanged(findings []storage.Finding, p *changes.Patch) []storage.Finding {
	if p == nil {
		return findings
	}
	var out []storage.Finding
	for _, f := range findings {
		if p.Touches(f.Path, f.Line, f.EndLine) {
			out = append(out, f)
		}
	}
	return out
}

// Summary counts findings by kind.
type Summary struct {
	Invalid      int `json:"invalid"`
	Undocumented int `json:"undocumented"`
}

// Summarize counts findings by kind.
func Summarize(findings []storage.Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Kind {
		case storage.FindingInvalidCommand:
			s.Invalid++
		case storage.FindingUndocumentedParam:
			s.Undocumented++
		}
	}
	return s
}
