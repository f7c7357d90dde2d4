// Package index scans a source tree, stores per-file recognition results
// in the scan index and derives lint findings from them.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"doxyscan/internal/complete"
	"doxyscan/internal/decl"
	"doxyscan/internal/markup"
	"doxyscan/internal/spans"
	"doxyscan/internal/storage"
)

// Analysis is everything the indexer learns about one file.
type Analysis struct {
	Record   storage.FileRecord
	Results  []markup.Result
	Findings []storage.Finding
	Docs     []storage.DocComment
}

// Analyze classifies text, recognises the commands of every documentation
// comment and derives findings. path is stored as given.
func Analyze(path, text string, r *markup.Recognizer) Analysis {
	list := spans.Classify(text)
	results := r.RecognizeAll(text, list)
	lines := spans.NewLineIndex(text)

	a := Analysis{
		Record: storage.FileRecord{
			Path:  path,
			Hash:  Hash([]byte(text)),
			Size:  int64(len(text)),
			Spans: len(list),
		},
		Results: results,
	}
	for _, res := range results {
		a.Record.DocSpans++
		a.Record.Tokens += len(res.Tokens)
		a.Docs = append(a.Docs, docComment(path, text, lines, res))
		for _, tok := range res.Invalid() {
			a.Record.Invalid++
			a.Findings = append(a.Findings, invalidFinding(path, lines, tok))
		}
	}
	a.Findings = append(a.Findings, undocumented(path, text, list, results, lines)...)
	return a
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func docComment(path, text string, lines *spans.LineIndex, res markup.Result) storage.DocComment {
	line, _ := lines.Position(res.Span.Start)
	endLine, _ := lines.Position(max(res.Span.Start, res.Span.End-1))
	names := make([]string, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		names = append(names, tok.Name)
	}
	return storage.DocComment{
		Path:     path,
		Line:     line,
		EndLine:  endLine,
		Commands: strings.Join(names, " "),
		Text:     text[res.Span.Start:res.Span.End],
	}
}

func invalidFinding(path string, lines *spans.LineIndex, tok markup.Token) storage.Finding {
	line, col := lines.Position(tok.Start)
	endLine, _ := lines.Position(max(tok.Start, tok.End-1))
	msg := tok.Problem
	if msg == "" {
		msg = "malformed argument"
	}
	return storage.Finding{
		Path:    path,
		Line:    line,
		Column:  col + 1,
		EndLine: endLine,
		Kind:    storage.FindingInvalidCommand,
		Command: tok.Name,
		Message: fmt.Sprintf("%s%s: %s", tok.Prefix, tok.Name, msg),
	}
}

// undocumented reports declaration parameters missing from documentation
// blocks that describe at least one parameter. Blocks without any @param
// or @tparam are left alone.
func undocumented(path, text string, list []spans.Span, results []markup.Result, lines *spans.LineIndex) []storage.Finding {
	byStart := make(map[int]markup.Result, len(results))
	for _, res := range results {
		byStart[res.Span.Start] = res
	}

	var out []storage.Finding
	for _, b := range complete.DocBlocks(text, list) {
		var block []markup.Result
		documents := false
		for i := b.First; i <= b.Last; i++ {
			res, ok := byStart[list[i].Start]
			if !ok {
				continue
			}
			block = append(block, res)
			for _, tok := range res.Tokens {
				if tok.Name == "param" || tok.Name == "tparam" {
					documents = true
				}
			}
		}
		if !documents {
			continue
		}

		end := list[b.Last].End
		d := decl.Extract(text[end:])
		line, col := lines.Position(list[b.First].Start)
		endLine, _ := lines.Position(end - 1)
		for _, p := range complete.Undocumented(d, block) {
			cmd, what := "param", "parameter"
			if p.Template {
				cmd, what = "tparam", "template parameter"
			}
			out = append(out, storage.Finding{
				Path:    path,
				Line:    line,
				Column:  col + 1,
				EndLine: endLine,
				Kind:    storage.FindingUndocumentedParam,
				Command: cmd,
				Message: fmt.Sprintf("%s %q of %s is not documented", what, p.Name, declName(d)),
			})
		}
	}
	return out
}

func declName(d decl.Declaration) string {
	if d.Name == "" {
		return "the declaration"
	}
	return d.Name
}
