// Package scipexport writes highlight ranges and lint findings as a SCIP
// index, so that code intelligence tools can show them next to their own
// data.
package scipexport

import (
	"context"
	"io"
	"path/filepath"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"doxyscan/internal/errors"
	"doxyscan/internal/highlight"
	"doxyscan/internal/spans"
	"doxyscan/internal/storage"
	"doxyscan/internal/version"
)

const toolName = "doxyscan"

// syntaxKinds maps highlight classes to SCIP syntax kinds. Classes that
// are absent are not exported.
var syntaxKinds = map[highlight.Class]scippb.SyntaxKind{
	highlight.ClassLineComment:     scippb.SyntaxKind_Comment,
	highlight.ClassDocLineComment:  scippb.SyntaxKind_Comment,
	highlight.ClassBlockComment:    scippb.SyntaxKind_Comment,
	highlight.ClassDocBlockComment: scippb.SyntaxKind_Comment,
	highlight.ClassString:          scippb.SyntaxKind_StringLiteral,
	highlight.ClassCommand:         scippb.SyntaxKind_Keyword,
	highlight.ClassEscape:          scippb.SyntaxKind_StringLiteralEscape,
	highlight.ClassParameter:       scippb.SyntaxKind_IdentifierParameter,
	highlight.ClassOption:          scippb.SyntaxKind_TagAttribute,
	highlight.ClassReference:       scippb.SyntaxKind_Identifier,
	highlight.ClassQuoted:          scippb.SyntaxKind_StringLiteral,
}

// Exporter builds SCIP documents for one project root.
type Exporter struct {
	root        string
	highlighter *highlight.Highlighter
}

// New creates an exporter. A nil highlighter uses the default options and
// the built-in vocabulary.
func New(root string, h *highlight.Highlighter) *Exporter {
	if h == nil {
		h = highlight.New(nil, highlight.DefaultOptions())
	}
	return &Exporter{root: root, highlighter: h}
}

// Document converts one file. path is root-relative with forward slashes.
func (e *Exporter) Document(ctx context.Context, path, text string, findings []storage.Finding) (*scippb.Document, error) {
	var c highlight.Collector
	if err := e.highlighter.Run(ctx, text, &c); err != nil {
		return nil, err
	}
	lines := spans.NewLineIndex(text)

	doc := &scippb.Document{
		RelativePath:     path,
		Language:         scippb.Language_CPP.String(),
		PositionEncoding: scippb.PositionEncoding_UTF8CodeUnitOffsetFromLineStart,
	}
	for _, r := range c.Ranges {
		kind, ok := syntaxKinds[r.Class]
		if !ok || r.End <= r.Start {
			continue
		}
		doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
			Range:      rangeOf(lines, r.Start, r.End),
			SyntaxKind: kind,
		})
	}
	for _, f := range findings {
		start := lines.Offset(f.Line, f.Column-1)
		end := lines.LineEnd(f.EndLine)
		doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
			Range: rangeOf(lines, start, max(start, end)),
			Diagnostics: []*scippb.Diagnostic{{
				Severity: scippb.Severity_Warning,
				Code:     string(f.Kind),
				Message:  f.Message,
				Source:   toolName,
			}},
		})
	}
	return doc, nil
}

// Index wraps documents with metadata.
func (e *Exporter) Index(docs []*scippb.Document) *scippb.Index {
	root, err := filepath.Abs(e.root)
	if err != nil {
		root = e.root
	}
	return &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:    toolName,
				Version: version.Version,
			},
			ProjectRoot:          "file://" + filepath.ToSlash(root),
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
		Documents: docs,
	}
}

// rangeOf returns a SCIP range: three elements on a single line, four
// otherwise. Lines and characters are 0-based.
func rangeOf(lines *spans.LineIndex, start, end int) []int32 {
	sl, sc := lines.Position(start)
	el, ec := lines.Position(end)
	if sl == el {
		return []int32{int32(sl - 1), int32(sc), int32(ec)}
	}
	return []int32{int32(sl - 1), int32(sc), int32(el - 1), int32(ec)}
}

// Write encodes idx as protobuf.
func Write(w io.Writer, idx *scippb.Index) error {
	data, err := proto.Marshal(idx)
	if err != nil {
		return errors.New(errors.InternalError, "cannot encode SCIP index", err)
	}
	_, err = w.Write(data)
	return err
}

// Read decodes a SCIP index written by Write.
func Read(r io.Reader) (*scippb.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var idx scippb.Index
	if err := proto.Unmarshal(data, &idx); err != nil {
		return nil, errors.New(errors.UnsupportedFormat, "not a SCIP index", err)
	}
	return &idx, nil
}
