package decl

import (
	"strings"

	"doxyscan/internal/spans"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokKind
	text string
	off  int
}

func (t token) is(s string) bool { return t.kind == tokPunct && t.text == s }

// multiPunct are punctuators lexed as one token, longest first. ">>" is
// deliberately absent so that nested template argument lists close.
var multiPunct = []string{"<=>", "...", "::", "->", "==", "!=", "&&", "||", "<<", "<=", ">="}

// lex tokenizes C++ text. Comments are skipped, string and character
// literals become single tokens and preprocessor-free text is assumed.
func lex(text string) []token {
	var out []token
	for _, s := range spans.Classify(text) {
		switch {
		case s.Kind.IsComment():
			continue
		case s.Kind == spans.StringLiteral || s.Kind == spans.RawString:
			out = append(out, token{kind: tokString, text: s.Text(text), off: s.Start})
			continue
		}
		out = lexCode(text, s.Start, s.End, out)
	}
	return out
}

func lexCode(text string, i, end int, out []token) []token {
	for i < end {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '\\' && i+1 < end && (text[i+1] == '\n' || text[i+1] == '\r'):
			i++
		case isIdentStart(c):
			j := i + 1
			for j < end && isIdentChar(text[j]) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: text[i:j], off: i})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < end && (isIdentChar(text[j]) || text[j] == '.' || text[j] == '\'') {
				j++
			}
			out = append(out, token{kind: tokNumber, text: text[i:j], off: i})
			i = j
		default:
			n := 1
			for _, p := range multiPunct {
				if strings.HasPrefix(text[i:end], p) {
					n = len(p)
					break
				}
			}
			out = append(out, token{kind: tokPunct, text: text[i : i+n], off: i})
			i += n
		}
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

// keywords are identifiers that can never be a parameter or declaration
// name.
var keywords = map[string]bool{
	"alignas": true, "alignof": true, "auto": true, "bool": true, "char": true,
	"char8_t": true, "char16_t": true, "char32_t": true, "class": true,
	"concept": true, "const": true, "consteval": true, "constexpr": true,
	"constinit": true, "decltype": true, "delete": true, "double": true,
	"enum": true, "explicit": true, "export": true, "extern": true,
	"false": true, "final": true, "float": true, "friend": true, "inline": true,
	"int": true, "long": true, "mutable": true, "namespace": true, "new": true,
	"noexcept": true, "nullptr": true, "operator": true, "override": true,
	"private": true, "protected": true, "public": true, "register": true,
	"requires": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "template": true,
	"this": true, "throw": true, "true": true, "typedef": true,
	"typename": true, "union": true, "unsigned": true, "using": true,
	"virtual": true, "void": true, "volatile": true, "wchar_t": true,
	"__attribute__": true, "__declspec": true,
}

// groupKeywords are followed by a parenthesised group that is not a
// parameter list.
var groupKeywords = map[string]bool{
	"alignas": true, "decltype": true, "noexcept": true, "requires": true,
	"sizeof": true, "throw": true, "__attribute__": true, "__declspec": true,
	"alignof": true,
}

// closing returns the index of the token closing the group opened at i,
// or len(toks)-1 when it is unbalanced. Only the opener's own bracket kind
// is counted.
func closing(toks []token, i int) int {
	open := toks[i].text
	var close string
	switch open {
	case "(":
		close = ")"
	case "[":
		close = "]"
	case "{":
		close = "}"
	case "<":
		close = ">"
	}
	depth := 0
	for j := i; j < len(toks); j++ {
		switch {
		case toks[j].is(open):
			depth++
		case toks[j].is(close):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(toks) - 1
}

// splitTop splits toks on commas outside any brackets. Angle brackets
// nest when they follow an identifier or another closing angle.
func splitTop(toks []token) [][]token {
	if len(toks) == 0 {
		return nil
	}
	var (
		out   [][]token
		start int
		depth int
		angle int
	)
	for i, t := range toks {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		case "<":
			if depth == 0 && i > 0 && (toks[i-1].kind == tokIdent || toks[i-1].is(">")) {
				angle++
			}
		case ">":
			if depth == 0 && angle > 0 {
				angle--
			}
		case ",":
			if depth == 0 && angle == 0 {
				out = append(out, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(out, toks[start:])
}

// cutDefault drops a top-level "= value" suffix.
func cutDefault(seg []token) []token {
	depth := 0
	for i, t := range seg {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{", "<":
			depth++
		case ")", "]", "}", ">":
			depth--
		case "=":
			if depth == 0 {
				return seg[:i]
			}
		}
	}
	return seg
}
