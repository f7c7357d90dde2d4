package decl

import "strings"

// Extract returns the shape of the declaration at the start of text. Text
// after the first declaration is ignored. Leading comments are skipped.
func Extract(text string) Declaration {
	toks := lex(text)
	if len(toks) > 0 && toks[0].is("#") {
		return extractMacro(text, toks[0].off)
	}

	var d Declaration
	i := 0
	for i < len(toks) {
		i = skipAttributes(toks, i)
		if i+1 < len(toks) && toks[i].text == "template" && toks[i+1].is("<") {
			end := closing(toks, i+1)
			d.Template = true
			d.Params = append(d.Params, parameters(toks[min(i+2, end):end], true)...)
			i = end + 1
			continue
		}
		break
	}
	i = skipSpecifiers(toks, i)
	if i >= len(toks) {
		d.Kind = KindUnknown
		return d
	}

	switch toks[i].text {
	case "class", "struct", "union":
		if !hasParamList(toks, i+1) {
			d.Kind = KindClass
			d.Name = className(toks, i+1)
			return d
		}
	case "enum":
		d.Kind = KindEnum
		d.Name = className(toks, i+1)
		return d
	case "using":
		if i+2 < len(toks) && toks[i+1].kind == tokIdent && toks[i+2].is("=") {
			d.Kind = KindAlias
			d.Name = toks[i+1].text
			return d
		}
		d.Kind = KindUnknown
		return d
	case "typedef":
		d.Kind = KindAlias
		d.Name = lastIdentBefore(toks, i+1)
		return d
	}

	function(toks, i, &d)
	return d
}

// skipAttributes skips [[...]], __attribute__((...)), __declspec(...) and
// alignas(...) at i.
func skipAttributes(toks []token, i int) int {
	for i < len(toks) {
		switch {
		case i+1 < len(toks) && toks[i].is("[") && toks[i+1].is("["):
			i = closing(toks, i) + 1
		case toks[i].kind == tokIdent && (toks[i].text == "__attribute__" || toks[i].text == "__declspec" || toks[i].text == "alignas") &&
			i+1 < len(toks) && toks[i+1].is("("):
			i = closing(toks, i+1) + 1
		default:
			return i
		}
	}
	return i
}

var leadingSpecifiers = map[string]bool{
	"export": true, "extern": true, "friend": true, "inline": true, "static": true,
	"constexpr": true, "consteval": true, "constinit": true, "virtual": true,
	"explicit": true,
}

func skipSpecifiers(toks []token, i int) int {
	for i < len(toks) {
		i = skipAttributes(toks, i)
		if i < len(toks) && toks[i].kind == tokIdent && leadingSpecifiers[toks[i].text] {
			i++
			continue
		}
		return i
	}
	return i
}

// hasParamList reports whether a function parameter list appears at the
// top level before the declaration ends, as in "struct S f(int);".
func hasParamList(toks []token, i int) bool {
	angle := 0
	for ; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.is("<"):
			angle++
		case t.is(">") && angle > 0:
			angle--
		case angle > 0:
		case t.is("{"), t.is(";"), t.is(":"):
			return false
		case t.is("("):
			return i > 0 && toks[i-1].kind == tokIdent && !keywords[toks[i-1].text]
		}
	}
	return false
}

func className(toks []token, i int) string {
	for ; i < len(toks); i++ {
		i = skipAttributes(toks, i)
		if i >= len(toks) {
			break
		}
		t := toks[i]
		if t.kind == tokIdent && !keywords[t.text] {
			return qualifiedFrom(toks, i)
		}
		if t.kind == tokPunct {
			break
		}
	}
	return ""
}

// qualifiedFrom joins "a::b::c" starting at the identifier at i.
func qualifiedFrom(toks []token, i int) string {
	var b strings.Builder
	b.WriteString(toks[i].text)
	for i+2 < len(toks) && toks[i+1].is("::") && toks[i+2].kind == tokIdent {
		b.WriteString("::")
		b.WriteString(toks[i+2].text)
		i += 2
	}
	return b.String()
}

func lastIdentBefore(toks []token, i int) string {
	name := ""
	depth := 0
	for ; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.is("(") || t.is("[") || t.is("{") || t.is("<"):
			depth++
		case t.is(")") || t.is("]") || t.is("}") || t.is(">"):
			depth--
		case t.is(";") && depth <= 0:
			return name
		case t.kind == tokIdent && !keywords[t.text] && depth <= 0:
			name = t.text
		}
	}
	return name
}

// function scans a declaration head for its parameter list.
func function(toks []token, i int, d *Declaration) {
	angle := 0
	lastName := -1
	for ; i < len(toks); i++ {
		t := toks[i]
		if t.kind == tokIdent {
			switch {
			case t.text == "operator":
				n, next := operatorName(toks, i)
				if next < len(toks) && toks[next].is("(") {
					d.Kind = KindFunction
					d.Name = qualifiedPrefix(toks, i) + n
					params(toks, next, d)
					return
				}
				i = next - 1
			case groupKeywords[t.text] && i+1 < len(toks) && toks[i+1].is("("):
				i = closing(toks, i+1)
			case !keywords[t.text] && angle == 0:
				lastName = i
			}
			continue
		}
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "<":
			if i > 0 && toks[i-1].kind == tokIdent {
				angle++
			}
		case ">":
			if angle > 0 {
				angle--
			}
		case "[":
			if i+1 < len(toks) && toks[i+1].is("[") {
				i = closing(toks, i)
			}
		case "(":
			if angle > 0 {
				i = closing(toks, i)
				continue
			}
			if lastName >= 0 && (i-1 == lastName || toks[i-1].is(">")) {
				d.Kind = KindFunction
				d.Name = qualifiedPrefix(toks, lastName) + toks[lastName].text
				params(toks, i, d)
				return
			}
			i = closing(toks, i)
		case ";", "{", "=":
			if angle == 0 {
				finishVariable(d, toks, lastName)
				return
			}
		}
	}
	finishVariable(d, toks, lastName)
}

func finishVariable(d *Declaration, toks []token, lastName int) {
	if lastName < 0 {
		d.Kind = KindUnknown
		return
	}
	d.Kind = KindVariable
	d.Name = toks[lastName].text
}

// operatorName composes "operator==", "operator()" or "operator bool" and
// returns the index after the name.
func operatorName(toks []token, i int) (string, int) {
	var b strings.Builder
	b.WriteString("operator")
	j := i + 1
	if j+1 < len(toks) && toks[j].is("(") && toks[j+1].is(")") {
		return "operator()", j + 2
	}
	if j+1 < len(toks) && toks[j].is("[") && toks[j+1].is("]") {
		return "operator[]", j + 2
	}
	for ; j < len(toks) && !toks[j].is("("); j++ {
		if toks[j].kind == tokIdent {
			b.WriteByte(' ')
		}
		b.WriteString(toks[j].text)
	}
	return b.String(), j
}

// qualifiedPrefix returns the "a::b::" scope written before the name at i.
func qualifiedPrefix(toks []token, i int) string {
	prefix := ""
	if i >= 1 && toks[i-1].is("~") {
		prefix = "~"
		i--
	}
	for i >= 2 && toks[i-1].is("::") && toks[i-2].kind == tokIdent {
		prefix = toks[i-2].text + "::" + prefix
		i -= 2
	}
	return prefix
}

// params records the function parameters of the list opened at open.
func params(toks []token, open int, d *Declaration) {
	end := closing(toks, open)
	inner := toks[open+1:]
	if end > open {
		inner = toks[open+1 : end]
	}
	d.Params = append(d.Params, parameters(inner, false)...)
}

// parameters turns the contents of a parameter list into parameters.
func parameters(toks []token, template bool) []Parameter {
	segs := splitTop(toks)
	if len(segs) == 1 && (len(segs[0]) == 0 || (len(segs[0]) == 1 && segs[0][0].text == "void" && !template)) {
		return nil
	}
	out := make([]Parameter, 0, len(segs))
	for _, seg := range segs {
		out = append(out, parameter(seg, template))
	}
	return out
}

// parameter names one segment: the trailing bare identifier, when a type
// precedes it.
func parameter(seg []token, template bool) Parameter {
	p := Parameter{Template: template}
	seg = cutDefault(seg)
	for len(seg) > 0 && seg[len(seg)-1].is("]") {
		k := len(seg) - 1
		for k > 0 && !seg[k].is("[") {
			k--
		}
		seg = seg[:k]
	}
	if len(seg) == 0 {
		return p
	}
	last := seg[len(seg)-1]
	if last.is("...") {
		p.Variadic = true
		return p
	}
	for _, t := range seg {
		if t.is("...") {
			p.Variadic = true
		}
	}
	if last.kind != tokIdent || keywords[last.text] || len(seg) < 2 {
		return p
	}
	if prev := seg[len(seg)-2]; prev.is("::") {
		return p
	}
	p.Name = last.text
	p.Named = true
	return p
}
