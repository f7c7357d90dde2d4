package decl

import "strings"

// extractMacro reads "#define NAME(a, b, ...)" starting at the '#' at off.
// A parameter list only exists when "(" directly follows the name.
func extractMacro(text string, off int) Declaration {
	line := logicalLine(text[off+1:])
	line = strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(line, "define") {
		return Declaration{Kind: KindUnknown}
	}
	line = strings.TrimLeft(line[len("define"):], " \t")

	n := 0
	for n < len(line) && isIdentChar(line[n]) {
		n++
	}
	d := Declaration{Kind: KindMacro, Name: line[:n]}
	if n == 0 || n >= len(line) || line[n] != '(' {
		return d
	}
	end := strings.IndexByte(line[n:], ')')
	if end < 0 {
		end = len(line) - n
	}
	list := strings.TrimSpace(line[n+1 : n+end])
	if list == "" {
		return d
	}
	for _, raw := range strings.Split(list, ",") {
		name := strings.TrimSpace(raw)
		p := Parameter{}
		if strings.HasSuffix(name, "...") {
			p.Variadic = true
			name = strings.TrimSpace(strings.TrimSuffix(name, "..."))
		}
		if name != "" && isIdentifier(name) {
			p.Name = name
			p.Named = true
		}
		d.Params = append(d.Params, p)
	}
	return d
}

// logicalLine returns the first line of s with backslash continuations
// joined.
func logicalLine(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			j := i + 1
			if j < len(s) && s[j] == '\r' {
				j++
			}
			if j < len(s) && s[j] == '\n' {
				i = j
				b.WriteByte(' ')
				continue
			}
		}
		if c == '\n' {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
