package markup

// findEmphasis locates markdown emphasis runs in the parts of the logical
// text not covered by command tokens. Runs never cross a line break.
func findEmphasis(lt *logical, covered [][2]int) []Emphasis {
	t := lt.text
	n := len(t)
	blocked := make([]bool, n)
	for _, c := range covered {
		for i := max(c[0], 0); i < c[1] && i < n; i++ {
			blocked[i] = true
		}
	}

	var out []Emphasis
	for i := 0; i < n; {
		if blocked[i] || t[i] == '\n' {
			i++
			continue
		}
		j := i
		for j < n && !blocked[j] && t[j] != '\n' {
			j++
		}
		out = append(out, emphasisIn(t, i, j)...)
		i = j
	}
	return out
}

// emphasisIn scans one uninterrupted segment t[a:b].
func emphasisIn(t []byte, a, b int) []Emphasis {
	var out []Emphasis
	for i := a; i < b; {
		c := t[i]
		if c != '*' && c != '_' && c != '~' && c != '`' {
			i++
			continue
		}
		run := runLen(t, i, b)

		if c == '`' {
			if j := findCloser(t, i+run, b, run, false); j >= 0 {
				out = append(out, Emphasis{Kind: EmphasisCode, Start: i, End: j + run, ContentStart: i + run, ContentEnd: j})
				i = j + run
				continue
			}
			i += run
			continue
		}

		kind, ok := emphasisKind(c, run)
		if !ok || !opens(t, a, i, run, b) {
			i += run
			continue
		}
		j := findCloser(t, i+run, b, run, true)
		if j < 0 {
			i += run
			continue
		}
		out = append(out, Emphasis{Kind: kind, Start: i, End: j + run, ContentStart: i + run, ContentEnd: j})
		i = j + run
	}
	return out
}

func emphasisKind(c byte, run int) (EmphasisKind, bool) {
	switch {
	case c == '~' && run == 2:
		return EmphasisStrike, true
	case c == '~':
		return "", false
	case run == 1:
		return EmphasisItalic, true
	case run == 2:
		return EmphasisBold, true
	}
	return "", false
}

func runLen(t []byte, i, b int) int {
	k := i
	for k < b && t[k] == t[i] {
		k++
	}
	return k - i
}

// opens reports whether the delimiter run at i can start emphasis: it must
// not follow a word character and must be followed by non-space text.
func opens(t []byte, a, i, run, b int) bool {
	if i > a && isAlnum(t[i-1]) {
		return false
	}
	return i+run < b && !isSpace(t[i+run])
}

// findCloser returns the start of the first run of the same delimiter and
// length that closes a non-empty run started before from, or -1.
func findCloser(t []byte, from, b, run int, flanking bool) int {
	c := t[from-1]
	for j := from; j < b; {
		if t[j] != c {
			j++
			continue
		}
		r := runLen(t, j, b)
		if r == run && j > from {
			if !flanking {
				return j
			}
			if !isSpace(t[j-1]) && (j+r >= b || !isAlnum(t[j+r])) {
				return j
			}
		}
		j += r
	}
	return -1
}

func exportEmphasis(lt *logical, list []Emphasis) []Emphasis {
	if len(list) == 0 {
		return nil
	}
	out := make([]Emphasis, len(list))
	for i, e := range list {
		e.Start, e.End = exportRange(lt, e.Start, e.End)
		e.ContentStart, e.ContentEnd = exportRange(lt, e.ContentStart, e.ContentEnd)
		out[i] = e
	}
	return out
}
