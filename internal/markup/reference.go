package markup

// scanReference reads a symbol reference at t[q:limit]: an optionally
// global, "::", "." or "#" separated name followed by at most one
// parenthesised argument list, as in "ns::Type::method(int, char*) const".
// It reports the end of the reference, whether one was found at all, and
// whether its argument list was closed.
func scanReference(t []byte, q, limit int) (end int, found, balanced bool) {
	k := q
	if k+1 < limit && t[k] == ':' && t[k+1] == ':' {
		k += 2
	}
	if k >= limit || !refStart(t[k]) {
		return q, false, true
	}

	for {
		for k < limit && (isWordChar(t[k]) || t[k] == '~') {
			k++
		}
		sep := 0
		switch {
		case k+2 < limit && t[k] == ':' && t[k+1] == ':' && refStart(t[k+2]):
			sep = 2
		case k+1 < limit && (t[k] == '.' || t[k] == '#') && refStart(t[k+1]):
			sep = 1
		}
		if sep == 0 {
			break
		}
		k += sep
	}

	if k < limit && t[k] == '(' {
		depth := 0
		for j := k; j < limit; j++ {
			switch t[j] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end := j + 1
					// Trailing cv qualifiers belong to the signature.
					if n := qualifierEnd(t, end, limit); n > end {
						end = n
					}
					return end, true, true
				}
			}
		}
		return limit, true, false
	}
	return k, true, true
}

func refStart(c byte) bool { return isLetter(c) || c == '_' || c == '~' }

// qualifierEnd extends past " const" or " volatile" directly after a
// parameter list.
func qualifierEnd(t []byte, i, limit int) int {
	for _, q := range []string{" const", " volatile"} {
		j := i + len(q)
		if j <= limit && string(t[i:j]) == q && (j == limit || !isWordChar(t[j])) {
			return qualifierEnd(t, j, limit)
		}
	}
	return i
}
