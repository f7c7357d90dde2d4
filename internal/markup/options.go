package markup

import (
	"bytes"
	"strconv"
	"strings"

	"doxyscan/internal/commands"
)

// parseOptions checks the entries between the delimiters of an option list
// at t[from:to]. An unknown, repeated or surplus key invalidates its entry
// and ends checking; a bad value only invalidates its own entry.
func parseOptions(set *commands.OptionSet, t []byte, from, to int) ([]Option, bool) {
	if set.Mode == "lang" {
		return langOption(t, from, to)
	}

	var (
		opts []Option
		keys []string
		seen = map[string]bool{}
		ok   = true
	)
	for start := from; start <= to; {
		end := to
		if rel := bytes.IndexByte(t[start:to], ','); rel >= 0 {
			end = start + rel
		}
		a, b := trimBlank(t, start, end)
		start = end + 1
		if a == b {
			continue
		}

		opt := Option{Key: string(t[a:b]), Start: a, End: b}
		if set.Mode == "free" {
			opt.Valid = true
			opts = append(opts, opt)
			continue
		}

		key, val, hasVal := strings.Cut(opt.Key, set.Sep())
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		opt.Key, opt.Value = key, val

		canon, known := lookupKey(set, key)
		spec, hasSpec := set.Values[canon]
		stop := !known || seen[canon] ||
			(set.Max > 0 && len(keys) >= set.Max) ||
			(hasVal && !hasSpec)
		if stop {
			opts = append(opts, opt)
			return opts, false
		}
		seen[canon] = true
		opt.Key = canon

		switch {
		case hasVal:
			opt.Valid = checkValue(spec, val)
		case hasSpec:
			opt.Valid = spec.Optional
		default:
			opt.Valid = true
		}
		if !opt.Valid {
			ok = false
		}
		keys = append(keys, canon)
		opts = append(opts, opt)
	}

	if ok && len(set.Combos) > 0 && len(keys) > 0 {
		joined := strings.Join(keys, ",")
		allowed := false
		for _, c := range set.Combos {
			if c == joined {
				allowed = true
				break
			}
		}
		if !allowed {
			for i := range opts {
				opts[i].Valid = false
			}
			ok = false
		}
	}
	return opts, ok
}

// langOption accepts a single ".ext" language selector. Blanks inside
// the braces are not allowed.
func langOption(t []byte, from, to int) ([]Option, bool) {
	s := string(t[from:to])
	ok := len(s) > 1 && s[0] == '.' && !strings.ContainsAny(s, " \t,")
	return []Option{{Key: s, Start: from, End: to, Valid: ok}}, ok
}

func lookupKey(set *commands.OptionSet, key string) (string, bool) {
	for _, k := range set.Keys {
		if k == key || (!set.CaseSensitive && strings.EqualFold(k, key)) {
			return k, true
		}
	}
	return "", false
}

func checkValue(spec commands.ValueSpec, val string) bool {
	if val == "" {
		return false
	}
	if spec.Kind != "int" {
		return true
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return false
	}
	return n >= spec.Min && n <= spec.Max
}

func trimBlank(t []byte, a, b int) (int, int) {
	for a < b && isBlank(t[a]) {
		a++
	}
	for b > a && isBlank(t[b-1]) {
		b--
	}
	return a, b
}
