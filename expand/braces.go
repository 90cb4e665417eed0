package expand

import (
	"strconv"
	"strings"

	"github.com/vercel-labs/vshell/syntax"
)

// braceExpand performs the Cartesian-product brace expansion of spec.md
// §4.5 step 1 over the *syntax.BraceExp nodes the parser already recognised
// (see syntax.Word.Parts), returning one *syntax.Word per combination. A
// word with no brace parts returns a single-element slice holding a new
// Word with the same parts as w.
func braceExpand(w *syntax.Word) []*syntax.Word {
	combos := expandPartsList(w.Parts)
	out := make([]*syntax.Word, len(combos))
	for i, c := range combos {
		out[i] = &syntax.Word{Parts: c}
	}
	return out
}

func expandPartsList(parts []syntax.WordPart) [][]syntax.WordPart {
	results := [][]syntax.WordPart{nil}
	for _, p := range parts {
		alts := expandPart(p)
		next := make([][]syntax.WordPart, 0, len(results)*len(alts))
		for _, prefix := range results {
			for _, alt := range alts {
				combined := make([]syntax.WordPart, 0, len(prefix)+len(alt))
				combined = append(combined, prefix...)
				combined = append(combined, alt...)
				next = append(next, combined)
			}
		}
		results = next
	}
	return results
}

func expandPart(p syntax.WordPart) [][]syntax.WordPart {
	b, ok := p.(*syntax.BraceExp)
	if !ok {
		return [][]syntax.WordPart{{p}}
	}
	var alts [][]syntax.WordPart
	if b.Sequence {
		for _, item := range sequenceItems(b) {
			alts = append(alts, []syntax.WordPart{&syntax.Lit{Value: item}})
		}
	} else {
		for _, elem := range b.Elems {
			alts = append(alts, expandPartsList(elem.Parts)...)
		}
	}
	if len(alts) == 0 {
		// Malformed brace group (e.g. an empty sequence): fall back to the
		// group's literal text rather than dropping it, matching bash's
		// "leave it alone" behaviour for brace expansions it can't expand.
		return [][]syntax.WordPart{{&syntax.Lit{Value: braceExpLiteral(b)}}}
	}
	return alts
}

// sequenceItems enumerates a {from..to[..incr]} brace sequence, supporting
// both the numeric form (with bash's zero-padding-to-widest-operand rule)
// and the single-character alphabetic form.
func sequenceItems(b *syntax.BraceExp) []string {
	from, to := b.From.Lit(), b.To.Lit()
	incr := 1
	if b.Incr != nil {
		if n, err := strconv.Atoi(b.Incr.Lit()); err == nil && n != 0 {
			incr = n
		}
	}
	step := incr
	if step < 0 {
		step = -step
	}

	if fn, ferr := strconv.Atoi(from); ferr == nil {
		if tn, terr := strconv.Atoi(to); terr == nil {
			width := 0
			if strings.HasPrefix(strings.TrimPrefix(from, "-"), "0") && len(strings.TrimPrefix(from, "-")) > 1 {
				width = len(strings.TrimPrefix(from, "-"))
			}
			if tw := len(strings.TrimPrefix(to, "-")); strings.HasPrefix(strings.TrimPrefix(to, "-"), "0") && tw > 1 && tw > width {
				width = tw
			}
			var items []string
			if fn <= tn {
				for v := fn; v <= tn; v += step {
					items = append(items, padNum(v, width))
				}
			} else {
				for v := fn; v >= tn; v -= step {
					items = append(items, padNum(v, width))
				}
			}
			return items
		}
	}

	if len(from) == 1 && len(to) == 1 {
		fc, tc := rune(from[0]), rune(to[0])
		var items []string
		if fc <= tc {
			for c := fc; c <= tc; c += rune(step) {
				items = append(items, string(c))
			}
		} else {
			for c := fc; c >= tc; c -= rune(step) {
				items = append(items, string(c))
			}
		}
		return items
	}
	return nil
}

func padNum(v, width int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

// braceExpLiteral reconstructs a textual form of a brace group that
// couldn't be expanded, used as a literal fallback.
func braceExpLiteral(b *syntax.BraceExp) string {
	var sb strings.Builder
	sb.WriteByte('{')
	if b.Sequence {
		sb.WriteString(b.From.Lit())
		sb.WriteString("..")
		sb.WriteString(b.To.Lit())
		if b.Incr != nil {
			sb.WriteString("..")
			sb.WriteString(b.Incr.Lit())
		}
	} else {
		for i, e := range b.Elems {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(e.Lit())
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
