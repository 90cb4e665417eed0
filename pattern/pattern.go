// Package pattern translates shell glob syntax (the kind used by case
// clauses, [[ == ]], and filename expansion) into Go regular expressions,
// the same job the teacher's pattern package does for mvdan.cc/sh.
package pattern

import (
	"regexp"
	"strings"
)

// Mode flags adjust how Regexp translates a glob.
type Mode uint

const (
	Shortest     Mode = 1 << iota // make * and +(...) non-greedy
	Filenames                     // "*" and "?" do not match "/"
	EntireString                  // anchor with ^ and $
	NoGlobCase                    // case-insensitive matching
	NoGlobStar                    // disable "**" as a recursive wildcard
)

// HasMeta reports whether s contains any byte that Regexp would treat
// specially, letting callers skip the glob machinery entirely for a plain
// literal (the fast path the teacher's own pattern package takes).
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[\\")
}

// Regexp translates a shell glob into an equivalent Go regular expression
// string. It does not compile the pattern so callers needing repeated
// matches can cache the *regexp.Regexp themselves.
func Regexp(glob string, mode Mode) string {
	var b strings.Builder
	if mode&EntireString != 0 {
		b.WriteByte('^')
	}
	dotGlob := "."
	if mode&Filenames != 0 {
		dotGlob = "[^/]"
	}
	star := dotGlob + "*"
	if mode&Shortest != 0 {
		star = dotGlob + "*?"
	}

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			if mode&NoGlobStar == 0 && i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
				continue
			}
			b.WriteString(star)
		case '?':
			b.WriteString(dotGlob)
		case '[':
			j := translateClass(runes, i, &b, dotGlob)
			if j > i {
				i = j
				continue
			}
			b.WriteString(regexp.QuoteMeta(string(c)))
		case '\\':
			if i+1 < len(runes) {
				b.WriteString(regexp.QuoteMeta(string(runes[i+1])))
				i++
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if mode&EntireString != 0 {
		b.WriteByte('$')
	}
	s := b.String()
	if mode&NoGlobCase != 0 {
		s = "(?i)" + s
	}
	return s
}

// translateClass handles a "[...]" bracket expression starting at i,
// writing its regexp equivalent to b and returning the index of the
// closing ']', or i if runes[i:] isn't a well-formed class (caller then
// treats '[' as a literal).
func translateClass(runes []rune, i int, b *strings.Builder, dotGlob string) int {
	j := i + 1
	if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
		j++
	}
	start := j
	for j < len(runes) && (runes[j] != ']' || j == start) {
		j++
	}
	if j >= len(runes) {
		return i
	}
	b.WriteByte('[')
	k := i + 1
	if runes[k] == '!' || runes[k] == '^' {
		b.WriteByte('^')
		k++
	}
	for ; k < j; k++ {
		switch runes[k] {
		case '\\', ']', '^':
			b.WriteByte('\\')
			b.WriteRune(runes[k])
		default:
			b.WriteRune(runes[k])
		}
	}
	b.WriteByte(']')
	return j
}

// Compile is a convenience wrapper that translates and compiles in one
// step, the form most callers in package expand reach for.
func Compile(glob string, mode Mode) (*regexp.Regexp, error) {
	return regexp.Compile(Regexp(glob, mode))
}

// Match reports whether name matches glob under mode|EntireString, the
// common case for case-clause and [[ == ]] matching.
func Match(glob, name string, mode Mode) (bool, error) {
	re, err := Compile(glob, mode|EntireString)
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}
