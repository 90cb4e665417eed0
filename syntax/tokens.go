package syntax

import "github.com/vercel-labs/vshell/token"

var keywords = map[string]token.Token{
	"if": token.IF, "then": token.THEN, "elif": token.ELIF,
	"else": token.ELSE, "fi": token.FI, "while": token.WHILE,
	"until": token.UNTIL, "for": token.FOR, "do": token.DO,
	"done": token.DONE, "case": token.CASE, "esac": token.ESAC,
	"function": token.FUNCTION, "in": token.IN, "select": token.SELECT,
}

// ValidName reports whether s is a valid POSIX shell identifier:
// [A-Za-z_][A-Za-z0-9_]*.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// assignPrefixLen scans s for an assignment-word prefix of the form
// NAME=, NAME+=, NAME[index]=, or NAME[index]+=, at command-start position
// per spec.md §4.3, returning the length of the prefix including '=',
// whether it has an [index] part, and whether it was a "+=" append; ok is
// false if s isn't one.
func assignPrefixLen(s string) (prefixLen int, bracket bool, appendOp bool, ok bool) {
	i := 0
	if i >= len(s) || !(isNameStart(s[i])) {
		return 0, false, false, false
	}
	for i < len(s) && isNameCont(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '[' {
		depth := 1
		j := i + 1
		for j < len(s) && depth > 0 {
			switch s[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			j++
		}
		if depth != 0 {
			return 0, false, false, false
		}
		i = j
		bracket = true
	}
	if i < len(s) && s[i] == '+' && i+1 < len(s) && s[i+1] == '=' {
		return i + 2, bracket, true, true
	}
	if i < len(s) && s[i] == '=' {
		return i + 1, bracket, false, true
	}
	return 0, false, false, false
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}
