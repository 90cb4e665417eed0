package expand

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vercel-labs/vshell/pattern"
	"github.com/vercel-labs/vshell/syntax"
)

// UnsetParameterError is raised by ${name:?msg} / ${name?msg} when name is
// unset or empty, carrying msg as the shell-visible error text.
type UnsetParameterError struct {
	Name    string
	Message string
}

func (e UnsetParameterError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("%s: parameter not set", e.Name)
}

// paramExp expands a single ${...}/$name parameter expansion, dispatching
// across the operator family enumerated in spec.md §4.5 step 3.
func (cfg *Config) paramExp(pe *syntax.ParamExp, quoted bool) ([]field, error) {
	name := pe.Param.Value

	if pe.Excl && pe.Names != 0 {
		names := NamesByPrefix(cfg.Env, name)
		sep := " "
		if pe.Names == '@' && quoted {
			return fieldsFromList(names, true), nil
		}
		return []field{{str: strings.Join(names, sep), quoted: quoted}}, nil
	}

	vr := cfg.lookupParam(pe, name)

	if pe.Excl && pe.Names == 0 {
		// ${!name}: indirect expansion through the value of name.
		target := vr.Str
		if target == "" {
			return []field{{str: "", quoted: quoted}}, nil
		}
		indirect := cfg.Env.Get(target)
		return []field{{str: scalarOf(indirect), quoted: quoted}}, nil
	}

	isAt := indexIsAtOrStar(pe.Index) || pe.Names != 0
	set := vr.IsSet()

	if pe.Length {
		n := 0
		switch {
		case isAt:
			n = listLen(vr)
		default:
			s, err := cfg.indexedStr(pe, vr)
			if err != nil {
				return nil, err
			}
			n = utf8.RuneCountInString(s)
		}
		return []field{{str: strconv.Itoa(n), quoted: quoted}}, nil
	}

	if isAt {
		items := listOf(vr)
		if pe.Exp != nil || pe.Repl != nil || pe.Slice != nil || pe.AtOp != 0 {
			// Operators still apply element-wise to "@"/"*" expansions;
			// fall through to scalar handling per-element below.
			var out []field
			for _, it := range items {
				s, err := cfg.applyParamOps(pe, vr, it, set)
				if err != nil {
					return nil, err
				}
				out = append(out, field{str: s, quoted: quoted})
			}
			if len(out) == 0 {
				out = []field{{str: "", quoted: quoted}}
			}
			return out, nil
		}
		if pe.Names == '@' && quoted {
			return fieldsFromList(items, true), nil
		}
		return []field{{str: strings.Join(items, " "), quoted: quoted}}, nil
	}

	str, err := cfg.indexedStr(pe, vr)
	if err != nil {
		return nil, err
	}
	res, err := cfg.applyParamOps(pe, vr, str, set)
	if err != nil {
		return nil, err
	}
	return []field{{str: res, quoted: quoted}}, nil
}

func fieldsFromList(items []string, quoted bool) []field {
	out := make([]field, len(items))
	for i, s := range items {
		out[i] = field{str: s, quoted: quoted}
	}
	return out
}

func scalarOf(vr Variable) string {
	switch vr.Kind {
	case String, NameRef:
		return vr.Str
	case Indexed:
		if len(vr.List) > 0 {
			return vr.List[0]
		}
	case Associative:
		return ""
	}
	return vr.Str
}

func listOf(vr Variable) []string {
	switch vr.Kind {
	case Indexed:
		return vr.List
	case Associative:
		var keys []string
		for k := range vr.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var vals []string
		for _, k := range keys {
			vals = append(vals, vr.Map[k])
		}
		return vals
	default:
		if vr.Str == "" && !vr.IsSet() {
			return nil
		}
		return []string{vr.Str}
	}
}

func listLen(vr Variable) int {
	switch vr.Kind {
	case Indexed:
		return len(vr.List)
	case Associative:
		return len(vr.Map)
	default:
		if !vr.IsSet() {
			return 0
		}
		return 1
	}
}

func indexIsAtOrStar(idx syntax.ArithmExpr) bool {
	w, ok := idx.(*syntax.Word)
	if !ok {
		return false
	}
	lit := w.Lit()
	return lit == "@" || lit == "*"
}

// lookupParam resolves a parameter name through any NameRef chain. LINENO
// is not resolved from the AST here (a ParamExp carries only a byte offset,
// not a line number — that mapping lives on the *syntax.File the token.Pos
// came from), and the interpreter does not maintain a "LINENO" variable
// either, so ${LINENO} is a plain Env lookup that is empty unless the
// environment or the script sets it.
func (cfg *Config) lookupParam(pe *syntax.ParamExp, name string) Variable {
	_, vr := Resolve(cfg.Env, name, maxNameRefDepth)
	return vr
}

// indexedStr resolves pe.Index (when present and not "@"/"*") against an
// Indexed or Associative variable, or returns the plain scalar otherwise.
func (cfg *Config) indexedStr(pe *syntax.ParamExp, vr Variable) (string, error) {
	if pe.Index == nil {
		return scalarOf(vr), nil
	}
	if indexIsAtOrStar(pe.Index) {
		return strings.Join(listOf(vr), " "), nil
	}
	switch vr.Kind {
	case Associative:
		if w, ok := pe.Index.(*syntax.Word); ok {
			key, err := cfg.Literal(w)
			if err != nil {
				return "", err
			}
			return vr.Map[key], nil
		}
		return "", nil
	default:
		i, err := cfg.Arith(pe.Index)
		if err != nil {
			return "", err
		}
		if i < 0 || int(i) >= len(vr.List) {
			return "", nil
		}
		return vr.List[i], nil
	}
}

// applyParamOps runs the suffix operator family (slice, default-value,
// trim, replace, case conversion, @-ops) against an already-resolved
// scalar str.
func (cfg *Config) applyParamOps(pe *syntax.ParamExp, vr Variable, str string, set bool) (string, error) {
	switch {
	case pe.Slice != nil:
		return cfg.applySlice(pe, str)
	case pe.Repl != nil:
		return cfg.applyReplace(pe, str)
	case pe.Exp != nil:
		return cfg.applyExpansion(pe, str, set)
	case pe.AtOp != 0:
		return applyAtOp(pe.AtOp, str)
	}
	return str, nil
}

func (cfg *Config) applySlice(pe *syntax.ParamExp, str string) (string, error) {
	runes := []rune(str)
	n := len(runes)
	offset := 0
	if pe.Slice.Offset != nil {
		o, err := cfg.Arith(pe.Slice.Offset)
		if err != nil {
			return "", err
		}
		offset = int(o)
		if offset < 0 {
			offset += n
		}
		if offset < 0 {
			offset = 0
		}
		if offset > n {
			offset = n
		}
	}
	end := n
	if pe.Slice.Length != nil {
		l, err := cfg.Arith(pe.Slice.Length)
		if err != nil {
			return "", err
		}
		length := int(l)
		if length < 0 {
			end = n + length
		} else {
			end = offset + length
		}
		if end < offset {
			end = offset
		}
		if end > n {
			end = n
		}
	}
	return string(runes[offset:end]), nil
}

func (cfg *Config) applyReplace(pe *syntax.ParamExp, str string) (string, error) {
	orig, err := cfg.Pattern(pe.Repl.Orig)
	if err != nil {
		return "", err
	}
	var with string
	if pe.Repl.With != nil {
		with, err = cfg.Literal(pe.Repl.With)
		if err != nil {
			return "", err
		}
	}
	switch {
	case pe.Repl.AnchorLeft:
		return replaceAnchored(str, orig, with, true)
	case pe.Repl.AnchorRight:
		return replaceAnchored(str, orig, with, false)
	}
	re, err := pattern.Compile(orig, 0)
	if err != nil {
		return str, nil
	}
	if pe.Repl.All {
		return re.ReplaceAllString(str, escapeDollar(with)), nil
	}
	loc := re.FindStringIndex(str)
	if loc == nil {
		return str, nil
	}
	return str[:loc[0]] + with + str[loc[1]:], nil
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

func replaceAnchored(str, glob, with string, atStart bool) (string, error) {
	re, err := pattern.Compile(glob, 0)
	if err != nil {
		return str, nil
	}
	if atStart {
		loc := re.FindStringIndex(str)
		if loc == nil || loc[0] != 0 {
			return str, nil
		}
		return with + str[loc[1]:], nil
	}
	// Anchor at the end: try progressively shorter suffixes, longest match
	// first, the same approach the teacher's removePattern helper takes.
	for start := 0; start <= len(str); start++ {
		if loc := re.FindStringIndex(str[start:]); loc != nil && start+loc[1] == len(str) {
			return str[:start+loc[0]] + with, nil
		}
	}
	return str, nil
}

func (cfg *Config) applyExpansion(pe *syntax.ParamExp, str string, set bool) (string, error) {
	exp := pe.Exp
	var arg string
	var err error
	if exp.Word != nil {
		arg, err = cfg.Literal(exp.Word)
		if err != nil {
			return "", err
		}
	}
	name := pe.Param.Value
	switch exp.Op {
	case syntax.ExpColonMinus:
		if str == "" {
			return arg, nil
		}
		return str, nil
	case syntax.ExpMinus:
		if !set {
			return arg, nil
		}
		return str, nil
	case syntax.ExpColonEqual:
		if str == "" {
			if err := cfg.envSet(name, arg); err != nil {
				return "", err
			}
			return arg, nil
		}
		return str, nil
	case syntax.ExpEqual:
		if !set {
			if err := cfg.envSet(name, arg); err != nil {
				return "", err
			}
			return arg, nil
		}
		return str, nil
	case syntax.ExpColonQuest:
		if str == "" {
			cfg.err(UnsetParameterError{Name: name, Message: arg})
			return "", UnsetParameterError{Name: name, Message: arg}
		}
		return str, nil
	case syntax.ExpQuest:
		if !set {
			cfg.err(UnsetParameterError{Name: name, Message: arg})
			return "", UnsetParameterError{Name: name, Message: arg}
		}
		return str, nil
	case syntax.ExpColonPlus:
		if str != "" {
			return arg, nil
		}
		return "", nil
	case syntax.ExpPlus:
		if set {
			return arg, nil
		}
		return "", nil
	case syntax.ExpRemSmallPrefix, syntax.ExpRemLargePrefix,
		syntax.ExpRemSmallSuffix, syntax.ExpRemLargeSuffix:
		glob, err := cfg.Pattern(exp.Word)
		if err != nil {
			return "", err
		}
		suffix := exp.Op == syntax.ExpRemSmallSuffix || exp.Op == syntax.ExpRemLargeSuffix
		large := exp.Op == syntax.ExpRemLargePrefix || exp.Op == syntax.ExpRemLargeSuffix
		return removeMatch(str, glob, suffix, large), nil
	case syntax.ExpUpperFirst, syntax.ExpUpperAll,
		syntax.ExpLowerFirst, syntax.ExpLowerAll:
		return caseConvert(str, exp.Op), nil
	}
	return str, nil
}

// removeMatch strips the shortest ("small") or longest ("large") prefix or
// suffix of str matching glob, the mechanism behind ${v#p} ${v##p} ${v%p}
// ${v%%p}. Matches are always anchored to the string's edge; "small" keeps
// as much of str as possible, "large" removes as much as possible.
func removeMatch(str, glob string, suffix, large bool) string {
	re, err := pattern.Compile(glob, pattern.EntireString)
	if err != nil {
		return str
	}
	if suffix {
		// Anchored suffix match: scan candidate start points. "small"
		// wants the rightmost (shortest) match, "large" the leftmost.
		if large {
			for start := 0; start <= len(str); start++ {
				if re.MatchString(str[start:]) {
					return str[:start]
				}
			}
		} else {
			for start := len(str); start >= 0; start-- {
				if re.MatchString(str[start:]) {
					return str[:start]
				}
			}
		}
		return str
	}
	// Anchored prefix match: "small" wants the leftmost (shortest) match,
	// "large" the rightmost.
	if large {
		for end := len(str); end >= 0; end-- {
			if re.MatchString(str[:end]) {
				return str[end:]
			}
		}
	} else {
		for end := 0; end <= len(str); end++ {
			if re.MatchString(str[:end]) {
				return str[end:]
			}
		}
	}
	return str
}

// caseConvert applies bash's ^ ^^ , ,, case-conversion operators, using
// golang.org/x/text/cases with language-neutral (language.Und) Unicode
// casing rules; no locale setting such as LC_CTYPE is consulted.
func caseConvert(str string, op syntax.ExpansionOp) string {
	if str == "" {
		return str
	}
	all := op == syntax.ExpUpperAll || op == syntax.ExpLowerAll
	upper := op == syntax.ExpUpperFirst || op == syntax.ExpUpperAll
	if all {
		if upper {
			return cases.Upper(language.Und).String(str)
		}
		return cases.Lower(language.Und).String(str)
	}
	r, size := utf8.DecodeRuneInString(str)
	var head string
	if upper {
		head = cases.Upper(language.Und).String(string(r))
	} else {
		head = cases.Lower(language.Und).String(string(r))
	}
	return head + str[size:]
}

func applyAtOp(op byte, str string) (string, error) {
	switch op {
	case 'Q':
		return strconv.Quote(str), nil
	case 'E':
		tail := str
		var rs []rune
		for tail != "" {
			r, _, t, err := strconv.UnquoteChar(tail, 0)
			if err != nil {
				break
			}
			rs = append(rs, r)
			tail = t
		}
		return string(rs), nil
	case 'P', 'A', 'a':
		return str, nil
	}
	return "", fmt.Errorf("expand: unsupported @%c parameter operator", op)
}
