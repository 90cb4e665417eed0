package expand

import (
	"fmt"
	"io"
	"io/fs"
	"os/user"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vercel-labs/vshell/pattern"
	"github.com/vercel-labs/vshell/syntax"
)

const maxNameRefDepth = 100

// Config bundles everything the expansion pipeline (spec.md §4.5) needs:
// the variable environment, knobs equivalent to bash's noglob/globstar
// shopts, and the hooks back into the interpreter for command substitution
// and pathname lookups that this package cannot perform on its own.
type Config struct {
	Env WriteEnviron

	NoGlob   bool
	GlobStar bool

	// FS backs pathname expansion (step 7); the vfs package supplies its
	// own fs.FS so globbing sees the emulated filesystem rather than the
	// host one. Nil falls back to no matches (an unset Config.FS means
	// globbing is unavailable, e.g. unit tests of other steps).
	FS fs.FS

	// CmdSubst runs the statements of a $(...) / `...` substitution and
	// writes their captured stdout to w, mirroring the teacher's
	// Context.Subshell hook. Left nil, command substitutions expand to "".
	CmdSubst func(w io.Writer, stmts []*syntax.Stmt) error

	// OnError receives expansion-time errors: the UnsetParameterError that
	// ${name:?msg} / ${name?msg} raise for an unset parameter. Nil panics,
	// matching the teacher's package-level convention of treating
	// unrecoverable expansion bugs as programmer error.
	OnError func(error)
}

func (cfg *Config) err(err error) {
	if cfg.OnError == nil {
		panic(err)
	}
	cfg.OnError(err)
}

func (cfg *Config) ifs() string {
	if cfg.Env == nil {
		return " \t\n"
	}
	v := cfg.Env.Get("IFS")
	if !v.IsSet() {
		return " \t\n"
	}
	return v.Str
}

func (cfg *Config) ifsRune(r rune) bool {
	return strings.ContainsRune(cfg.ifs(), r)
}

func (cfg *Config) envGet(name string) string {
	_, v := Resolve(cfg.Env, name, maxNameRefDepth)
	return v.Str
}

func (cfg *Config) envSet(name, value string) error {
	return cfg.Env.Set(name, Variable{Kind: String, Str: value})
}

// quoteLevel tracks whether the word part currently being expanded sits
// inside double quotes, which suppresses field splitting and globbing.
type quoteLevel uint

const (
	quoteNone quoteLevel = iota
	quoteDouble
)

// field is one expanded word-part run together with whether it came from
// a quoted context (and so must not be split or globbed).
type field struct {
	str    string
	quoted bool
}

// Literal expands w the way double quotes would: parameter, command, and
// arithmetic substitution run, but no field splitting or globbing happens.
// Used for here-doc delimiters, case patterns before glob translation, and
// ${#param}-style contexts that need a single joined string.
func (cfg *Config) Literal(w *syntax.Word) (string, error) {
	if w == nil {
		return "", nil
	}
	flds, err := cfg.wordFields(w.Parts, quoteDouble)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range flds {
		b.WriteString(f.str)
	}
	return b.String(), nil
}

// Pattern expands w for use as a glob/case pattern: like Literal, but glob
// metacharacters from unquoted parts (literal text and unquoted expansions
// alike) are preserved while ones from quoted parts are escaped, so "$x"
// with x="*" matches a literal asterisk rather than globbing.
func (cfg *Config) Pattern(w *syntax.Word) (string, error) {
	flds, err := cfg.wordFields(w.Parts, quoteNone)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range flds {
		if f.quoted {
			b.WriteString(globQuoteMeta(f.str))
		} else {
			b.WriteString(f.str)
		}
	}
	return b.String(), nil
}

func globQuoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Fields runs the full pipeline of spec.md §4.5 over a list of words: brace
// expansion, then per-word parameter/command/arithmetic expansion and field
// splitting, then pathname expansion, then quote removal.
func (cfg *Config) Fields(words ...*syntax.Word) ([]string, error) {
	var out []string
	for _, w := range words {
		for _, bw := range braceExpand(w) {
			strs, err := cfg.fieldsOne(bw)
			if err != nil {
				return nil, err
			}
			out = append(out, strs...)
		}
	}
	return out, nil
}

func (cfg *Config) fieldsOne(w *syntax.Word) ([]string, error) {
	parts, err := cfg.splitFields(w.Parts)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, grp := range parts {
		globbed := false
		var raw strings.Builder
		anyUnquotedMeta := false
		for _, f := range grp {
			raw.WriteString(f.str)
			if !f.quoted && pattern.HasMeta(f.str) {
				anyUnquotedMeta = true
			}
		}
		s := raw.String()
		if !cfg.NoGlob && anyUnquotedMeta && cfg.FS != nil {
			matches, globErr := cfg.glob(s)
			if globErr == nil && len(matches) > 0 {
				out = append(out, matches...)
				globbed = true
			}
		}
		if !globbed {
			out = append(out, s)
		}
	}
	return out, nil
}

// splitFields groups a word's parts into fields, honouring IFS splitting
// for unquoted expansions and keeping quoted runs (and quoted-empty
// results) together as a single field, the same shape the teacher's
// wordFields produces.
func (cfg *Config) splitFields(wps []syntax.WordPart) ([][]field, error) {
	flat, err := cfg.wordFields(wps, quoteNone)
	if err != nil {
		return nil, err
	}
	var groups [][]field
	var cur []field
	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
		}
	}
	for _, f := range flat {
		if f.quoted {
			cur = append(cur, f)
			continue
		}
		start := 0
		for i, r := range f.str {
			if cfg.ifsRune(r) {
				if i > start {
					cur = append(cur, field{str: f.str[start:i]})
				}
				flush()
				start = i + len(string(r))
			}
		}
		if start < len(f.str) || start == 0 {
			cur = append(cur, field{str: f.str[start:]})
		}
	}
	flush()
	if len(groups) == 0 {
		groups = [][]field{nil}
	}
	return groups, nil
}

// wordFields expands every part of wps in order, without splitting or
// globbing, tagging each resulting field with whether it must be protected
// from later splitting/globbing (quoted==true for anything produced inside
// quotes, or by a quoted expansion result).
func (cfg *Config) wordFields(wps []syntax.WordPart, ql quoteLevel) ([]field, error) {
	var out []field
	for _, wp := range wps {
		partFields, err := cfg.wordPart(wp, ql)
		if err != nil {
			return nil, err
		}
		out = append(out, partFields...)
	}
	return out, nil
}

func (cfg *Config) wordPart(wp syntax.WordPart, ql quoteLevel) ([]field, error) {
	quoted := ql == quoteDouble
	switch x := wp.(type) {
	case *syntax.Lit:
		return []field{{str: x.Value, quoted: quoted}}, nil
	case *syntax.SglQuoted:
		return []field{{str: x.Value, quoted: true}}, nil
	case *syntax.DblQuoted:
		innerFields, err := cfg.wordFields(x.Parts, quoteDouble)
		if err != nil {
			return nil, err
		}
		if len(innerFields) == 0 {
			return []field{{str: "", quoted: true}}, nil
		}
		return innerFields, nil
	case *syntax.Tilde:
		return []field{{str: cfg.expandTilde(x.Name), quoted: quoted}}, nil
	case *syntax.CmdSubst:
		s, err := cfg.cmdSubst(x)
		if err != nil {
			return nil, err
		}
		return []field{{str: s, quoted: quoted}}, nil
	case *syntax.ArithmExp:
		n, err := cfg.Arith(x.X)
		if err != nil {
			return nil, err
		}
		return []field{{str: fmt.Sprint(n), quoted: quoted}}, nil
	case *syntax.ProcSubst:
		// Process substitution has no real file-descriptor plumbing in
		// this emulator; it expands to empty, matching the documented
		// simplification for streams that only the host OS can open.
		return []field{{str: "", quoted: quoted}}, nil
	case *syntax.ExtGlob:
		lit, err := cfg.Literal(x.Pattern)
		if err != nil {
			return nil, err
		}
		return []field{{str: string(x.Op) + "(" + lit + ")", quoted: quoted}}, nil
	case *syntax.BraceExp:
		// Reached only when brace expansion is syntactically ambiguous
		// (nested inside another part); treat it as literal text.
		return []field{{str: braceExpLiteral(x), quoted: quoted}}, nil
	case *syntax.ParamExp:
		return cfg.paramExp(x, quoted)
	}
	return nil, fmt.Errorf("expand: unsupported word part %T", wp)
}

func (cfg *Config) cmdSubst(cs *syntax.CmdSubst) (string, error) {
	if cfg.CmdSubst == nil {
		return "", nil
	}
	var buf strings.Builder
	if err := cfg.CmdSubst(&buf, cs.Stmts); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (cfg *Config) expandTilde(name string) string {
	if name == "" {
		if home := cfg.envGet("HOME"); home != "" {
			return home
		}
		if u, err := user.Current(); err == nil {
			return u.HomeDir
		}
		return "~"
	}
	if u, err := user.Lookup(name); err == nil {
		return u.HomeDir
	}
	return "~" + name
}

// glob expands pat against cfg.FS using doublestar, whose pattern syntax
// (*, ?, [...], **) already matches shell globbing closely enough that no
// translation through package pattern is needed here; pattern.Regexp is
// reserved for the case/[[ == ]] matching paths that need a compiled
// *regexp.Regexp rather than a directory walk.
func (cfg *Config) glob(pat string) ([]string, error) {
	names, err := doublestar.Glob(cfg.FS, pat)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
