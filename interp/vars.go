package interp

import (
	"sort"

	"github.com/vercel-labs/vshell/expand"
	"github.com/vercel-labs/vshell/syntax"
)

// scope is one frame of local-variable shadowing, pushed on function entry
// (spec.md §4.6) and popped on return.
type scope struct {
	vars map[string]expand.Variable
}

// runnerEnv adapts a Runner to expand.WriteEnviron, the same thin-wrapper
// pattern the teacher's expandEnv uses (interp/interp.go) to let Runner own
// variable storage directly while still satisfying the expand package's
// interface.
type runnerEnv struct{ r *Runner }

var _ expand.WriteEnviron = runnerEnv{}

func (e runnerEnv) Get(name string) expand.Variable { return e.r.lookupVar(name) }
func (e runnerEnv) Set(name string, vr expand.Variable) error {
	e.r.setVar(name, vr)
	return nil
}
func (e runnerEnv) Delete(name string) error {
	e.r.deleteVar(name)
	return nil
}
func (e runnerEnv) Each(fn func(string, expand.Variable) bool) {
	seen := map[string]bool{}
	for i := len(e.r.scopes) - 1; i >= 0; i-- {
		for name, vr := range e.r.scopes[i].vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !fn(name, vr) {
				return
			}
		}
	}
	for name, vr := range e.r.globals {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !fn(name, vr) {
			return
		}
	}
}

// lookupVar resolves name against the innermost-to-outermost local scope
// stack, then the global table, honouring the special positional/"@"/"*"/
// "#" parameters.
func (r *Runner) lookupVar(name string) expand.Variable {
	switch name {
	case "@", "*":
		return expand.Variable{Kind: expand.Indexed, List: append([]string(nil), r.params...)}
	case "#":
		return expand.Variable{Kind: expand.String, Str: itoa(len(r.params))}
	case "?":
		return expand.Variable{Kind: expand.String, Str: itoa(r.exit)}
	case "$":
		return expand.Variable{Kind: expand.String, Str: itoa(r.pid)}
	case "0":
		return expand.Variable{Kind: expand.String, Str: r.name}
	case "IFS":
		if vr, ok := r.lookupPlain("IFS"); ok {
			return vr
		}
		return expand.Variable{Kind: expand.String, Str: " \t\n"}
	}
	if n, ok := positionalIndex(name); ok {
		if n == 0 {
			return expand.Variable{Kind: expand.String, Str: r.name}
		}
		if n <= len(r.params) {
			return expand.Variable{Kind: expand.String, Str: r.params[n-1]}
		}
		return expand.Variable{}
	}
	if vr, ok := r.lookupPlain(name); ok {
		return vr
	}
	return r.Env.Get(name)
}

func (r *Runner) lookupPlain(name string) (expand.Variable, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if vr, ok := r.scopes[i].vars[name]; ok {
			return vr, true
		}
	}
	if vr, ok := r.globals[name]; ok {
		return vr, true
	}
	return expand.Variable{}, false
}

func positionalIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// setVar stores vr under name in the innermost scope it's already declared
// in, or the global table if it's new (or there are no active scopes).
func (r *Runner) setVar(name string, vr expand.Variable) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].vars[name]; ok {
			r.scopes[i].vars[name] = vr
			return
		}
	}
	if vr.Exported {
		r.Env.Set(name, vr)
	}
	r.globals[name] = vr
}

// setLocal declares name in the current (innermost) scope, shadowing any
// outer definition — what DeclClause{Variant:"local"} uses.
func (r *Runner) setLocal(name string, vr expand.Variable) {
	if len(r.scopes) == 0 {
		r.globals[name] = vr
		return
	}
	vr.Local = true
	r.scopes[len(r.scopes)-1].vars[name] = vr
}

func (r *Runner) setVarString(name, value string) {
	r.setVar(name, expand.Variable{Kind: expand.String, Str: value})
}

func (r *Runner) deleteVar(name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].vars[name]; ok {
			delete(r.scopes[i].vars, name)
			return
		}
	}
	delete(r.globals, name)
}

func (r *Runner) pushScope() {
	r.scopes = append(r.scopes, scope{vars: map[string]expand.Variable{}})
}

func (r *Runner) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// assignVal evaluates the right-hand side of an *syntax.Assign, producing
// the expand.Variable it resolves to (string, indexed array, or
// associative array), grounded on the teacher's Runner.assignVal.
func (r *Runner) assignVal(as *syntax.Assign, valType string) expand.Variable {
	if as.Array != nil {
		return r.arrayVal(as, valType)
	}
	if as.Naked {
		return expand.Variable{Kind: expand.Unknown}
	}
	if valType == "-A" {
		m := map[string]string{}
		if as.Value != nil {
			s, err := r.ecfg.Literal(as.Value)
			if err == nil {
				m[""] = s
			}
		}
		return expand.Variable{Kind: expand.Associative, Map: m}
	}
	s, err := r.ecfg.Literal(as.Value)
	if err != nil {
		s = ""
	}
	if as.Append {
		name := as.Name.Value
		old, _ := r.lookupPlain(name)
		switch old.Kind {
		case expand.Indexed:
			old.List = append(old.List, s)
			return old
		case expand.String:
			old.Str += s
			return old
		}
	}
	return expand.Variable{Kind: expand.String, Str: s}
}

func (r *Runner) arrayVal(as *syntax.Assign, valType string) expand.Variable {
	if valType == "-A" {
		m := map[string]string{}
		for _, elem := range as.Array.Elems {
			key := ""
			if elem.Index != nil {
				k, err := r.ecfg.Literal(indexWordOf(elem.Index))
				if err == nil {
					key = k
				}
			}
			val, _ := r.ecfg.Literal(elem.Value)
			m[key] = val
		}
		return expand.Variable{Kind: expand.Associative, Map: m}
	}
	var list []string
	for _, elem := range as.Array.Elems {
		vals, err := r.ecfg.Fields(elem.Value)
		if err != nil {
			continue
		}
		list = append(list, vals...)
	}
	return expand.Variable{Kind: expand.Indexed, List: list}
}

// indexWordOf is a defensive fallback for an associative-array literal
// index that the parser represented as an arithmetic word rather than a
// bare string key; in practice DeclClause array literals always carry a
// *syntax.Word here since keys in "([k]=v)" are unquoted words.
func indexWordOf(x syntax.ArithmExpr) *syntax.Word {
	if w, ok := x.(*syntax.Word); ok {
		return w
	}
	return &syntax.Word{}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// sortedKeys is a small helper shared by builtins that print variables
// (export and readonly without operands) in a stable order.
func sortedKeys(m map[string]expand.Variable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
