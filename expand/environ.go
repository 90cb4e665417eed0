// Package expand implements the word-expansion pipeline of spec.md §4.5:
// brace expansion, tilde expansion, parameter expansion, command and
// arithmetic substitution, word splitting, pathname expansion, and quote
// removal, applied to the *syntax.Word values the parser produces.
package expand

import "sort"

// ValueKind classifies the shape of a shell variable's value, mirroring
// the tagged-union model the teacher's expand.Variable uses.
type ValueKind uint8

const (
	Unknown ValueKind = iota
	String
	Indexed
	Associative
	NameRef
)

// Variable is the in-memory representation of one shell variable cell.
type Variable struct {
	Local    bool
	Exported bool
	ReadOnly bool
	Kind     ValueKind
	Str      string
	List     []string          // Indexed
	Map      map[string]string // Associative
}

// IsSet reports whether the variable holds any value at all (as opposed to
// being an empty-but-declared cell, which still counts as set).
func (v Variable) IsSet() bool {
	return v.Kind != Unknown
}

// Environ is a read-only view of shell variables, analogous to the
// teacher's expand.Environ interface.
type Environ interface {
	Get(name string) Variable
	Each(func(name string, vr Variable) bool)
}

// WriteEnviron additionally allows setting and deleting variables.
type WriteEnviron interface {
	Environ
	Set(name string, vr Variable) error
	Delete(name string) error
}

// Resolve follows a chain of NameRef variables up to depth levels (bash
// caps this at 100 to guard against cycles) and returns the name and value
// of the variable ultimately referred to.
func Resolve(env Environ, name string, maxDepth int) (string, Variable) {
	seen := map[string]bool{}
	for i := 0; i < maxDepth; i++ {
		if seen[name] {
			break
		}
		seen[name] = true
		v := env.Get(name)
		if v.Kind != NameRef || v.Str == "" {
			return name, v
		}
		name = v.Str
	}
	return name, Variable{}
}

// NamesByPrefix returns every variable name with the given prefix, sorted,
// used by ${!prefix*} / ${!prefix@}.
func NamesByPrefix(env Environ, prefix string) []string {
	var names []string
	env.Each(func(name string, _ Variable) bool {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// ListEnviron is the simplest WriteEnviron: an in-memory map, usable
// standalone for testing or as the backing store behind a session's
// variable scope stack.
type ListEnviron struct {
	vars map[string]Variable
}

func NewListEnviron(pairs ...string) *ListEnviron {
	le := &ListEnviron{vars: map[string]Variable{}}
	for _, kv := range pairs {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				le.vars[kv[:i]] = Variable{Kind: String, Str: kv[i+1:], Exported: true}
				break
			}
		}
	}
	return le
}

func (le *ListEnviron) Get(name string) Variable { return le.vars[name] }

func (le *ListEnviron) Each(f func(string, Variable) bool) {
	for name, v := range le.vars {
		if !f(name, v) {
			return
		}
	}
}

func (le *ListEnviron) Set(name string, v Variable) error {
	le.vars[name] = v
	return nil
}

func (le *ListEnviron) Delete(name string) error {
	delete(le.vars, name)
	return nil
}
