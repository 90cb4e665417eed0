// Package registry implements the command dispatch seam spec.md §4.9/§6
// describes: a name-keyed table of external commands the interpreter falls
// back to once alias, function, and builtin lookups are exhausted. It
// generalizes the teacher's single ExecHandlerFunc (interp/handler.go) into
// a name -> factory map, the same step up from "one seam" to "a registry of
// seams" that distinguishes a pluggable command table from a single exec
// hook.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vercel-labs/vshell/expand"
	"github.com/vercel-labs/vshell/vfs"
)

// ExecResult is the outcome of running one registered command.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Limits mirrors interp.Limits for registered commands that want to respect
// the same execution ceilings as builtins (e.g. a registered command that
// itself loops).
type Limits struct {
	MaxLoopIterations int
	MaxRecursionDepth int
	MaxPatternSpace   int
	MaxOutputBytes    int
}

// Context is passed to every registered Command's Execute call, carrying
// exactly the state a HandlerContext would (spec.md §6's registry.Context).
type Context struct {
	Cwd   string
	Env   expand.Environ
	Stdin []byte
	FS    *vfs.FS

	// Exec lets a registered command shell out to another registered or
	// external command (e.g. a "sh -c" style builtin implemented as a
	// registry entry), grounded on HandlerContext's recursive call seam.
	Exec func(ctx context.Context, cmdline string, cwd string) (ExecResult, error)

	Limits Limits
}

// Command is one entry in the registry: an external command the
// interpreter can dispatch a CallExpr to once it isn't an alias, function,
// or builtin.
type Command interface {
	Name() string
	Execute(ctx context.Context, args []string, cctx *Context) (ExecResult, error)
}

// Factory constructs a fresh Command instance per dispatch, so a Command
// implementation may hold per-invocation state without needing to be
// reentrant across goroutines (the single-threaded execution model of
// spec.md §5 means at most one Execute call is ever in flight per Runner,
// but a Factory still avoids any call accidentally sharing state across a
// session's repeated Exec calls).
type Factory func() Command

// CommandNotFoundError is returned (and mapped to exit code 127, matching
// a POSIX shell) when no alias, function, builtin, or registered command
// matches a call's name.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

// Registry is a name-keyed table of command factories. The zero value is
// ready to use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Factory{}}
}

// Register installs factory under name, replacing any existing entry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = map[string]Factory{}
	}
	r.funcs[name] = factory
}

// Unregister removes name from the registry, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
}

// Lookup returns the factory registered under name, if any.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

// Names returns every registered command name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch looks up name and, if found, constructs and runs a Command,
// returning CommandNotFoundError otherwise.
func (r *Registry) Dispatch(ctx context.Context, name string, args []string, cctx *Context) (ExecResult, error) {
	factory, ok := r.Lookup(name)
	if !ok {
		return ExecResult{ExitCode: 127}, &CommandNotFoundError{Name: name}
	}
	cmd := factory()
	return cmd.Execute(ctx, args, cctx)
}
