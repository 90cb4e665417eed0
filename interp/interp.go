// Package interp walks the syntax tree the parser produces and executes it
// against a vfs.FS and a registry.Registry, the same tree-walking design the
// teacher's interp.Runner uses (interp/interp.go), generalized so every
// side-effecting operation — file access, command dispatch, pipe plumbing —
// goes through the injected vfs/registry seams instead of the host OS.
package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vercel-labs/vshell/expand"
	"github.com/vercel-labs/vshell/internal/rope"
	"github.com/vercel-labs/vshell/pattern"
	"github.com/vercel-labs/vshell/registry"
	"github.com/vercel-labs/vshell/syntax"
	"github.com/vercel-labs/vshell/token"
	"github.com/vercel-labs/vshell/vfs"
)

// Runner holds all the state of one interpreter instance: variables,
// functions, the current directory, and the I/O streams in play, mirroring
// the teacher's Runner struct while swapping its os.* state for vfs/registry
// equivalents.
type Runner struct {
	Env      expand.WriteEnviron // backing store for exported/inherited vars
	FS       *vfs.FS
	Registry *registry.Registry

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Dir string

	limits Limits

	globals map[string]expand.Variable
	scopes  []scope
	funcs   map[string]*syntax.Stmt
	aliases map[string]string

	params []string
	name   string
	pid    int

	exit     int
	noGlob   bool
	globStar bool
	errExit  bool // set -e
	unsetErr bool // set -u
	xtrace   bool // set -x
	pipefail bool // set -o pipefail

	funcDepth   int
	loopIters   int
	outputBytes int

	ecfg *expand.Config
}

// RunnerOption configures a Runner at construction time, the same functional
// -options pattern the teacher's RunnerOption uses.
type RunnerOption func(*Runner) error

// New builds a Runner, applying opts in order. A nil FS or Registry is
// replaced with a freshly seeded vfs.New()/registry.NewRegistry() so callers
// that only care about pure computation don't have to wire either up.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		Env:     expand.NewListEnviron(),
		globals: map[string]expand.Variable{},
		funcs:   map[string]*syntax.Stmt{},
		aliases: map[string]string{},
		Dir:     "/",
		pid:     1,
		name:    "vsh",
		limits:  DefaultLimits(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.FS == nil {
		r.FS = vfs.New()
	}
	if r.Registry == nil {
		r.Registry = registry.NewRegistry()
	}
	if r.Stdin == nil {
		r.Stdin = bytes.NewReader(nil)
	}
	if r.Stdout == nil {
		r.Stdout = io.Discard
	}
	if r.Stderr == nil {
		r.Stderr = io.Discard
	}
	r.ecfg = &expand.Config{
		Env:      runnerEnv{r},
		NoGlob:   r.noGlob,
		GlobStar: r.globStar,
		FS:       r.FS,
		CmdSubst: r.cmdSubst,
		OnError:  func(error) {},
	}
	return r, nil
}

// Params sets the positional parameters ($1, $2, ...).
func Params(args ...string) RunnerOption {
	return func(r *Runner) error {
		r.params = args
		return nil
	}
}

// Dir sets the initial working directory.
func Dir(dir string) RunnerOption {
	return func(r *Runner) error {
		r.Dir = dir
		return nil
	}
}

// WithFS supplies the virtual filesystem the Runner operates against.
func WithFS(fsys *vfs.FS) RunnerOption {
	return func(r *Runner) error {
		r.FS = fsys
		return nil
	}
}

// WithRegistry supplies the external-command dispatch table.
func WithRegistry(reg *registry.Registry) RunnerOption {
	return func(r *Runner) error {
		r.Registry = reg
		return nil
	}
}

// StdIO wires the Runner's standard streams.
func StdIO(in io.Reader, out, err io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.Stdin, r.Stdout, r.Stderr = in, out, err
		return nil
	}
}

// WithLimits overrides DefaultLimits().
func WithLimits(l Limits) RunnerOption {
	return func(r *Runner) error {
		r.limits = l
		return nil
	}
}

// Run executes every statement of f in order, returning the final exit
// status. Non-local control flow (break/continue/return/exit) propagates via
// controlSignal panics and is recovered here, so the unexported signal type
// never reaches a caller.
func (r *Runner) Run(ctx context.Context, f *syntax.File) (code int, err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		switch sig := v.(type) {
		case controlSignal:
			switch sig.kind {
			case ctlExit, ctlReturn:
				code = sig.count
			default:
				code = r.exit
			}
		case *ExecutionLimitError:
			code = LimitExitCode
			err = sig
		default:
			panic(v)
		}
	}()
	for _, stmt := range f.Stmts {
		if err := ctx.Err(); err != nil {
			return r.exit, err
		}
		r.stmt(ctx, stmt)
	}
	return r.exit, nil
}

// stmt executes one statement, honouring Negated/Background/redirections
// and the assignments that precede a bare command, then applies the
// ambient "set -e" check against its resulting status.
//
// This check belongs here, at the outer boundary of a statement, rather
// than being threaded into every inner helper: an if/while condition and
// a non-final &&/||/pipe operand are each still run through exactly one
// stmt/stmtNoErrExit call, so exempting those call sites is sufficient to
// keep errexit from firing on a "deliberately tested, expected to fail"
// sub-command (spec.md §4.6) while still catching a plain failing command
// anywhere else.
func (r *Runner) stmt(ctx context.Context, s *syntax.Stmt) {
	r.stmtExec(ctx, s)
	if r.errExit && r.exit != 0 {
		panic(controlSignal{kind: ctlExit, count: r.exit})
	}
}

// stmtNoErrExit runs s the same way stmt does but without the trailing
// errexit check, for statements whose own failing status is expected and
// must not abort the script: if/while/until conditions, and the non-final
// operands of &&, ||, and | chains (the chain's own overall status, once
// resolved, is still checked by the stmt call wrapping the whole chain).
func (r *Runner) stmtNoErrExit(ctx context.Context, s *syntax.Stmt) {
	r.stmtExec(ctx, s)
}

func (r *Runner) stmtExec(ctx context.Context, s *syntax.Stmt) {
	if len(s.Assigns) > 0 && s.Cmd == nil {
		for _, as := range s.Assigns {
			r.doAssign(as, "")
		}
		r.exit = 0
		return
	}

	closers, err := r.applyRedirects(s.Redirs)
	defer closers()
	if err != nil {
		r.Stderr.Write([]byte(err.Error() + "\n"))
		r.exit = 1
		return
	}

	if len(s.Assigns) > 0 {
		r.pushScope()
		for _, as := range s.Assigns {
			r.doAssign(as, "")
		}
		defer r.popScope()
	}

	if s.Cmd != nil {
		r.cmd(ctx, s.Cmd)
	} else {
		r.exit = 0
	}

	if s.Negated {
		if r.exit == 0 {
			r.exit = 1
		} else {
			r.exit = 0
		}
	}
}

// condStmts runs the statement list forming an if/while/until condition
// without triggering errexit on a false/failing result, the exemption
// spec.md §4.6 carves out for condition evaluation.
func (r *Runner) condStmts(ctx context.Context, stmts []*syntax.Stmt) {
	for _, s := range stmts {
		r.stmtNoErrExit(ctx, s)
	}
}

func (r *Runner) doAssign(as *syntax.Assign, valType string) {
	vr := r.assignVal(as, valType)
	switch valType {
	case "export":
		vr.Exported = true
	case "readonly":
		vr.ReadOnly = true
	case "local":
		vr.Local = true
		r.setLocal(as.Name.Value, vr)
		return
	}
	r.setVar(as.Name.Value, vr)
}

// cmd dispatches one Command node, the counterpart of the teacher's
// Runner.cmd switch (interp/interp.go lines ~691-1005).
func (r *Runner) cmd(ctx context.Context, c syntax.Command) {
	switch x := c.(type) {
	case *syntax.CallExpr:
		r.call(ctx, x)
	case *syntax.Block:
		r.stmts(ctx, x.Stmts)
	case *syntax.Subshell:
		r.subshell(ctx, x.Stmts)
	case *syntax.BinaryCmd:
		r.binaryCmd(ctx, x)
	case *syntax.IfClause:
		r.ifClause(ctx, x)
	case *syntax.WhileClause:
		r.whileClause(ctx, x)
	case *syntax.ForClause:
		r.forClause(ctx, x)
	case *syntax.CaseClause:
		r.caseClause(ctx, x)
	case *syntax.FuncDecl:
		r.funcs[x.Name.Value] = x.Body
		r.exit = 0
	case *syntax.ArithmCmd:
		n, err := r.ecfg.Arith(x.X)
		if err != nil {
			r.exit = 1
			return
		}
		r.exit = boolStatus(n != 0)
	case *syntax.LetClause:
		var last int64
		for _, e := range x.Exprs {
			n, err := r.ecfg.Arith(e)
			if err != nil {
				r.exit = 1
				return
			}
			last = n
		}
		r.exit = boolStatus(last != 0)
	case *syntax.TestClause:
		r.exit = boolStatus(r.evalTest(x.X))
	case *syntax.DeclClause:
		r.declClause(ctx, x)
	case *syntax.TimeClause:
		if x.Stmt != nil {
			r.stmt(ctx, x.Stmt)
		} else {
			r.exit = 0
		}
	default:
		r.exit = 1
	}
}

func (r *Runner) stmts(ctx context.Context, stmts []*syntax.Stmt) {
	for _, s := range stmts {
		r.stmt(ctx, s)
	}
}

// subshell runs stmts in a forked Runner state so variable, directory, and
// function mutations never escape back to the parent (spec.md §4.6).
func (r *Runner) subshell(ctx context.Context, stmts []*syntax.Stmt) {
	child := r.fork()
	defer func() {
		if v := recover(); v != nil {
			sig, ok := v.(controlSignal)
			if !ok {
				panic(v)
			}
			r.exit = sig.count
		}
	}()
	child.stmts(ctx, stmts)
	r.exit = child.exit
}

// fork copies Runner state into a new instance sharing the same FS and
// Registry but an independent variable/scope snapshot, the same role the
// teacher's Runner.Subshell plays for "( ... )" and command substitution.
func (r *Runner) fork() *Runner {
	child := &Runner{
		Env:      r.Env,
		FS:       r.FS,
		Registry: r.Registry,
		Stdin:    r.Stdin,
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		Dir:      r.Dir,
		limits:   r.limits,
		globals:  map[string]expand.Variable{},
		funcs:    map[string]*syntax.Stmt{},
		aliases:  map[string]string{},
		params:   append([]string(nil), r.params...),
		name:     r.name,
		pid:      r.pid,
		exit:     r.exit,
		noGlob:   r.noGlob,
		globStar: r.globStar,
		errExit:  r.errExit,
		unsetErr: r.unsetErr,
		xtrace:   r.xtrace,
		pipefail: r.pipefail,
	}
	for k, v := range r.globals {
		child.globals[k] = v
	}
	for _, sc := range r.scopes {
		vars := make(map[string]expand.Variable, len(sc.vars))
		for k, v := range sc.vars {
			vars[k] = v
		}
		child.scopes = append(child.scopes, scope{vars: vars})
	}
	for k, v := range r.funcs {
		child.funcs[k] = v
	}
	for k, v := range r.aliases {
		child.aliases[k] = v
	}
	child.ecfg = &expand.Config{
		Env:      runnerEnv{child},
		NoGlob:   child.noGlob,
		GlobStar: child.globStar,
		FS:       child.FS,
		CmdSubst: child.cmdSubst,
		OnError:  func(error) {},
	}
	return child
}

func (r *Runner) binaryCmd(ctx context.Context, b *syntax.BinaryCmd) {
	switch b.Op {
	case syntax.AndStmt:
		r.stmtNoErrExit(ctx, b.X)
		if r.exit == 0 {
			r.stmtNoErrExit(ctx, b.Y)
		}
	case syntax.OrStmt:
		r.stmtNoErrExit(ctx, b.X)
		if r.exit != 0 {
			r.stmtNoErrExit(ctx, b.Y)
		}
	case syntax.Pipe, syntax.PipeAll:
		r.runPipeline(ctx, flattenPipe(b))
	}
}

// flattenPipe walks the right-recursive BinaryCmd chain the parser builds
// for "a | b | c" into an ordered stage list.
func flattenPipe(b *syntax.BinaryCmd) []*syntax.Stmt {
	var out []*syntax.Stmt
	for {
		out = append(out, b.X)
		if bc, ok := b.Y.Cmd.(*syntax.BinaryCmd); ok && (bc.Op == syntax.Pipe || bc.Op == syntax.PipeAll) {
			b = bc
			continue
		}
		out = append(out, b.Y)
		return out
	}
}

func (r *Runner) ifClause(ctx context.Context, c *syntax.IfClause) {
	r.condStmts(ctx, c.Cond)
	if r.exit == 0 {
		r.stmts(ctx, c.Then)
		return
	}
	for _, el := range c.Elifs {
		r.condStmts(ctx, el.Cond)
		if r.exit == 0 {
			r.stmts(ctx, el.Then)
			return
		}
	}
	if c.HasElse {
		r.stmts(ctx, c.Else)
	} else {
		r.exit = 0
	}
}

func (r *Runner) whileClause(ctx context.Context, w *syntax.WhileClause) {
	for {
		r.condStmts(ctx, w.Cond)
		cont := r.exit == 0
		if w.Until {
			cont = !cont
		}
		if !cont {
			break
		}
		if r.runLoopBody(ctx, w.Do) {
			break
		}
	}
	r.exit = 0
}

// runLoopBody executes one iteration's body, catching break/continue and
// reporting whether the enclosing loop should stop entirely.
func (r *Runner) runLoopBody(ctx context.Context, body []*syntax.Stmt) (stop bool) {
	r.checkLoopBudget()
	defer func() {
		if v := recover(); v != nil {
			sig, ok := v.(controlSignal)
			if !ok {
				panic(v)
			}
			switch sig.kind {
			case ctlBreak:
				if sig.count > 1 {
					panic(controlSignal{kind: ctlBreak, count: sig.count - 1})
				}
				stop = true
			case ctlContinue:
				if sig.count > 1 {
					panic(controlSignal{kind: ctlContinue, count: sig.count - 1})
				}
			default:
				panic(v)
			}
		}
	}()
	r.stmts(ctx, body)
	return false
}

func (r *Runner) forClause(ctx context.Context, f *syntax.ForClause) {
	switch loop := f.Loop.(type) {
	case *syntax.WordIter:
		var items []string
		if loop.InPos != 0 || len(loop.Items) > 0 {
			words, err := r.ecfg.Fields(loop.Items...)
			if err != nil {
				r.exit = 1
				return
			}
			items = words
		} else {
			items = r.params
		}
		for _, it := range items {
			r.setVarString(loop.Name.Value, it)
			if r.runLoopBody(ctx, f.Do) {
				break
			}
		}
	case *syntax.CStyleLoop:
		if loop.Init != nil {
			if _, err := r.ecfg.Arith(loop.Init); err != nil {
				r.exit = 1
				return
			}
		}
		for {
			if loop.Cond != nil {
				n, err := r.ecfg.Arith(loop.Cond)
				if err != nil || n == 0 {
					break
				}
			}
			if r.runLoopBody(ctx, f.Do) {
				break
			}
			if loop.Post != nil {
				if _, err := r.ecfg.Arith(loop.Post); err != nil {
					break
				}
			}
		}
	}
	r.exit = 0
}

func (r *Runner) caseClause(ctx context.Context, c *syntax.CaseClause) {
	subject, err := r.ecfg.Literal(c.Word)
	if err != nil {
		r.exit = 1
		return
	}
	r.exit = 0
	fallingThrough := false
	for _, item := range c.Items {
		matched := fallingThrough
		if !matched {
			for _, pat := range item.Patterns {
				glob, err := r.ecfg.Pattern(pat)
				if err != nil {
					continue
				}
				if ok, err := pattern.Match(glob, subject, 0); err == nil && ok {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		r.stmts(ctx, item.Stmts)
		if item.Op == token.SEMIFALL {
			fallingThrough = true
			continue
		}
		if item.Op == token.DSEMIFALL {
			fallingThrough = false
			continue
		}
		return
	}
}

func (r *Runner) declClause(ctx context.Context, d *syntax.DeclClause) {
	valType := ""
	switch d.Variant {
	case "export":
		valType = "export"
	case "readonly":
		valType = "readonly"
	case "local":
		valType = "local"
	}
	arrayFlag := ""
	for _, opt := range d.Opts {
		s, err := r.ecfg.Literal(opt)
		if err != nil {
			continue
		}
		if s == "-A" {
			arrayFlag = "-A"
		}
	}
	for _, as := range d.Assigns {
		r.doAssign(as, valTypeOrArray(valType, arrayFlag, as))
	}
	r.exit = 0
}

func valTypeOrArray(valType, arrayFlag string, as *syntax.Assign) string {
	if arrayFlag == "-A" && as.Array != nil {
		return "-A"
	}
	return valType
}

func boolStatus(b bool) int {
	if b {
		return 0
	}
	return 1
}

// cmdSubst backs expand.Config.CmdSubst: runs stmts in a forked Runner with
// stdout captured into a bounded rope instead of the real Stdout, mirroring
// the teacher's Context.Subshell hook used for "$(...)".
func (r *Runner) cmdSubst(w io.Writer, stmts []*syntax.Stmt) error {
	child := r.fork()
	buf := rope.Capped(r.limits.MaxOutputBytes)
	child.Stdout = buf
	func() {
		defer func() {
			if v := recover(); v != nil {
				if _, ok := v.(controlSignal); !ok {
					panic(v)
				}
			}
		}()
		child.stmts(context.Background(), stmts)
	}()
	_, err := w.Write(buf.Bytes())
	return err
}

// call resolves x.Args[0] against aliases, functions, builtins, and finally
// the command registry, in that order (spec.md §4.9).
func (r *Runner) call(ctx context.Context, x *syntax.CallExpr) {
	if len(x.Args) == 0 {
		r.exit = 0
		return
	}
	args, err := r.ecfg.Fields(x.Args...)
	if err != nil || len(args) == 0 {
		r.exit = 1
		return
	}
	if alias, ok := r.aliases[args[0]]; ok {
		aliasArgs := append(strings.Fields(alias), args[1:]...)
		r.dispatchArgs(ctx, aliasArgs)
		return
	}
	r.dispatchArgs(ctx, args)
}

// dispatchArgs resolves an already-expanded command line against
// functions, builtins, and finally the command registry, in that order
// (spec.md §4.9). Both call (simple commands) and the "command" builtin
// funnel through here.
func (r *Runner) dispatchArgs(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.exit = 0
		return
	}

	if body, ok := r.funcs[args[0]]; ok {
		r.callFunc(ctx, body, args[1:])
		return
	}

	if fn, ok := builtins[args[0]]; ok {
		r.exit = fn(ctx, r, args[1:])
		return
	}

	stdin, _ := io.ReadAll(r.Stdin)
	cctx := &registry.Context{
		Cwd:   r.Dir,
		Env:   runnerEnv{r},
		Stdin: stdin,
		FS:    r.FS,
		Exec:  r.execSub,
		Limits: registry.Limits{
			MaxLoopIterations: r.limits.MaxLoopIterations,
			MaxRecursionDepth: r.limits.MaxRecursionDepth,
			MaxPatternSpace:   r.limits.MaxPatternSpace,
			MaxOutputBytes:    r.limits.MaxOutputBytes,
		},
	}
	res, err := r.Registry.Dispatch(ctx, args[0], args[1:], cctx)
	if err != nil {
		if _, ok := err.(*registry.CommandNotFoundError); ok {
			fmt.Fprintf(r.Stderr, "%s: command not found\n", args[0])
			r.exit = 127
			return
		}
		r.exit = 1
		return
	}
	r.Stdout.Write(res.Stdout)
	r.Stderr.Write(res.Stderr)
	r.exit = res.ExitCode
}

// execSub lets a registered Command shell back into this Runner for
// "sh -c"-style recursive invocation.
func (r *Runner) execSub(ctx context.Context, cmdline string, cwd string) (registry.ExecResult, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmdline), "")
	if err != nil {
		return registry.ExecResult{ExitCode: 2}, err
	}
	child := r.fork()
	child.Dir = cwd
	var out, errOut bytes.Buffer
	child.Stdout = &out
	child.Stderr = &errOut
	code, runErr := child.Run(ctx, prog)
	return registry.ExecResult{Stdout: out.Bytes(), Stderr: errOut.Bytes(), ExitCode: code}, runErr
}

// parseArithString parses a standalone arithmetic expression (as taken by
// the "let" builtin) by wrapping it in a throwaway
// "((...))" command and pulling out its parsed ArithmExpr, since the
// grammar has no entry point that parses arithmetic outside of a command
// or expansion context.
func (r *Runner) parseArithString(expr string) (syntax.ArithmExpr, error) {
	f, err := syntax.NewParser().Parse(strings.NewReader("((" + expr + "))"), "")
	if err != nil {
		return nil, err
	}
	if len(f.Stmts) == 0 {
		return nil, fmt.Errorf("empty arithmetic expression")
	}
	ac, ok := f.Stmts[0].Cmd.(*syntax.ArithmCmd)
	if !ok {
		return nil, fmt.Errorf("not an arithmetic expression")
	}
	return ac.X, nil
}

// readLine reads one newline-terminated line from r.Stdin for the "read"
// builtin.
func (r *Runner) readLine() (string, bool) {
	var b []byte
	buf := make([]byte, 1)
	read := false
	for {
		n, err := r.Stdin.Read(buf)
		if n > 0 {
			read = true
			if buf[0] == '\n' {
				return string(b), true
			}
			b = append(b, buf[0])
		}
		if err != nil {
			return string(b), read
		}
	}
}

// callFunc invokes a shell function body with args bound as positional
// parameters within a fresh variable scope, enforcing the recursion ceiling.
func (r *Runner) callFunc(ctx context.Context, body *syntax.Stmt, args []string) {
	r.funcDepth++
	r.checkRecursionBudget()
	savedParams := r.params
	r.params = args
	r.pushScope()
	defer func() {
		r.popScope()
		r.params = savedParams
		r.funcDepth--
		if v := recover(); v != nil {
			sig, ok := v.(controlSignal)
			if !ok {
				panic(v)
			}
			if sig.kind == ctlReturn {
				r.exit = sig.count
				return
			}
			panic(v)
		}
	}()
	r.stmt(ctx, body)
}

// Write-through helper used by the "echo"/"printf"-style builtins to keep
// the global output-budget ledger honest even when writing directly to
// r.Stdout rather than through cmdSubst's rope.
func (r *Runner) writeStdout(p []byte) {
	r.checkOutputBudget(len(p))
	r.Stdout.Write(p)
}
