package interp

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/vercel-labs/vshell/registry"
	"github.com/vercel-labs/vshell/syntax"
)

// sortLinesCmd is a tiny registry.Command standing in for a coreutils-style
// "sort", used to exercise pipeline plumbing against the command registry.
type sortLinesCmd struct{}

func (sortLinesCmd) Name() string { return "sort" }

func (sortLinesCmd) Execute(ctx context.Context, args []string, cctx *registry.Context) (registry.ExecResult, error) {
	lines := strings.Split(strings.TrimSuffix(string(cctx.Stdin), "\n"), "\n")
	sort.Strings(lines)
	return registry.ExecResult{Stdout: []byte(strings.Join(lines, "\n") + "\n")}, nil
}

func runScript(t *testing.T, script string, opts ...RunnerOption) (stdout, stderr string, code int) {
	t.Helper()
	f, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out, errOut bytes.Buffer
	allOpts := append([]RunnerOption{StdIO(nil, &out, &errOut)}, opts...)
	r, err := New(allOpts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	code, err = r.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), errOut.String(), code
}

func TestEchoAndVariables(t *testing.T) {
	out, _, code := runScript(t, `x=hello; echo $x world`)
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
	if out != "hello world\n" {
		t.Fatalf("got %q", out)
	}
}

func TestIfElse(t *testing.T) {
	out, _, _ := runScript(t, `if true; then echo yes; else echo no; fi`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
	out, _, _ = runScript(t, `if false; then echo yes; else echo no; fi`)
	if out != "no\n" {
		t.Fatalf("got %q", out)
	}
}

func TestForLoopBreakContinue(t *testing.T) {
	out, _, _ := runScript(t, `for i in 1 2 3 4 5; do
		if [ "$i" = 3 ]; then continue; fi
		if [ "$i" = 5 ]; then break; fi
		echo $i
	done`)
	if out != "1\n2\n4\n" {
		t.Fatalf("got %q", out)
	}
}

func TestWhileLoop(t *testing.T) {
	out, _, _ := runScript(t, `i=0
	while [ "$i" -lt 3 ]; do
		echo $i
		i=$((i + 1))
	done`)
	if out != "0\n1\n2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestFunctionReturn(t *testing.T) {
	out, _, code := runScript(t, `f() { echo inside; return 7; }; f; echo "status=$?"`)
	if out != "inside\nstatus=7\n" {
		t.Fatalf("got %q", out)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestPipeline(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("sort", func() registry.Command { return sortLinesCmd{} })
	out, _, _ := runScript(t, `echo "b
a
c" | sort`, WithRegistry(reg))
	if out != "a\nb\nc\n" {
		t.Fatalf("got %q", out)
	}
}

func TestAndOr(t *testing.T) {
	out, _, _ := runScript(t, `true && echo yes || echo no`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
	out, _, _ = runScript(t, `false && echo yes || echo no`)
	if out != "no\n" {
		t.Fatalf("got %q", out)
	}
}

func TestCaseClause(t *testing.T) {
	out, _, _ := runScript(t, `x=foo
	case $x in
		foo) echo matched-foo ;;
		*) echo fallback ;;
	esac`)
	if out != "matched-foo\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSubshellIsolatesVars(t *testing.T) {
	out, _, _ := runScript(t, `x=outer
	(x=inner; echo "in-subshell=$x")
	echo "after=$x"`)
	if out != "in-subshell=inner\nafter=outer\n" {
		t.Fatalf("got %q", out)
	}
}

func TestCommandSubstitution(t *testing.T) {
	out, _, _ := runScript(t, `echo "result is $(echo nested)"`)
	if out != "result is nested\n" {
		t.Fatalf("got %q", out)
	}
}

func TestExitBuiltin(t *testing.T) {
	_, _, code := runScript(t, `exit 3`)
	if code != 3 {
		t.Fatalf("code = %d, want 3", code)
	}
}

func TestRedirection(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	f, err := syntax.NewParser().Parse(strings.NewReader(`echo hi > /tmp/out.txt`), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	data, err := r.FS.ReadFile("/tmp/out.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi\n" {
		t.Fatalf("got %q", data)
	}
}

func TestTestBuiltinArithmeticCompare(t *testing.T) {
	out, _, _ := runScript(t, `[ 3 -lt 5 ] && echo yes`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
}

func TestDoubleBracketRegex(t *testing.T) {
	out, _, _ := runScript(t, `[[ "hello123" =~ ^hello[0-9]+$ ]] && echo match`)
	if out != "match\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunawayLoopHitsExecutionLimit(t *testing.T) {
	f, err := syntax.NewParser().Parse(strings.NewReader(`while true; do :; done`), "")
	if err != nil {
		t.Fatal(err)
	}
	r, err := New(WithLimits(Limits{MaxLoopIterations: 10, MaxOutputBytes: 1 << 20}))
	if err != nil {
		t.Fatal(err)
	}
	code, err := r.Run(context.Background(), f)
	if code != LimitExitCode {
		t.Fatalf("code = %d, want %d", code, LimitExitCode)
	}
	if err == nil {
		t.Fatal("expected a non-nil error")
	}
	if _, ok := err.(*ExecutionLimitError); !ok {
		t.Fatalf("err = %T, want *ExecutionLimitError", err)
	}
}

func TestErrExitSkipsCondition(t *testing.T) {
	out, _, code := runScript(t, `set -e; if false; then echo no; fi; echo yes`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestErrExitSkipsWhileCondition(t *testing.T) {
	out, _, code := runScript(t, `set -e; while false; do echo no; done; echo yes`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestErrExitSkipsAndOrOperands(t *testing.T) {
	out, _, code := runScript(t, `set -e; false || echo recovered; echo yes`)
	if out != "recovered\nyes\n" {
		t.Fatalf("got %q", out)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestErrExitAbortsOnFinalFailure(t *testing.T) {
	out, _, code := runScript(t, `set -e; false; echo unreachable`)
	if out != "" {
		t.Fatalf("got %q, want no output", out)
	}
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
}

func TestPipefailReportsFailingStage(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("sort", func() registry.Command { return sortLinesCmd{} })

	out, _, code := runScript(t, `(exit 2) | (exit 0); echo $?`, WithRegistry(reg))
	if out != "0\n" {
		t.Fatalf("without pipefail: got %q, want last-stage status 0", out)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}

	out, _, _ = runScript(t, `set -o pipefail; (exit 2) | (exit 0); echo $?`, WithRegistry(reg))
	if out != "2\n" {
		t.Fatalf("with pipefail: got %q, want rightmost non-zero status 2", out)
	}
}

func TestPipefailAllSuccessIsZero(t *testing.T) {
	out, _, _ := runScript(t, `set -o pipefail; true | true; echo $?`)
	if out != "0\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSetDashDashResetsPositionals(t *testing.T) {
	out, _, _ := runScript(t, `set -- a b c; echo "$1 $2 $3"`)
	if out != "a b c\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSetOptionDoesNotClobberPositionals(t *testing.T) {
	out, _, _ := runScript(t, `set -- x y; set -o pipefail; echo "$1 $2"`)
	if out != "x y\n" {
		t.Fatalf("got %q, want positionals untouched by set -o", out)
	}
}

func TestRedirectDupHonorsSourceFD(t *testing.T) {
	// The block's own "2>/tmp/err.txt" redirect runs first, reassigning fd
	// 2; "echo hi 1>&2" then dups fd 1 onto fd 2's *current* target, so
	// echo's output lands in err.txt rather than the stdout stream.
	f, err := syntax.NewParser().Parse(strings.NewReader(`{ echo hi 1>&2; echo after; } 2>/tmp/err.txt`), "")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	r, err := New(StdIO(nil, &out, io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	errData, err := r.FS.ReadFile("/tmp/err.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(errData) != "hi\n" {
		t.Fatalf("stderr file = %q, want %q", errData, "hi\n")
	}
	if out.String() != "after\n" {
		t.Fatalf("stdout = %q, want %q", out.String(), "after\n")
	}
}

func TestRedirectDupDiscard(t *testing.T) {
	out, _, _ := runScript(t, `echo hi 1>&-; echo done`)
	if out != "done\n" {
		t.Fatalf("got %q", out)
	}
}
