package expand

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vercel-labs/vshell/syntax"
)

// parseWords parses line as a simple command and returns the *syntax.Word
// arguments following the command name, the same shape interp.call sees.
func parseWords(t *testing.T, line string) []*syntax.Word {
	t.Helper()
	f, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	return call.Args[1:]
}

func TestFieldsParamAndSplitting(t *testing.T) {
	env := NewListEnviron("FOO=bar baz", "IFS= \t\n")
	cfg := &Config{Env: env}
	words := parseWords(t, `echo $FOO`)
	got, err := cfg.Fields(words...)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bar", "baz"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsQuotedNoSplit(t *testing.T) {
	env := NewListEnviron("FOO=bar baz")
	cfg := &Config{Env: env}
	words := parseWords(t, `echo "$FOO"`)
	got, err := cfg.Fields(words...)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "bar baz" {
		t.Fatalf("got %v, want [\"bar baz\"]", got)
	}
}

func TestBraceExpandSequence(t *testing.T) {
	words := parseWords(t, `echo file{1..3}.txt`)
	cfg := &Config{Env: NewListEnviron()}
	got, err := cfg.Fields(words...)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"file1.txt", "file2.txt", "file3.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestBraceExpandList(t *testing.T) {
	words := parseWords(t, `echo a{x,y,z}b`)
	cfg := &Config{Env: NewListEnviron()}
	got, err := cfg.Fields(words...)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"axb", "ayb", "azb"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestArithBasic(t *testing.T) {
	cfg := &Config{Env: NewListEnviron()}
	f, err := syntax.NewParser().Parse(strings.NewReader("((2 + 3 * 4))"), "")
	if err != nil {
		t.Fatal(err)
	}
	cmd := f.Stmts[0].Cmd.(*syntax.ArithmCmd)
	n, err := cfg.Arith(cmd.X)
	if err != nil {
		t.Fatal(err)
	}
	if n != 14 {
		t.Fatalf("got %d, want 14", n)
	}
}

func TestArithAssignment(t *testing.T) {
	env := NewListEnviron("x=1")
	cfg := &Config{Env: env}
	f, err := syntax.NewParser().Parse(strings.NewReader("((x += 5))"), "")
	if err != nil {
		t.Fatal(err)
	}
	cmd := f.Stmts[0].Cmd.(*syntax.ArithmCmd)
	n, err := cfg.Arith(cmd.X)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("got %d, want 6", n)
	}
	if got := env.Get("x").Str; got != "6" {
		t.Fatalf("env x = %q, want 6", got)
	}
}

func TestResolveNameRef(t *testing.T) {
	env := NewListEnviron()
	env.Set("ref", Variable{Kind: NameRef, Str: "target"})
	env.Set("target", Variable{Kind: String, Str: "v"})
	name, v := Resolve(env, "ref", 100)
	if name != "target" || v.Str != "v" {
		t.Fatalf("got (%q, %+v), want (target, v)", name, v)
	}
}
