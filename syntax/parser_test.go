package syntax

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	f, err := NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return f
}

func TestParseSimpleCommand(t *testing.T) {
	f := parse(t, "echo hello world\n")
	if len(f.Stmts) != 1 {
		t.Fatalf("got %d stmts, want 1", len(f.Stmts))
	}
	call, ok := f.Stmts[0].Cmd.(*CallExpr)
	if !ok {
		t.Fatalf("Cmd = %T, want *CallExpr", f.Stmts[0].Cmd)
	}
	if len(call.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(call.Args))
	}
}

func TestParsePipeline(t *testing.T) {
	f := parse(t, "a | b | c\n")
	bc, ok := f.Stmts[0].Cmd.(*BinaryCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *BinaryCmd", f.Stmts[0].Cmd)
	}
	if bc.Op != Pipe {
		t.Fatalf("Op = %v, want Pipe", bc.Op)
	}
}

func TestParseAndOr(t *testing.T) {
	f := parse(t, "true && echo ok || echo fail\n")
	bc, ok := f.Stmts[0].Cmd.(*BinaryCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *BinaryCmd", f.Stmts[0].Cmd)
	}
	if bc.Op != OrStmt {
		t.Fatalf("outer Op = %v, want OrStmt", bc.Op)
	}
	inner, ok := bc.X.Cmd.(*BinaryCmd)
	if !ok || inner.Op != AndStmt {
		t.Fatalf("inner = %+v, want AndStmt", inner)
	}
}

func TestParseIfClause(t *testing.T) {
	f := parse(t, "if true; then echo yes; else echo no; fi\n")
	ic, ok := f.Stmts[0].Cmd.(*IfClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *IfClause", f.Stmts[0].Cmd)
	}
	if !ic.HasElse || len(ic.Then) != 1 || len(ic.Else) != 1 {
		t.Fatalf("ic = %+v", ic)
	}
}

func TestParseForWordIter(t *testing.T) {
	f := parse(t, "for x in a b c; do echo $x; done\n")
	fc, ok := f.Stmts[0].Cmd.(*ForClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ForClause", f.Stmts[0].Cmd)
	}
	wi, ok := fc.Loop.(*WordIter)
	if !ok {
		t.Fatalf("Loop = %T, want *WordIter", fc.Loop)
	}
	if wi.Name.Value != "x" || len(wi.Items) != 3 {
		t.Fatalf("wi = %+v", wi)
	}
}

func TestParseCStyleFor(t *testing.T) {
	f := parse(t, "for ((i=0; i<3; i++)); do echo $i; done\n")
	fc, ok := f.Stmts[0].Cmd.(*ForClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ForClause", f.Stmts[0].Cmd)
	}
	if _, ok := fc.Loop.(*CStyleLoop); !ok {
		t.Fatalf("Loop = %T, want *CStyleLoop", fc.Loop)
	}
}

func TestParseCaseClause(t *testing.T) {
	f := parse(t, "case $x in foo) echo f ;; bar|baz) echo bb ;; *) echo d ;; esac\n")
	cc, ok := f.Stmts[0].Cmd.(*CaseClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *CaseClause", f.Stmts[0].Cmd)
	}
	if len(cc.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(cc.Items))
	}
	if len(cc.Items[1].Patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(cc.Items[1].Patterns))
	}
}

func TestParseFuncDecl(t *testing.T) {
	f := parse(t, "greet() { echo hi; }\n")
	fd, ok := f.Stmts[0].Cmd.(*FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *FuncDecl", f.Stmts[0].Cmd)
	}
	if fd.Name.Value != "greet" {
		t.Fatalf("Name = %q", fd.Name.Value)
	}
}

func TestParseSubshellAndBlock(t *testing.T) {
	f := parse(t, "(echo sub)\n")
	if _, ok := f.Stmts[0].Cmd.(*Subshell); !ok {
		t.Fatalf("Cmd = %T, want *Subshell", f.Stmts[0].Cmd)
	}
	f = parse(t, "{ echo blk; }\n")
	if _, ok := f.Stmts[0].Cmd.(*Block); !ok {
		t.Fatalf("Cmd = %T, want *Block", f.Stmts[0].Cmd)
	}
}

func TestParseRedirects(t *testing.T) {
	f := parse(t, "echo hi > out.txt 2>> err.txt\n")
	redirs := f.Stmts[0].Redirs
	if len(redirs) != 2 {
		t.Fatalf("got %d redirs, want 2", len(redirs))
	}
	if redirs[0].Op != RedirOut || redirs[1].Op != AppOut {
		t.Fatalf("redirs = %+v", redirs)
	}
}

func TestParseArithmCmd(t *testing.T) {
	f := parse(t, "((x = 1 + 2))\n")
	ac, ok := f.Stmts[0].Cmd.(*ArithmCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *ArithmCmd", f.Stmts[0].Cmd)
	}
	if ac.X == nil {
		t.Fatal("X is nil")
	}
}

func TestParseTestClause(t *testing.T) {
	f := parse(t, "[[ -f foo.txt ]]\n")
	tc, ok := f.Stmts[0].Cmd.(*TestClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *TestClause", f.Stmts[0].Cmd)
	}
	if _, ok := tc.X.(*TestUnary); !ok {
		t.Fatalf("X = %T, want *TestUnary", tc.X)
	}
}

func TestParseAssignment(t *testing.T) {
	f := parse(t, "x=hello echo done\n")
	if len(f.Stmts[0].Assigns) != 1 {
		t.Fatalf("got %d assigns, want 1", len(f.Stmts[0].Assigns))
	}
	if f.Stmts[0].Assigns[0].Name.Value != "x" {
		t.Fatalf("Name = %q", f.Stmts[0].Assigns[0].Name.Value)
	}
}

func TestParseNegated(t *testing.T) {
	f := parse(t, "! true\n")
	if !f.Stmts[0].Negated {
		t.Fatal("expected Negated to be true")
	}
}
