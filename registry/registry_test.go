package registry

import (
	"context"
	"testing"
)

type echoCmd struct{ calls int }

func (c *echoCmd) Name() string { return "echo-test" }
func (c *echoCmd) Execute(ctx context.Context, args []string, cctx *Context) (ExecResult, error) {
	c.calls++
	return ExecResult{Stdout: []byte("ok"), ExitCode: 0}, nil
}

func TestDispatchFound(t *testing.T) {
	r := NewRegistry()
	r.Register("echo-test", func() Command { return &echoCmd{} })
	res, err := r.Dispatch(context.Background(), "echo-test", nil, &Context{})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "ok" {
		t.Fatalf("got %q, want %q", res.Stdout, "ok")
	}
}

func TestDispatchNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "nope", nil, &Context{})
	if _, ok := err.(*CommandNotFoundError); !ok {
		t.Fatalf("got %v, want *CommandNotFoundError", err)
	}
}

func TestFactoryFreshPerDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register("c", func() Command { return &echoCmd{} })
	r.Dispatch(context.Background(), "c", nil, &Context{})
	r.Dispatch(context.Background(), "c", nil, &Context{})
	// Each Dispatch constructs a fresh Command. This test only checks that
	// repeated dispatches leave exactly one registered entry; it does not
	// observe how many Command instances the factory produced.
	if names := r.Names(); len(names) != 1 || names[0] != "c" {
		t.Fatalf("Names() = %v, want [c]", names)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("a", func() Command { return &echoCmd{} })
	r.Unregister("a")
	if _, ok := r.Lookup("a"); ok {
		t.Fatal("expected a to be gone after Unregister")
	}
}
