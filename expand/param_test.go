package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fieldsOf(t *testing.T, env *ListEnviron, src string) []string {
	t.Helper()
	cfg := &Config{Env: env}
	words := parseWords(t, src)
	got, err := cfg.Fields(words...)
	if err != nil {
		t.Fatalf("Fields(%q): %v", src, err)
	}
	return got
}

func oneField(t *testing.T, env *ListEnviron, src string) string {
	t.Helper()
	got := fieldsOf(t, env, src)
	if len(got) != 1 {
		t.Fatalf("%q produced %d fields, want 1: %v", src, len(got), got)
	}
	return got[0]
}

func TestParamDefaultValue(t *testing.T) {
	env := NewListEnviron()
	if got, want := oneField(t, env, `echo ${x:-fallback}`), "fallback"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	env.Set("x", Variable{Kind: String, Str: "set"})
	if got, want := oneField(t, env, `echo ${x:-fallback}`), "set"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamAssignDefault(t *testing.T) {
	env := NewListEnviron()
	if got, want := oneField(t, env, `echo ${x:=assigned}`), "assigned"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := env.Get("x").Str, "assigned"; got != want {
		t.Fatalf("env x = %q, want %q", got, want)
	}
}

func TestParamAlternate(t *testing.T) {
	env := NewListEnviron("x=set")
	if got, want := oneField(t, env, `echo ${x:+alt}`), "alt"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	env2 := NewListEnviron()
	if got, want := oneField(t, env2, `echo ${x:+alt}`), ""; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamLength(t *testing.T) {
	env := NewListEnviron("x=hello")
	if got, want := oneField(t, env, `echo ${#x}`), "5"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamSlice(t *testing.T) {
	env := NewListEnviron("x=abcdefgh")
	if got, want := oneField(t, env, `echo ${x:2:3}`), "cde"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamRemovePrefixSuffix(t *testing.T) {
	env := NewListEnviron("x=foo.bar.baz")
	if got, want := oneField(t, env, `echo ${x#*.}`), "bar.baz"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := oneField(t, env, `echo ${x##*.}`), "baz"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := oneField(t, env, `echo ${x%.*}`), "foo.bar"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := oneField(t, env, `echo ${x%%.*}`), "foo"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamReplace(t *testing.T) {
	env := NewListEnviron("x=aXbXc")
	if got, want := oneField(t, env, `echo ${x/X/-}`), "a-bXc"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := oneField(t, env, `echo ${x//X/-}`), "a-b-c"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamCaseConversion(t *testing.T) {
	env := NewListEnviron("x=hello world")
	if got, want := oneField(t, env, `echo "${x^}"`), "Hello world"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := oneField(t, env, `echo "${x^^}"`), "HELLO WORLD"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	env2 := NewListEnviron("y=HELLO")
	if got, want := oneField(t, env2, `echo ${y,,}`), "hello"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamArrayAtExpansion(t *testing.T) {
	env := NewListEnviron()
	env.Set("arr", Variable{Kind: Indexed, List: []string{"a", "b", "c"}})
	got := fieldsOf(t, env, `echo ${arr[@]}`)
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestParamArrayIndex(t *testing.T) {
	env := NewListEnviron()
	env.Set("arr", Variable{Kind: Indexed, List: []string{"a", "b", "c"}})
	if got, want := oneField(t, env, `echo ${arr[1]}`), "b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParamUnsetErrorHook(t *testing.T) {
	env := NewListEnviron()
	var captured error
	cfg := &Config{Env: env, OnError: func(err error) { captured = err }}
	words := parseWords(t, `echo ${x:?must be set}`)
	if _, err := cfg.Fields(words...); err == nil {
		t.Fatal("expected an error from ${x:?}")
	}
	if captured == nil {
		t.Fatal("expected OnError hook to be invoked")
	}
}
