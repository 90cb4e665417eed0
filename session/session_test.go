package session

import (
	"context"
	"strings"
	"testing"
)

func TestExecBasic(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Exec(context.Background(), `echo hello`)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "hello\n" {
		t.Fatalf("got %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
}

func TestExecFilesystemPersistsAcrossCalls(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Exec(context.Background(), `echo persisted > /data.txt`); err != nil {
		t.Fatal(err)
	}
	res, err := s.Exec(context.Background(), `cat /data.txt 2>/dev/null; echo done`)
	if err != nil {
		t.Fatal(err)
	}
	// "cat" isn't registered in a bare Session, so this only checks the file
	// itself survived into the second Exec call via the Session's own API.
	data, err := s.ReadFile("/data.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "persisted\n" {
		t.Fatalf("got %q", data)
	}
	if !strings.Contains(string(res.Stdout), "done") {
		t.Fatalf("got %q", res.Stdout)
	}
}

func TestExecVariableStateDoesNotPersist(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Exec(context.Background(), `x=carried`); err != nil {
		t.Fatal(err)
	}
	res, err := s.Exec(context.Background(), `echo "x=[$x]"`)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "x=[]\n" {
		t.Fatalf("got %q, want variable state reset between Exec calls", res.Stdout)
	}
}

func TestWithEnvSeedsEveryCall(t *testing.T) {
	s, err := New(WithEnv("GREETING=hi"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Exec(context.Background(), `echo $GREETING`)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "hi\n" {
		t.Fatalf("got %q", res.Stdout)
	}
}

func TestWithConfigSeedsFilesystem(t *testing.T) {
	cfg := Config{
		Seed: []SeedEntry{
			{Path: "/etc", Dir: true},
			{Path: "/etc/motd", Contents: "welcome\n"},
		},
	}
	s, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.ReadFile("/etc/motd")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "welcome\n" {
		t.Fatalf("got %q", data)
	}
}

func TestExecParseError(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Exec(context.Background(), `if then fi`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if res.ExitCode != 2 {
		t.Fatalf("exit = %d, want 2", res.ExitCode)
	}
}
