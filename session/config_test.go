package session

import (
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	doc := `
env = ["FOO=bar"]
dir = "/home/user"

[limits]
max_loop_iterations = 500
max_output_bytes = 1024

[[seed]]
path = "/home/user"
dir = true

[[seed]]
path = "/home/user/.profile"
contents = "export FOO=bar\n"

[network]
allowed_hosts = ["example.com"]
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Env) != 1 || cfg.Env[0] != "FOO=bar" {
		t.Fatalf("Env = %v", cfg.Env)
	}
	if cfg.Dir != "/home/user" {
		t.Fatalf("Dir = %q", cfg.Dir)
	}
	if cfg.Limits.MaxLoopIterations != 500 || cfg.Limits.MaxOutputBytes != 1024 {
		t.Fatalf("Limits = %+v", cfg.Limits)
	}
	if len(cfg.Seed) != 2 || !cfg.Seed[0].Dir || cfg.Seed[1].Contents != "export FOO=bar\n" {
		t.Fatalf("Seed = %+v", cfg.Seed)
	}
	if cfg.Network == nil || len(cfg.Network.AllowedHosts) != 1 || cfg.Network.AllowedHosts[0] != "example.com" {
		t.Fatalf("Network = %+v", cfg.Network)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Network != nil {
		t.Fatalf("Network = %+v, want nil", cfg.Network)
	}
}
