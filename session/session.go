// Package session is the public entry point of vshell (spec.md's C9): a
// Session owns one vfs.FS and one registry.Registry across repeated script
// executions, the way a real shell process owns its filesystem view and
// $PATH across repeated commands. It is grounded on the teacher's own
// interp.New(opts...) constructor plus shell/source.go's higher-level
// Source/Run helpers (mvdan.cc/sh/v3), adapted so interpreter variable
// state resets between calls while the filesystem and command registry
// persist.
package session

import (
	"bytes"
	"context"
	"io/fs"

	"github.com/vercel-labs/vshell/expand"
	"github.com/vercel-labs/vshell/interp"
	"github.com/vercel-labs/vshell/registry"
	"github.com/vercel-labs/vshell/syntax"
	"github.com/vercel-labs/vshell/vfs"
)

func envVar(val string) expand.Variable {
	return expand.Variable{Kind: expand.String, Str: val}
}

// ExecResult is the outcome of running one script through a Session.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Session bundles a virtual filesystem, a command registry, and the
// default interpreter configuration applied to every Exec call.
type Session struct {
	fsys   *vfs.FS
	reg    *registry.Registry
	env    []string
	dir    string
	limits interp.Limits
	parser *syntax.Parser
}

// Option configures a Session at construction time.
type Option func(*Session) error

// New builds a Session, seeding a fresh vfs.FS and registry.Registry unless
// overridden by opts.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		fsys:   vfs.New(),
		reg:    registry.NewRegistry(),
		dir:    "/",
		limits: interp.DefaultLimits(),
		parser: syntax.NewParser(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithConfig applies a loaded Config to the Session: default environment,
// starting directory, resource limits, and seed VFS content. Its Network
// table is not applied here.
func WithConfig(cfg Config) Option {
	return func(s *Session) error {
		s.env = append(s.env, cfg.Env...)
		if cfg.Limits != (Limits{}) {
			s.limits = interp.Limits(cfg.Limits)
		}
		for _, seed := range cfg.Seed {
			if seed.Dir {
				if err := s.fsys.Mkdir(seed.Path, 0755); err != nil {
					return err
				}
				continue
			}
			if err := s.fsys.WriteFile(seed.Path, []byte(seed.Contents), 0644); err != nil {
				return err
			}
		}
		if cfg.Dir != "" {
			s.dir = cfg.Dir
		}
		return nil
	}
}

// WithFS supplies a pre-populated virtual filesystem instead of an empty
// one.
func WithFS(fsys *vfs.FS) Option {
	return func(s *Session) error {
		s.fsys = fsys
		return nil
	}
}

// WithEnv seeds the default environment every Exec call starts from, as
// "NAME=value" pairs.
func WithEnv(pairs ...string) Option {
	return func(s *Session) error {
		s.env = append(s.env, pairs...)
		return nil
	}
}

// WithLimits overrides the resource ceilings applied to every Exec call.
func WithLimits(l interp.Limits) Option {
	return func(s *Session) error {
		s.limits = l
		return nil
	}
}

// Exec parses and runs script against the Session's filesystem and
// registry, with fresh interpreter variable/function state each call —
// only the filesystem and registered commands persist across calls, the
// same "process exits, filesystem survives" model a real shell session
// gives a sequence of scripts run against the same mounted disk.
func (s *Session) Exec(ctx context.Context, script string) (ExecResult, error) {
	prog, err := s.parser.Parse(bytes.NewReader([]byte(script)), "")
	if err != nil {
		return ExecResult{ExitCode: 2}, err
	}

	var out, errOut bytes.Buffer
	r, err := interp.New(
		interp.WithFS(s.fsys),
		interp.WithRegistry(s.reg),
		interp.Dir(s.dir),
		interp.WithLimits(s.limits),
		interp.StdIO(bytes.NewReader(nil), &out, &errOut),
	)
	if err != nil {
		return ExecResult{ExitCode: 2}, err
	}
	for _, pair := range s.env {
		if name, val, ok := cutEnv(pair); ok {
			r.Env.Set(name, envVar(val))
		}
	}

	code, runErr := r.Run(ctx, prog)
	return ExecResult{Stdout: out.Bytes(), Stderr: errOut.Bytes(), ExitCode: code}, runErr
}

// ReadFile reads a file from the Session's virtual filesystem.
func (s *Session) ReadFile(path string) ([]byte, error) {
	return s.fsys.ReadFile(path)
}

// WriteFile writes a file into the Session's virtual filesystem, visible to
// every subsequent Exec call.
func (s *Session) WriteFile(path string, data []byte) error {
	return s.fsys.WriteFile(path, data, 0644)
}

// RegisterCommand installs an external command under name, available to
// every subsequent Exec call once alias/function/builtin lookups miss.
func (s *Session) RegisterCommand(name string, factory registry.Factory) {
	s.reg.Register(name, factory)
}

// RegisterNetworkCommand installs a command the same way RegisterCommand
// does, but only when cfg.Network is non-nil — gating registration is the
// Session's whole responsibility here; the command itself decides what, if
// anything, it does over the network, since that's entirely outside this
// interpreter's concerns.
func (s *Session) RegisterNetworkCommand(name string, factory registry.Factory, cfg Config) {
	if cfg.Network == nil {
		return
	}
	s.reg.Register(name, factory)
}

func cutEnv(pair string) (name, val string, ok bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}

var _ fs.FS = (*vfs.FS)(nil)
