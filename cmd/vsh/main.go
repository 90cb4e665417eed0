// vsh is a proof-of-concept shell built on top of package session, exactly
// the role the teacher's cmd/gosh plays for its own interp package.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vercel-labs/vshell/session"
)

var (
	command    = flag.String("c", "", "command to be executed")
	configPath = flag.String("config", "", "path to a TOML session config")
)

func main() {
	flag.Parse()
	if err := runAll(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAll() error {
	ctx := context.Background()

	opts := []session.Option{}
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			return err
		}
		cfg, err := session.LoadConfig(f)
		f.Close()
		if err != nil {
			return err
		}
		opts = append(opts, session.WithConfig(cfg))
	}

	s, err := session.New(opts...)
	if err != nil {
		return err
	}

	if *command != "" {
		return runScript(ctx, s, *command)
	}
	if flag.NArg() == 0 {
		script, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return runScript(ctx, s, string(script))
	}
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := runScript(ctx, s, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func runScript(ctx context.Context, s *session.Session, script string) error {
	res, err := s.Exec(ctx, script)
	os.Stdout.Write(res.Stdout)
	os.Stderr.Write(res.Stderr)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		os.Exit(res.ExitCode)
	}
	return nil
}
