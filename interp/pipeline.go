package interp

import (
	"bytes"
	"context"

	"github.com/vercel-labs/vshell/internal/rope"
	"github.com/vercel-labs/vshell/syntax"
)

// runPipeline executes each stage of a pipe chain to completion before the
// next stage starts, buffering every stage's stdout into an
// internal/rope.Rope and feeding it as the next stage's stdin.
//
// This deliberately departs from the teacher's BinaryCmd Pipe/PipeAll case
// (interp/interp.go), which runs both sides concurrently joined by
// io.Pipe and a sync.WaitGroup: spec.md's single-threaded execution model
// (§5) has no goroutine scheduler backing it, so a concurrent producer and
// consumer would deadlock the moment either side's buffer filled. Running
// stages strictly in sequence, fully materializing each one, is the
// redesign spec.md's pipeline invariant calls for (§7 REDESIGN FLAG).
//
// Every stage runs via stmtNoErrExit: errexit, if set, is checked once by
// the stmt call wrapping the whole pipeline against its resolved status,
// not against each stage individually.
func (r *Runner) runPipeline(ctx context.Context, stages []*syntax.Stmt) {
	if len(stages) == 0 {
		r.exit = 0
		return
	}

	savedIn, savedOut, savedErr := r.Stdin, r.Stdout, r.Stderr
	defer func() { r.Stdin, r.Stdout, r.Stderr = savedIn, savedOut, savedErr }()

	var nextIn bytes.Reader
	r.Stdin = &nextIn
	statuses := make([]int, len(stages))

	for i, stage := range stages {
		buf := rope.Capped(r.limits.MaxOutputBytes)
		r.Stdout = buf
		if i == len(stages)-1 {
			r.Stdout = savedOut
		}
		r.Stderr = savedErr

		r.stmtNoErrExit(ctx, stage)
		statuses[i] = r.exit

		if i < len(stages)-1 {
			nextIn = *bytes.NewReader(buf.Bytes())
			r.Stdin = &nextIn
		}
	}

	// Without pipefail, a pipeline's status is its last stage's status
	// (spec.md §4.6); with it, the rightmost non-zero stage wins, or zero
	// if every stage succeeded.
	r.exit = statuses[len(statuses)-1]
	if r.pipefail {
		status := 0
		for _, s := range statuses {
			if s != 0 {
				status = s
			}
		}
		r.exit = status
	}
}
