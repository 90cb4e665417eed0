package interp

// Limits bounds runaway execution the way the host OS would bound a real
// process tree; this in-process interpreter has no OS scheduler to kill a
// spinning loop, so it must enforce its own ceilings (spec.md C10).
type Limits struct {
	MaxLoopIterations int
	MaxRecursionDepth int
	MaxPatternSpace   int
	MaxOutputBytes    int
}

// DefaultLimits returns generous but finite ceilings, high enough not to
// bother ordinary scripts.
func DefaultLimits() Limits {
	return Limits{
		MaxLoopIterations: 1_000_000,
		MaxRecursionDepth: 1_000,
		MaxPatternSpace:   1 << 20,
		MaxOutputBytes:    64 << 20,
	}
}

func (r *Runner) checkLoopBudget() {
	r.loopIters++
	if r.limits.MaxLoopIterations > 0 && r.loopIters > r.limits.MaxLoopIterations {
		panic(&ExecutionLimitError{Limit: "max loop iterations"})
	}
}

func (r *Runner) checkRecursionBudget() {
	if r.limits.MaxRecursionDepth > 0 && r.funcDepth > r.limits.MaxRecursionDepth {
		panic(&ExecutionLimitError{Limit: "max recursion depth"})
	}
}

func (r *Runner) checkOutputBudget(n int) {
	r.outputBytes += n
	if r.limits.MaxOutputBytes > 0 && r.outputBytes > r.limits.MaxOutputBytes {
		panic(&ExecutionLimitError{Limit: "max output bytes"})
	}
}
