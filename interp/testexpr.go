package interp

import (
	"regexp"
	"strconv"

	"github.com/vercel-labs/vshell/pattern"
	"github.com/vercel-labs/vshell/syntax"
	"github.com/vercel-labs/vshell/token"
)

// evalTest walks a [[ ]] expression tree, the counterpart of the teacher's
// Runner.bashTest (interp/interp.go).
func (r *Runner) evalTest(x syntax.TestExpr) bool {
	switch t := x.(type) {
	case *syntax.TestWord:
		s, err := r.ecfg.Literal(t.X)
		return err == nil && s != ""
	case *syntax.TestNot:
		return !r.evalTest(t.X)
	case *syntax.TestParen:
		return r.evalTest(t.X)
	case *syntax.TestAndOr:
		if t.Op == token.LAND {
			return r.evalTest(t.X) && r.evalTest(t.Y)
		}
		return r.evalTest(t.X) || r.evalTest(t.Y)
	case *syntax.TestUnary:
		return r.evalTestUnary(t)
	case *syntax.TestBinary:
		return r.evalTestBinary(t)
	}
	return false
}

func (r *Runner) evalTestUnary(t *syntax.TestUnary) bool {
	s, err := r.ecfg.Literal(t.X)
	if err != nil {
		return false
	}
	switch t.Op {
	case "-z":
		return s == ""
	case "-n":
		return s != ""
	case "-e", "-a":
		_, err := r.FS.Stat(r.resolvePath(s))
		return err == nil
	case "-f":
		fi, err := r.FS.Stat(r.resolvePath(s))
		return err == nil && !fi.IsDir()
	case "-d":
		fi, err := r.FS.Stat(r.resolvePath(s))
		return err == nil && fi.IsDir()
	case "-L", "-h":
		_, err := r.FS.Lstat(r.resolvePath(s))
		return err == nil
	case "-r", "-w":
		_, err := r.FS.Stat(r.resolvePath(s))
		return err == nil
	case "-x":
		fi, err := r.FS.Stat(r.resolvePath(s))
		return err == nil && fi.Mode()&0111 != 0
	case "-s":
		fi, err := r.FS.Stat(r.resolvePath(s))
		return err == nil && fi.Size() > 0
	case "-v":
		return r.lookupVar(s).IsSet()
	case "-o":
		switch s {
		case "errexit":
			return r.errExit
		case "nounset":
			return r.unsetErr
		case "xtrace":
			return r.xtrace
		case "noglob":
			return r.noGlob
		}
		return false
	}
	return false
}

func (r *Runner) evalTestBinary(t *syntax.TestBinary) bool {
	x, errX := r.ecfg.Literal(t.X)
	if errX != nil {
		return false
	}
	if t.Op == "=~" {
		pat, err := r.ecfg.Literal(t.Y)
		if err != nil {
			return false
		}
		re, err := regexp.Compile(pat)
		return err == nil && re.MatchString(x)
	}
	switch t.Op {
	case "-nt", "-ot", "-ef":
		y, err := r.ecfg.Literal(t.Y)
		if err != nil {
			return false
		}
		return r.evalFileCompare(t.Op, x, y)
	}
	y, errY := r.ecfg.Literal(t.Y)
	if errY != nil {
		return false
	}
	switch t.Op {
	case "==", "=":
		glob, _ := r.ecfg.Pattern(t.Y)
		ok, err := pattern.Match(glob, x, 0)
		return err == nil && ok
	case "!=":
		glob, _ := r.ecfg.Pattern(t.Y)
		ok, err := pattern.Match(glob, x, 0)
		return err != nil || !ok
	case "<":
		return x < y
	case ">":
		return x > y
	case "-eq":
		return numEq(x, y, func(a, b int64) bool { return a == b })
	case "-ne":
		return numEq(x, y, func(a, b int64) bool { return a != b })
	case "-lt":
		return numEq(x, y, func(a, b int64) bool { return a < b })
	case "-le":
		return numEq(x, y, func(a, b int64) bool { return a <= b })
	case "-gt":
		return numEq(x, y, func(a, b int64) bool { return a > b })
	case "-ge":
		return numEq(x, y, func(a, b int64) bool { return a >= b })
	}
	return false
}

func (r *Runner) evalFileCompare(op, x, y string) bool {
	fx, errX := r.FS.Stat(r.resolvePath(x))
	fy, errY := r.FS.Stat(r.resolvePath(y))
	switch op {
	case "-nt":
		if errY != nil {
			return errX == nil
		}
		if errX != nil {
			return false
		}
		return fx.ModTime().After(fy.ModTime())
	case "-ot":
		if errX != nil {
			return errY == nil
		}
		if errY != nil {
			return false
		}
		return fx.ModTime().Before(fy.ModTime())
	case "-ef":
		if errX != nil || errY != nil {
			return false
		}
		return r.resolvePath(x) == r.resolvePath(y)
	}
	return false
}

func numEq(x, y string, cmp func(a, b int64) bool) bool {
	a, errA := strconv.ParseInt(x, 10, 64)
	b, errB := strconv.ParseInt(y, 10, 64)
	if errA != nil || errB != nil {
		return false
	}
	return cmp(a, b)
}
