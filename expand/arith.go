package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vercel-labs/vshell/syntax"
)

// Arith evaluates an arithmetic expression tree under cfg's environment,
// following the same recursive structure as the teacher's expand.Arithm,
// but walking *syntax.BinaryArithm/*UnaryArithm/*ParenArithm/*syntax.Word
// nodes instead of the legacy ast package's arithmetic nodes.
func (cfg *Config) Arith(x syntax.ArithmExpr) (int64, error) {
	if x == nil {
		return 0, nil
	}
	switch x := x.(type) {
	case *syntax.Word:
		return cfg.arithWord(x)
	case *syntax.ParenArithm:
		return cfg.Arith(x.X)
	case *syntax.UnaryArithm:
		return cfg.arithUnary(x)
	case *syntax.BinaryArithm:
		return cfg.arithBinary(x)
	}
	return 0, fmt.Errorf("expand: unsupported arithmetic node %T", x)
}

func (cfg *Config) arithWord(w *syntax.Word) (int64, error) {
	lit := w.Lit()
	if lit == "" {
		s, err := cfg.Literal(w)
		if err != nil {
			return 0, err
		}
		lit = s
	}
	return cfg.arithAtom(lit)
}

// arithAtom resolves a bare token from inside an arithmetic expression: a
// numeric literal (decimal, 0x.., 0.., or base#digits) or a variable name,
// recursing through variables whose own value is itself arithmetic text
// (bash evaluates variables inside (( )) until they stop looking numeric).
func (cfg *Config) arithAtom(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := parseArithNumber(s); err == nil {
		return n, nil
	}
	v := cfg.Env.Get(s)
	switch v.Kind {
	case String:
		if v.Str == s {
			return 0, nil
		}
		return cfg.arithAtom(v.Str)
	case Unknown:
		return 0, nil
	default:
		return 0, nil
	}
}

func parseArithNumber(s string) (int64, error) {
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return strconv.ParseInt(s[2:], 16, 64)
	case strings.Contains(s, "#"):
		i := strings.IndexByte(s, '#')
		base, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(s[i+1:], base, 64)
	case len(s) > 1 && s[0] == '0':
		return strconv.ParseInt(s, 8, 64)
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}

func (cfg *Config) arithUnary(u *syntax.UnaryArithm) (int64, error) {
	if u.Op == syntax.ArithInc || u.Op == syntax.ArithDec {
		name, ok := arithLValueName(u.X)
		if !ok {
			return 0, fmt.Errorf("expand: invalid increment target")
		}
		old, err := cfg.Arith(u.X)
		if err != nil {
			return 0, err
		}
		delta := int64(1)
		if u.Op == syntax.ArithDec {
			delta = -1
		}
		if err := cfg.setArithVar(name, old+delta); err != nil {
			return 0, err
		}
		if u.Post {
			return old, nil
		}
		return old + delta, nil
	}
	x, err := cfg.Arith(u.X)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case syntax.ArithNot:
		if x == 0 {
			return 1, nil
		}
		return 0, nil
	case syntax.ArithBitNeg:
		return ^x, nil
	case syntax.ArithMinus:
		return -x, nil
	default: // ArithPlus
		return x, nil
	}
}

func arithLValueName(x syntax.ArithmExpr) (string, bool) {
	if w, ok := x.(*syntax.Word); ok {
		if lit := w.Lit(); lit != "" {
			return lit, true
		}
	}
	return "", false
}

func (cfg *Config) setArithVar(name string, val int64) error {
	return cfg.Env.Set(name, Variable{Kind: String, Str: strconv.FormatInt(val, 10)})
}

func (cfg *Config) arithBinary(b *syntax.BinaryArithm) (int64, error) {
	if assignOp, isAssign := arithAssignDelta(b.Op); isAssign {
		name, ok := arithLValueName(b.X)
		if !ok {
			return 0, fmt.Errorf("expand: invalid assignment target")
		}
		rhs, err := cfg.Arith(b.Y)
		if err != nil {
			return 0, err
		}
		var result int64
		if b.Op == syntax.ArithAssgn {
			result = rhs
		} else {
			cur, err := cfg.Arith(b.X)
			if err != nil {
				return 0, err
			}
			result, err = applyBin(assignOp, cur, rhs)
			if err != nil {
				return 0, err
			}
		}
		if err := cfg.setArithVar(name, result); err != nil {
			return 0, err
		}
		return result, nil
	}

	if b.Op == syntax.ArithLAnd {
		x, err := cfg.Arith(b.X)
		if err != nil || x == 0 {
			return 0, err
		}
		y, err := cfg.Arith(b.Y)
		if err != nil {
			return 0, err
		}
		if y != 0 {
			return 1, nil
		}
		return 0, nil
	}
	if b.Op == syntax.ArithLOr {
		x, err := cfg.Arith(b.X)
		if err != nil {
			return 0, err
		}
		if x != 0 {
			return 1, nil
		}
		y, err := cfg.Arith(b.Y)
		if err != nil {
			return 0, err
		}
		if y != 0 {
			return 1, nil
		}
		return 0, nil
	}
	if b.Op == syntax.ArithTernQuest {
		cond, err := cfg.Arith(b.X)
		if err != nil {
			return 0, err
		}
		branch := b.Y.(*syntax.BinaryArithm)
		if cond != 0 {
			return cfg.Arith(branch.X)
		}
		return cfg.Arith(branch.Y)
	}

	x, err := cfg.Arith(b.X)
	if err != nil {
		return 0, err
	}
	y, err := cfg.Arith(b.Y)
	if err != nil {
		return 0, err
	}
	return applyBin(b.Op, x, y)
}

// arithAssignDelta maps a compound-assignment op to the plain binary op it
// implies (x += y  ->  x = x + y), or reports ok=false for "=" itself and
// for every non-assignment operator.
func arithAssignDelta(op syntax.ArithOp) (syntax.ArithOp, bool) {
	switch op {
	case syntax.ArithAssgn:
		return 0, true
	case syntax.ArithAddAssgn:
		return syntax.ArithAdd, true
	case syntax.ArithSubAssgn:
		return syntax.ArithSub, true
	case syntax.ArithMulAssgn:
		return syntax.ArithMul, true
	case syntax.ArithQuoAssgn:
		return syntax.ArithQuo, true
	case syntax.ArithRemAssgn:
		return syntax.ArithRem, true
	case syntax.ArithAndAssgn:
		return syntax.ArithAnd, true
	case syntax.ArithOrAssgn:
		return syntax.ArithOr, true
	case syntax.ArithXorAssgn:
		return syntax.ArithXor, true
	case syntax.ArithShlAssgn:
		return syntax.ArithShl, true
	case syntax.ArithShrAssgn:
		return syntax.ArithShr, true
	}
	return 0, false
}

func applyBin(op syntax.ArithOp, x, y int64) (int64, error) {
	switch op {
	case syntax.ArithAdd:
		return x + y, nil
	case syntax.ArithSub:
		return x - y, nil
	case syntax.ArithMul:
		return x * y, nil
	case syntax.ArithQuo:
		if y == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		return x / y, nil
	case syntax.ArithRem:
		if y == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		return x % y, nil
	case syntax.ArithPow:
		return intPow(x, y), nil
	case syntax.ArithEql:
		return boolInt(x == y), nil
	case syntax.ArithNeq:
		return boolInt(x != y), nil
	case syntax.ArithLss:
		return boolInt(x < y), nil
	case syntax.ArithGtr:
		return boolInt(x > y), nil
	case syntax.ArithLeq:
		return boolInt(x <= y), nil
	case syntax.ArithGeq:
		return boolInt(x >= y), nil
	case syntax.ArithAnd:
		return x & y, nil
	case syntax.ArithOr:
		return x | y, nil
	case syntax.ArithXor:
		return x ^ y, nil
	case syntax.ArithShl:
		return x << uint(y), nil
	case syntax.ArithShr:
		return x >> uint(y), nil
	case syntax.ArithComma:
		return y, nil
	}
	return 0, fmt.Errorf("expand: unsupported arithmetic operator %v", op)
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	var result int64 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
