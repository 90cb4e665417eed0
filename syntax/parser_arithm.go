package syntax

import (
	"fmt"
	"strings"

	"github.com/vercel-labs/vshell/token"
)

// Arithmetic expressions are parsed from an already-extracted balanced
// substring (see dollarDoubleParen in parser.go and arithmCmd in
// parser_compound.go), rather than
// by threading the main word-scanner through operator precedence. This
// keeps the precedence-climbing parser self-contained at the cost of not
// supporting command substitutions nested inside arithmetic — a deliberate
// simplification recorded in DESIGN.md.

type arithTokKind int

const (
	atNum arithTokKind = iota
	atName
	atOp
	atLparen
	atRparen
	atEOF
)

type arithTok struct {
	kind arithTokKind
	text string
}

type arithScanner struct {
	s    string
	pos  int
	toks []arithTok
}

func tokenizeArith(s string) ([]arithTok, error) {
	sc := &arithScanner{s: s}
	for {
		sc.skipSpace()
		if sc.pos >= len(sc.s) {
			sc.toks = append(sc.toks, arithTok{atEOF, ""})
			return sc.toks, nil
		}
		c := sc.s[sc.pos]
		switch {
		case c == '(':
			sc.toks = append(sc.toks, arithTok{atLparen, "("})
			sc.pos++
		case c == ')':
			sc.toks = append(sc.toks, arithTok{atRparen, ")"})
			sc.pos++
		case isDigit(c):
			sc.toks = append(sc.toks, sc.number())
		case isNameStart(c):
			start := sc.pos
			for sc.pos < len(sc.s) && isNameCont(sc.s[sc.pos]) {
				sc.pos++
			}
			sc.toks = append(sc.toks, arithTok{atName, sc.s[start:sc.pos]})
		case c == '$' && sc.pos+1 < len(sc.s) && isNameStart(sc.s[sc.pos+1]):
			start := sc.pos
			sc.pos++
			for sc.pos < len(sc.s) && isNameCont(sc.s[sc.pos]) {
				sc.pos++
			}
			sc.toks = append(sc.toks, arithTok{atName, sc.s[start+1 : sc.pos]})
		default:
			op, n := sc.operator()
			if n == 0 {
				return nil, fmt.Errorf("arithmetic: unexpected character %q", c)
			}
			sc.toks = append(sc.toks, arithTok{atOp, op})
			sc.pos += n
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (sc *arithScanner) skipSpace() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t' || sc.s[sc.pos] == '\n') {
		sc.pos++
	}
}

func (sc *arithScanner) number() arithTok {
	start := sc.pos
	s := sc.s
	// base#digits, 0x.., 0.. or plain decimal: grab the widest run of
	// alphanumerics and '#', and let the evaluator interpret the base.
	for sc.pos < len(s) {
		c := s[sc.pos]
		if isDigit(c) || isNameCont(c) || c == '#' {
			sc.pos++
			continue
		}
		break
	}
	return arithTok{atNum, s[start:sc.pos]}
}

var arithOps = []string{
	"<<=", ">>=", "**", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "++", "--",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "=", "?", ":", ",",
}

func (sc *arithScanner) operator() (string, int) {
	rest := sc.s[sc.pos:]
	for _, op := range arithOps {
		if strings.HasPrefix(rest, op) {
			return op, len(op)
		}
	}
	return "", 0
}

// arithParser is a precedence-climbing recursive-descent parser over the
// token list produced above, implementing the table in spec.md §4.7.
type arithParser struct {
	toks []arithTok
	pos  int
}

func parseArithmString(s string) (ArithmExpr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	toks, err := tokenizeArith(s)
	if err != nil {
		return nil, err
	}
	ap := &arithParser{toks: toks}
	x, err := ap.expr(0)
	if err != nil {
		return nil, err
	}
	if ap.cur().kind != atEOF {
		return nil, fmt.Errorf("arithmetic: unexpected trailing %q", ap.cur().text)
	}
	return x, nil
}

func (ap *arithParser) cur() arithTok  { return ap.toks[ap.pos] }
func (ap *arithParser) advance() arithTok {
	t := ap.toks[ap.pos]
	if ap.pos < len(ap.toks)-1 {
		ap.pos++
	}
	return t
}

// precedence returns the binding power of a binary/assignment operator, or
// -1 if it isn't one (lowest binds loosest: comma, then assignment, then
// ternary, then the C-like ladder up to multiplicative).
func precedence(op string) int {
	switch op {
	case ",":
		return 1
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return 2
	case "?":
		return 3
	case "||":
		return 4
	case "&&":
		return 5
	case "|":
		return 6
	case "^":
		return 7
	case "&":
		return 8
	case "==", "!=":
		return 9
	case "<", ">", "<=", ">=":
		return 10
	case "<<", ">>":
		return 11
	case "+", "-":
		return 12
	case "*", "/", "%":
		return 13
	case "**":
		return 14
	}
	return -1
}

var assignOps = map[string]ArithOp{
	"=": ArithAssgn, "+=": ArithAddAssgn, "-=": ArithSubAssgn,
	"*=": ArithMulAssgn, "/=": ArithQuoAssgn, "%=": ArithRemAssgn,
	"&=": ArithAndAssgn, "|=": ArithOrAssgn, "^=": ArithXorAssgn,
	"<<=": ArithShlAssgn, ">>=": ArithShrAssgn,
}

var binOps = map[string]ArithOp{
	"+": ArithAdd, "-": ArithSub, "*": ArithMul, "/": ArithQuo, "%": ArithRem,
	"**": ArithPow, "==": ArithEql, "!=": ArithNeq, "<": ArithLss, ">": ArithGtr,
	"<=": ArithLeq, ">=": ArithGeq, "&": ArithAnd, "|": ArithOr, "^": ArithXor,
	"<<": ArithShl, ">>": ArithShr, "&&": ArithLAnd, "||": ArithLOr, ",": ArithComma,
}

func (ap *arithParser) expr(minPrec int) (ArithmExpr, error) {
	left, err := ap.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := ap.cur()
		if t.kind != atOp {
			return left, nil
		}
		prec := precedence(t.text)
		if prec < 0 || prec < minPrec {
			return left, nil
		}
		if t.text == "?" {
			ap.advance()
			thenX, err := ap.expr(1)
			if err != nil {
				return nil, err
			}
			if ap.cur().kind != atOp || ap.cur().text != ":" {
				return nil, fmt.Errorf("arithmetic: expected ':' in ternary")
			}
			ap.advance()
			elseX, err := ap.expr(3)
			if err != nil {
				return nil, err
			}
			left = &BinaryArithm{Op: ArithTernQuest, X: left, Y: &BinaryArithm{Op: ArithTernColon, X: thenX, Y: elseX}}
			continue
		}
		ap.advance()
		if op, ok := assignOps[t.text]; ok {
			right, err := ap.expr(prec) // right-associative
			if err != nil {
				return nil, err
			}
			left = &BinaryArithm{Op: op, X: left, Y: right}
			continue
		}
		nextMin := prec + 1
		if t.text == "**" {
			nextMin = prec // right-associative
		}
		right, err := ap.expr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &BinaryArithm{Op: binOps[t.text], X: left, Y: right}
	}
}

func (ap *arithParser) unary() (ArithmExpr, error) {
	t := ap.cur()
	if t.kind == atOp {
		switch t.text {
		case "+", "-", "!", "~":
			ap.advance()
			x, err := ap.unary()
			if err != nil {
				return nil, err
			}
			op := ArithPlus
			switch t.text {
			case "-":
				op = ArithMinus
			case "!":
				op = ArithNot
			case "~":
				op = ArithBitNeg
			}
			return &UnaryArithm{Op: op, X: x}, nil
		case "++", "--":
			ap.advance()
			x, err := ap.unary()
			if err != nil {
				return nil, err
			}
			op := ArithInc
			if t.text == "--" {
				op = ArithDec
			}
			return &UnaryArithm{Op: op, X: x}, nil
		}
	}
	return ap.postfix()
}

func (ap *arithParser) postfix() (ArithmExpr, error) {
	x, err := ap.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := ap.cur()
		if t.kind == atOp && (t.text == "++" || t.text == "--") {
			ap.advance()
			op := ArithInc
			if t.text == "--" {
				op = ArithDec
			}
			x = &UnaryArithm{Op: op, Post: true, X: x}
			continue
		}
		return x, nil
	}
}

func (ap *arithParser) primary() (ArithmExpr, error) {
	t := ap.cur()
	switch t.kind {
	case atLparen:
		ap.advance()
		x, err := ap.expr(0)
		if err != nil {
			return nil, err
		}
		if ap.cur().kind != atRparen {
			return nil, fmt.Errorf("arithmetic: expected ')'")
		}
		ap.advance()
		return &ParenArithm{X: x}, nil
	case atNum:
		ap.advance()
		return litWord(t.text), nil
	case atName:
		ap.advance()
		return litWord(t.text), nil
	}
	return nil, fmt.Errorf("arithmetic: unexpected token %q", t.text)
}

func litWord(s string) *Word {
	return &Word{Parts: []WordPart{&Lit{Value: s}}}
}

var _ = token.NoPos
