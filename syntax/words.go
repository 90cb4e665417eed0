package syntax

import "github.com/vercel-labs/vshell/token"

// Word is an ordered sequence of word parts produced by the lexer/parser;
// it is the unit the expander (package expand) turns into zero or more
// fields. Word carries no quoting flag of its own — that state lives on
// each WordPart (DblQuoted wraps the parts that were inside double quotes).
type Word struct {
	Parts []WordPart
}

func (w *Word) Pos() token.Pos { return partsPos(w.Parts) }
func (w *Word) End() token.Pos { return partsEnd(w.Parts) }

// Lit returns the word's value if it is composed of a single unquoted
// literal part, and "" otherwise. Used for keyword-like checks (e.g.
// recognising "in"/"do" at the parser level, or "@"/"*" in param indices).
func (w *Word) Lit() string {
	if len(w.Parts) != 1 {
		return ""
	}
	if l, ok := w.Parts[0].(*Lit); ok {
		return l.Value
	}
	return ""
}

func partsPos(ps []WordPart) token.Pos {
	if len(ps) == 0 {
		return token.NoPos
	}
	return ps[0].Pos()
}

func partsEnd(ps []WordPart) token.Pos {
	if len(ps) == 0 {
		return token.NoPos
	}
	return ps[len(ps)-1].End()
}

// WordPart is implemented by every node that can appear inside a Word.
type WordPart interface {
	Node
	wordPartNode()
}

func (*Lit) wordPartNode()       {}
func (*SglQuoted) wordPartNode() {}
func (*DblQuoted) wordPartNode() {}
func (*ParamExp) wordPartNode()  {}
func (*CmdSubst) wordPartNode()  {}
func (*ArithmExp) wordPartNode() {}
func (*ProcSubst) wordPartNode() {}
func (*ExtGlob) wordPartNode()   {}
func (*BraceExp) wordPartNode()  {}
func (*Tilde) wordPartNode()     {}

// Lit is a run of characters the lexer didn't need to tokenise further:
// plain text outside quotes, possibly with backslash escapes still present
// (quote removal strips them at expansion time, per spec.md §4.5 step 8).
type Lit struct {
	ValuePos token.Pos
	Value    string
}

func (l *Lit) Pos() token.Pos { return l.ValuePos }
func (l *Lit) End() token.Pos { return l.ValuePos + token.Pos(len(l.Value)) }

// SglQuoted is a '...' or $'...' string. Dollar marks the ANSI-C $'...'
// form, whose Value has already had its backslash escapes resolved by the
// lexer (spec.md §6: \n \t \r \\ \' \xHH \uHHHH \0NNN).
type SglQuoted struct {
	Left, Right token.Pos
	Dollar      bool
	Value       string
}

func (q *SglQuoted) Pos() token.Pos { return q.Left }
func (q *SglQuoted) End() token.Pos { return q.Right + 1 }

// DblQuoted is a "..." or $"..." group; Dollar marks the locale-translated
// $"..." form (treated as a plain double-quoted string: translation is a
// Non-goal per spec.md §1).
type DblQuoted struct {
	Left, Right token.Pos
	Dollar      bool
	Parts       []WordPart
}

func (q *DblQuoted) Pos() token.Pos { return q.Left }
func (q *DblQuoted) End() token.Pos { return q.Right + 1 }

// CmdSubst is $(...) or `...`.
type CmdSubst struct {
	Left, Right token.Pos
	Backquotes  bool
	Stmts       []*Stmt
}

func (c *CmdSubst) Pos() token.Pos { return c.Left }
func (c *CmdSubst) End() token.Pos { return c.Right + 1 }

// ProcSubst is <(...) or >(...); the expander replaces it with an empty
// string and does not run its statements.
type ProcSubst struct {
	OpPos, Rparen token.Pos
	In            bool // true for <(...), false for >(...)
	Stmts         []*Stmt
}

func (p *ProcSubst) Pos() token.Pos { return p.OpPos }
func (p *ProcSubst) End() token.Pos { return p.Rparen + 1 }

// ArithmExp is $((expr)).
type ArithmExp struct {
	Left, Right token.Pos
	X           ArithmExpr
}

func (a *ArithmExp) Pos() token.Pos { return a.Left }
func (a *ArithmExp) End() token.Pos { return a.Right + 2 }

// ExtGlob is a bash extended-glob atom like @(foo|bar), parsed unconditionally
// (whether or not "shopt -s extglob" would be set is not modelled).
type ExtGlob struct {
	OpPos   token.Pos
	Op      byte // one of '@', '!', '?', '+', '*'
	Pattern *Word
	Rparen  token.Pos
}

func (e *ExtGlob) Pos() token.Pos { return e.OpPos }
func (e *ExtGlob) End() token.Pos { return e.Rparen + 1 }

// Tilde is a leading "~" or "~user" word part, expanded to $HOME or a named
// user's home directory (spec.md §4.5 step 2).
type Tilde struct {
	TildePos token.Pos
	Name     string // empty for plain "~"
}

func (t *Tilde) Pos() token.Pos { return t.TildePos }
func (t *Tilde) End() token.Pos { return t.TildePos + token.Pos(len(t.Name)) + 1 }

// BraceExp is a {a,b,c} or {1..5[..2]} brace group. Splitting and Cartesian
// expansion happen in package expand, following spec.md §4.5 step 1; the
// parser only needs to recognise the shape.
type BraceExp struct {
	Lbrace, Rbrace token.Pos
	Sequence       bool // true for {x..y[..z]}, false for {a,b,c}
	Elems          []*Word
	From, To, Incr *Word // only set when Sequence
}

func (b *BraceExp) Pos() token.Pos { return b.Lbrace }
func (b *BraceExp) End() token.Pos { return b.Rbrace + 1 }

// ParamExp is a ${...} or bare $name parameter expansion, covering every
// form enumerated in spec.md §4.5 step 3.
type ParamExp struct {
	Dollar        token.Pos
	Rbrace        token.Pos // invalid (0) for the short "$name" form
	Short         bool
	Length        bool // ${#name}
	Excl          bool // ${!name}, ${!prefix*}, ${!prefix@}, ${!arr[@]}
	Names         byte // 0, '*', or '@' — which ${!prefix*}/${!prefix@} or ${arr[*]}/${arr[@]} form
	Param         Lit
	Index         ArithmExpr // ${arr[i]}; the [@]/[*] subscripts set Names instead
	Slice         *Slice
	Repl          *Replace
	Exp           *Expansion
	AtOp          byte // ${name@Q}/@E/@P/@A/@a — the letter, or 0
}

func (p *ParamExp) Pos() token.Pos { return p.Dollar }
func (p *ParamExp) End() token.Pos {
	if p.Short {
		return p.Param.End()
	}
	return p.Rbrace + 1
}

// Slice implements ${name:offset:length}.
type Slice struct {
	Offset, Length ArithmExpr
}

// Replace implements ${name/pat/rep}, ${name//pat/rep}, ${name/#pat/rep},
// ${name/%pat/rep}.
type Replace struct {
	All        bool
	AnchorLeft bool // "/#"
	AnchorRight bool // "/%"
	Orig, With *Word
}

// ExpansionOp enumerates the suffix/prefix/default-value operator family.
type ExpansionOp int

const (
	ExpColonMinus ExpansionOp = iota // :-
	ExpMinus                         // -
	ExpColonEqual                    // :=
	ExpEqual                         // =
	ExpColonQuest                    // :?
	ExpQuest                         // ?
	ExpColonPlus                     // :+
	ExpPlus                          // +
	ExpRemSmallPrefix                // #
	ExpRemLargePrefix                // ##
	ExpRemSmallSuffix                // %
	ExpRemLargeSuffix                // %%
	ExpUpperFirst                    // ^
	ExpUpperAll                      // ^^
	ExpLowerFirst                    // ,
	ExpLowerAll                      // ,,
)

// Expansion is the operator + argument word pair for the operators above.
type Expansion struct {
	Op   ExpansionOp
	Word *Word
}

// ArithmExpr is implemented by every node valid inside ((...)) / $((...)).
type ArithmExpr interface {
	Node
	arithmExprNode()
}

func (*BinaryArithm) arithmExprNode() {}
func (*UnaryArithm) arithmExprNode()  {}
func (*ParenArithm) arithmExprNode()  {}
func (*Word) arithmExprNode()         {}

// ArithOp enumerates arithmetic operators, ordered roughly by precedence
// tier as documented in spec.md §4.7.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithQuo
	ArithRem
	ArithPow
	ArithEql
	ArithNeq
	ArithLss
	ArithGtr
	ArithLeq
	ArithGeq
	ArithAnd
	ArithOr
	ArithXor
	ArithShl
	ArithShr
	ArithLAnd
	ArithLOr
	ArithComma
	ArithTernQuest
	ArithTernColon
	ArithAssgn
	ArithAddAssgn
	ArithSubAssgn
	ArithMulAssgn
	ArithQuoAssgn
	ArithRemAssgn
	ArithAndAssgn
	ArithOrAssgn
	ArithXorAssgn
	ArithShlAssgn
	ArithShrAssgn
)

// BinaryArithm is "X op Y".
type BinaryArithm struct {
	OpPos token.Pos
	Op    ArithOp
	X, Y  ArithmExpr
}

func (b *BinaryArithm) Pos() token.Pos { return b.X.Pos() }
func (b *BinaryArithm) End() token.Pos { return b.Y.End() }

// UnaryOp enumerates unary arithmetic operators, including pre/post inc/dec.
type UnaryOp int

const (
	ArithNot UnaryOp = iota // !
	ArithBitNeg             // ~
	ArithPlus               // unary +
	ArithMinus              // unary -
	ArithInc                // ++
	ArithDec                // --
)

// UnaryArithm is a prefix or postfix unary expression.
type UnaryArithm struct {
	OpPos token.Pos
	Op    UnaryOp
	Post  bool
	X     ArithmExpr
}

func (u *UnaryArithm) Pos() token.Pos {
	if u.Post {
		return u.X.Pos()
	}
	return u.OpPos
}
func (u *UnaryArithm) End() token.Pos {
	if u.Post {
		return u.OpPos + 2
	}
	return u.X.End()
}

// ParenArithm is "(expr)" grouping inside arithmetic.
type ParenArithm struct {
	Lparen, Rparen token.Pos
	X              ArithmExpr
}

func (p *ParenArithm) Pos() token.Pos { return p.Lparen }
func (p *ParenArithm) End() token.Pos { return p.Rparen + 1 }
