package syntax

import "github.com/vercel-labs/vshell/token"

// maybeCompound recognises and parses any compound command (block,
// subshell, if/while/until/for/select/case, [[ ]], (( )), function
// declaration, or one of the assignment/arithmetic pseudo-keywords) at the
// current position, returning (nil, nil) if none match so the caller falls
// back to parsing a simple command.
func (p *Parser) maybeCompound() (Command, error) {
	p.lexer.skipSpacesTabs()
	if p.lexer.eof() {
		return nil, nil
	}
	switch {
	case p.peekOp("(("):
		return p.arithmCmd()
	case p.peekOp("[["):
		return p.testClauseCmd()
	case p.lexer.peekByte() == '{':
		return p.block()
	case p.lexer.peekByte() == '(':
		return p.subshell()
	case p.peekKeyword("if"):
		return p.ifClause()
	case p.peekKeyword("while"):
		return p.whileClause(false)
	case p.peekKeyword("until"):
		return p.whileClause(true)
	case p.peekKeyword("for"):
		return p.forClauseGeneric(false)
	case p.peekKeyword("select"):
		return p.forClauseGeneric(true)
	case p.peekKeyword("case"):
		return p.caseClause()
	case p.peekKeyword("function"):
		return p.funcDecl()
	}
	if name, n, ok := p.funcDeclAhead(); ok {
		return p.funcDeclNamed(name, n)
	}
	if w := p.peekWordLit(); w != "" && p.wordBoundaryAfter(len(w)) {
		switch w {
		case "declare", "local", "export", "readonly", "typeset", "nameref":
			return p.declClause(w)
		case "let":
			return p.letClause()
		case "time":
			return p.timeClause()
		}
	}
	return nil, nil
}

func (p *Parser) wordBoundaryAfter(n int) bool {
	if p.lexer.pos+n >= len(p.lexer.src) {
		return true
	}
	c := p.lexer.src[p.lexer.pos+n]
	return isBlank(c) || c == '\n' || c == ';' || c == '&' || c == '|' || c == '('
}

func (p *Parser) peekWordLit() string {
	if p.lexer.eof() || !isNameStart(p.lexer.peekByte()) {
		return ""
	}
	j := p.lexer.pos
	for j < len(p.lexer.src) && isNameCont(p.lexer.src[j]) {
		j++
	}
	return p.lexer.src[p.lexer.pos:j]
}

// funcDeclAhead recognises the POSIX "name()" function-declaration prefix.
func (p *Parser) funcDeclAhead() (name string, consumedLen int, ok bool) {
	if p.lexer.eof() || !isNameStart(p.lexer.peekByte()) {
		return "", 0, false
	}
	j := p.lexer.pos
	for j < len(p.lexer.src) && isNameCont(p.lexer.src[j]) {
		j++
	}
	if j == p.lexer.pos {
		return "", 0, false
	}
	k := j
	for k < len(p.lexer.src) && isBlank(p.lexer.src[k]) {
		k++
	}
	if k+1 < len(p.lexer.src) && p.lexer.src[k] == '(' && p.lexer.src[k+1] == ')' {
		return p.lexer.src[p.lexer.pos:j], (k + 2) - p.lexer.pos, true
	}
	return "", 0, false
}

func (p *Parser) consumeKeyword(kw string) error {
	p.lexer.skipSpacesTabsNewlines()
	if !p.peekKeyword(kw) {
		return p.errorf("expected %q", kw)
	}
	p.lexer.pos += len(kw)
	return nil
}

// ---- blocks, subshells ----

func (p *Parser) block() (Command, error) {
	lbrace := p.lexer.pushPos()
	p.lexer.advance()
	stmts, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	if p.lexer.eof() || p.lexer.peekByte() != '}' {
		return nil, p.errorf("expected '}'")
	}
	rbrace := p.lexer.pushPos()
	p.lexer.advance()
	return &Block{Lbrace: lbrace, Rbrace: rbrace, Stmts: stmts}, nil
}

func (p *Parser) subshell() (Command, error) {
	lparen := p.lexer.pushPos()
	p.lexer.advance()
	stmts, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	if p.lexer.eof() || p.lexer.peekByte() != ')' {
		return nil, p.errorf("expected ')'")
	}
	rparen := p.lexer.pushPos()
	p.lexer.advance()
	return &Subshell{Lparen: lparen, Rparen: rparen, Stmts: stmts}, nil
}

// ---- if / while / until ----

func (p *Parser) ifClause() (Command, error) {
	ifPos := p.lexer.pushPos()
	if err := p.consumeKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	if len(cond) == 0 {
		return nil, p.errorf("expected command after 'if'")
	}
	if err := p.consumeKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	ic := &IfClause{If: ifPos, Cond: cond, Then: then}
	for {
		p.lexer.skipSpacesTabsNewlines()
		if !p.peekKeyword("elif") {
			break
		}
		if err := p.consumeKeyword("elif"); err != nil {
			return nil, err
		}
		ec, err := p.stmtList(false)
		if err != nil {
			return nil, err
		}
		if err := p.consumeKeyword("then"); err != nil {
			return nil, err
		}
		et, err := p.stmtList(false)
		if err != nil {
			return nil, err
		}
		ic.Elifs = append(ic.Elifs, &Elif{Cond: ec, Then: et})
	}
	p.lexer.skipSpacesTabsNewlines()
	if p.peekKeyword("else") {
		if err := p.consumeKeyword("else"); err != nil {
			return nil, err
		}
		ic.HasElse = true
		ic.Else, err = p.stmtList(false)
		if err != nil {
			return nil, err
		}
	}
	p.lexer.skipSpacesTabsNewlines()
	ic.Fi = p.lexer.pushPos()
	if err := p.consumeKeyword("fi"); err != nil {
		return nil, err
	}
	return ic, nil
}

func (p *Parser) whileClause(until bool) (Command, error) {
	wpos := p.lexer.pushPos()
	kw := "while"
	if until {
		kw = "until"
	}
	if err := p.consumeKeyword(kw); err != nil {
		return nil, err
	}
	cond, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("do"); err != nil {
		return nil, err
	}
	do, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	donePos := p.lexer.pushPos()
	if err := p.consumeKeyword("done"); err != nil {
		return nil, err
	}
	return &WhileClause{WhilePos: wpos, DonePos: donePos, Until: until, Cond: cond, Do: do}, nil
}

// ---- for / select ----

func (p *Parser) forClauseGeneric(selectKw bool) (Command, error) {
	fpos := p.lexer.pushPos()
	kw := "for"
	if selectKw {
		kw = "select"
	}
	if err := p.consumeKeyword(kw); err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabs()

	var loop Loop
	if !selectKw && p.peekOp("((") {
		l, err := p.cStyleLoop()
		if err != nil {
			return nil, err
		}
		loop = l
	} else {
		namePos := p.lexer.pushPos()
		start := p.lexer.pos
		for !p.lexer.eof() && isNameCont(p.lexer.peekByte()) {
			p.lexer.advance()
		}
		wi := &WordIter{Name: Lit{ValuePos: namePos, Value: p.lexer.src[start:p.lexer.pos]}}
		p.lexer.skipSpacesTabs()
		if p.peekKeyword("in") {
			wi.InPos = p.lexer.pushPos()
			p.lexer.pos += 2
			p.lexer.skipSpacesTabs()
			for !p.atCommandEnd() {
				w, err := p.word(p.atWordBoundary)
				if err != nil {
					return nil, err
				}
				if len(w.Parts) == 0 {
					break
				}
				wi.Items = append(wi.Items, w)
				p.lexer.skipSpacesTabs()
			}
		}
		loop = wi
	}

	p.lexer.skipSpacesTabs()
	if !p.lexer.eof() && p.lexer.peekByte() == ';' {
		p.lexer.advance()
	}
	p.lexer.skipSpacesTabsNewlines()
	if err := p.consumeKeyword("do"); err != nil {
		return nil, err
	}
	do, err := p.stmtList(false)
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	donePos := p.lexer.pushPos()
	if err := p.consumeKeyword("done"); err != nil {
		return nil, err
	}
	return &ForClause{ForPos: fpos, DonePos: donePos, Loop: loop, Do: do, Select: selectKw}, nil
}

func (p *Parser) cStyleLoop() (*CStyleLoop, error) {
	lparen := p.lexer.pushPos()
	p.lexer.advance()
	p.lexer.advance()
	inner, rparen, err := p.scanDoubleParenBody()
	if err != nil {
		return nil, err
	}
	parts := splitTopLevel(inner, ';')
	if len(parts) != 3 {
		return nil, p.errorf("expected init;cond;post inside for ((...))")
	}
	initX, _ := parseArithmString(parts[0])
	condX, _ := parseArithmString(parts[1])
	postX, _ := parseArithmString(parts[2])
	return &CStyleLoop{Lparen: lparen, Rparen: rparen, Init: initX, Cond: condX, Post: postX}, nil
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// scanDoubleParenBody scans a balanced "((...))" region assuming the two
// opening parens have already been consumed, returning the inner text and
// the position of the final ')'.
func (p *Parser) scanDoubleParenBody() (inner string, rparen token.Pos, err error) {
	depth := 0
	start := p.lexer.pos
	for {
		if p.lexer.eof() {
			return "", 0, p.errorf("unterminated '((' ... '))'")
		}
		c := p.lexer.peekByte()
		if c == '(' {
			depth++
		} else if c == ')' {
			if depth == 0 && p.lexer.peekAt(1) == ')' {
				break
			}
			depth--
		}
		p.lexer.advance()
	}
	inner = p.lexer.src[start:p.lexer.pos]
	p.lexer.advance() // first )
	rparen = p.lexer.pushPos()
	p.lexer.advance() // second )
	return inner, rparen, nil
}

// ---- (( expr )) as a command ----

func (p *Parser) arithmCmd() (Command, error) {
	left := p.lexer.pushPos()
	p.lexer.advance()
	p.lexer.advance()
	inner, right, err := p.scanDoubleParenBody()
	if err != nil {
		return nil, err
	}
	x, err := parseArithmString(inner)
	if err != nil {
		return nil, p.errorf("%s", err)
	}
	return &ArithmCmd{Left: left, Right: right, X: x}, nil
}

// ---- case ----

func (p *Parser) caseClause() (Command, error) {
	cpos := p.lexer.pushPos()
	if err := p.consumeKeyword("case"); err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabs()
	w, err := p.word(p.atWordBoundary)
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	if err := p.consumeKeyword("in"); err != nil {
		return nil, err
	}
	cc := &CaseClause{Case: cpos, Word: w}
	for {
		p.lexer.skipSpacesTabsNewlines()
		if p.lexer.eof() || p.peekKeyword("esac") {
			break
		}
		if p.lexer.peekByte() == '(' {
			p.lexer.advance()
		}
		var pats []*Word
		for {
			p.lexer.skipSpacesTabs()
			pw, err := p.word(p.casePatternStop)
			if err != nil {
				return nil, err
			}
			pats = append(pats, pw)
			p.lexer.skipSpacesTabs()
			if !p.lexer.eof() && p.lexer.peekByte() == '|' {
				p.lexer.advance()
				continue
			}
			break
		}
		if p.lexer.eof() || p.lexer.peekByte() != ')' {
			return nil, p.errorf("expected ')' in case pattern")
		}
		p.lexer.advance()
		stmts, err := p.stmtList(false)
		if err != nil {
			return nil, err
		}
		p.lexer.skipSpacesTabsNewlines()
		item := &CaseItem{Patterns: pats, Stmts: stmts, Op: token.DSEMICOLON, OpPos: p.lexer.pushPos()}
		switch {
		case p.peekOp(";;&"):
			item.Op = token.DSEMIFALL
			p.lexer.pos += 3
		case p.peekOp(";;"):
			item.Op = token.DSEMICOLON
			p.lexer.pos += 2
		case p.peekOp(";&"):
			item.Op = token.SEMIFALL
			p.lexer.pos += 2
		}
		cc.Items = append(cc.Items, item)
	}
	p.lexer.skipSpacesTabsNewlines()
	cc.Esac = p.lexer.pushPos()
	if err := p.consumeKeyword("esac"); err != nil {
		return nil, err
	}
	return cc, nil
}

func (p *Parser) casePatternStop() bool {
	if p.lexer.eof() {
		return true
	}
	c := p.lexer.peekByte()
	return c == '|' || c == ')' || isBlank(c) || c == '\n'
}

// ---- [[ ]] test expressions ----

func (p *Parser) testClauseCmd() (Command, error) {
	left := p.lexer.pushPos()
	p.lexer.pos += 2
	p.lexer.skipSpacesTabsNewlines()
	x, err := p.testOrExpr()
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabsNewlines()
	if !p.peekOp("]]") {
		return nil, p.errorf("expected ']]'")
	}
	right := p.lexer.pushPos()
	p.lexer.pos += 2
	return &TestClause{Left: left, Right: right, X: x}, nil
}

func (p *Parser) testOrExpr() (TestExpr, error) {
	left, err := p.testAndExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.lexer.skipSpacesTabs()
		if !p.peekOp("||") {
			return left, nil
		}
		p.lexer.pos += 2
		p.lexer.skipSpacesTabsNewlines()
		right, err := p.testAndExpr()
		if err != nil {
			return nil, err
		}
		left = &TestAndOr{Op: token.LOR, X: left, Y: right}
	}
}

func (p *Parser) testAndExpr() (TestExpr, error) {
	left, err := p.testNotExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.lexer.skipSpacesTabs()
		if !p.peekOp("&&") {
			return left, nil
		}
		p.lexer.pos += 2
		p.lexer.skipSpacesTabsNewlines()
		right, err := p.testNotExpr()
		if err != nil {
			return nil, err
		}
		left = &TestAndOr{Op: token.LAND, X: left, Y: right}
	}
}

func (p *Parser) testNotExpr() (TestExpr, error) {
	p.lexer.skipSpacesTabs()
	if p.peekKeyword("!") {
		bang := p.lexer.pushPos()
		p.lexer.advance()
		p.lexer.skipSpacesTabs()
		x, err := p.testNotExpr()
		if err != nil {
			return nil, err
		}
		return &TestNot{Bang: bang, X: x}, nil
	}
	return p.testPrimary()
}

var testUnaryFlags = map[string]bool{
	"-f": true, "-d": true, "-e": true, "-r": true, "-w": true, "-x": true,
	"-s": true, "-z": true, "-n": true, "-L": true, "-h": true, "-p": true,
	"-S": true, "-b": true, "-c": true, "-u": true, "-g": true, "-k": true,
	"-O": true, "-G": true, "-t": true, "-v": true, "-o": true, "-R": true,
}

var testBinOps = []string{
	"-eq", "-ne", "-le", "-lt", "-ge", "-gt", "-nt", "-ot", "-ef",
	"==", "=~", "!=", "<=", ">=", "=", "<", ">",
}

func (p *Parser) testPrimary() (TestExpr, error) {
	p.lexer.skipSpacesTabs()
	if !p.lexer.eof() && p.lexer.peekByte() == '(' && !p.peekOp("((") {
		lp := p.lexer.pushPos()
		p.lexer.advance()
		p.lexer.skipSpacesTabsNewlines()
		x, err := p.testOrExpr()
		if err != nil {
			return nil, err
		}
		p.lexer.skipSpacesTabs()
		if p.lexer.eof() || p.lexer.peekByte() != ')' {
			return nil, p.errorf("expected ')' in test expression")
		}
		rp := p.lexer.pushPos()
		p.lexer.advance()
		return &TestParen{Lparen: lp, Rparen: rp, X: x}, nil
	}
	if !p.lexer.eof() && p.lexer.peekByte() == '-' {
		two := p.lexer.src[p.lexer.pos:minInt(p.lexer.pos+2, len(p.lexer.src))]
		if testUnaryFlags[two] && p.wordBoundaryAfter(2) {
			opPos := p.lexer.pushPos()
			p.lexer.pos += 2
			p.lexer.skipSpacesTabs()
			w, err := p.testWord()
			if err != nil {
				return nil, err
			}
			return &TestUnary{OpPos: opPos, Op: two, X: w}, nil
		}
	}
	w1, err := p.testWord()
	if err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabs()
	if op, ok := p.testBinOpAhead(); ok {
		opPos := p.lexer.pushPos()
		p.lexer.pos += len(op)
		p.lexer.skipSpacesTabs()
		w2, err := p.testWord()
		if err != nil {
			return nil, err
		}
		return &TestBinary{Op: op, OpPos: opPos, X: w1, Y: w2}, nil
	}
	return &TestWord{X: w1}, nil
}

func (p *Parser) testBinOpAhead() (string, bool) {
	rest := p.lexer.src[p.lexer.pos:]
	for _, op := range testBinOps {
		if len(rest) >= len(op) && rest[:len(op)] == op {
			if p.wordBoundaryAfter(len(op)) {
				return op, true
			}
		}
	}
	return "", false
}

func (p *Parser) testWord() (*Word, error) {
	return p.word(func() bool {
		if p.lexer.eof() {
			return true
		}
		if isBlank(p.lexer.peekByte()) || p.lexer.peekByte() == '\n' {
			return true
		}
		if p.peekOp("]]") {
			return true
		}
		if p.lexer.peekByte() == '(' || p.lexer.peekByte() == ')' {
			return true
		}
		if p.peekOp("&&") || p.peekOp("||") {
			return true
		}
		return false
	})
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ---- declare/local/export/readonly/typeset/nameref, let, time, function ----

func (p *Parser) declClause(variant string) (Command, error) {
	dpos := p.lexer.pushPos()
	p.lexer.pos += len(variant)
	d := &DeclClause{Position: dpos, Variant: variant}
	for {
		p.lexer.skipSpacesTabs()
		if p.atCommandEnd() {
			break
		}
		if !p.lexer.eof() && p.lexer.peekByte() == '-' {
			w, err := p.word(p.atWordBoundary)
			if err != nil {
				return nil, err
			}
			d.Opts = append(d.Opts, w)
			continue
		}
		a, ok, err := p.maybeAssign()
		if err != nil {
			return nil, err
		}
		if ok {
			d.Assigns = append(d.Assigns, a)
			continue
		}
		if !p.lexer.eof() && isNameStart(p.lexer.peekByte()) {
			w, err := p.word(p.atWordBoundary)
			if err != nil {
				return nil, err
			}
			if name := w.Lit(); name != "" {
				d.Assigns = append(d.Assigns, &Assign{Name: &Lit{Value: name}, Naked: true})
				continue
			}
		}
		break
	}
	return d, nil
}

func (p *Parser) letClause() (Command, error) {
	lpos := p.lexer.pushPos()
	p.lexer.pos += 3
	l := &LetClause{Let: lpos}
	for {
		p.lexer.skipSpacesTabs()
		if p.atCommandEnd() {
			break
		}
		w, err := p.word(p.atWordBoundary)
		if err != nil {
			return nil, err
		}
		if len(w.Parts) == 0 {
			break
		}
		raw := w.Lit()
		if raw == "" {
			for _, part := range w.Parts {
				if lit, ok := part.(*Lit); ok {
					raw += lit.Value
				}
			}
		}
		x, err := parseArithmString(raw)
		if err != nil {
			return nil, p.errorf("%s", err)
		}
		l.Exprs = append(l.Exprs, x)
	}
	return l, nil
}

func (p *Parser) timeClause() (Command, error) {
	tpos := p.lexer.pushPos()
	p.lexer.pos += 4
	t := &TimeClause{TimePos: tpos}
	p.lexer.skipSpacesTabs()
	if !p.lexer.eof() && p.lexer.peekByte() == '-' && p.lexer.peekAt(1) == 'p' {
		t.PosixFormat = true
		p.lexer.pos += 2
		p.lexer.skipSpacesTabs()
	}
	if p.atCommandEnd() {
		return t, nil
	}
	st, err := p.statement()
	if err != nil {
		return nil, err
	}
	t.Stmt = st
	return t, nil
}

func (p *Parser) funcDecl() (Command, error) {
	fpos := p.lexer.pushPos()
	if err := p.consumeKeyword("function"); err != nil {
		return nil, err
	}
	p.lexer.skipSpacesTabs()
	nameStart := p.lexer.pos
	for !p.lexer.eof() && isNameCont(p.lexer.peekByte()) {
		p.lexer.advance()
	}
	name := p.lexer.src[nameStart:p.lexer.pos]
	p.lexer.skipSpacesTabs()
	if !p.lexer.eof() && p.lexer.peekByte() == '(' && p.lexer.peekAt(1) == ')' {
		p.lexer.pos += 2
	}
	p.lexer.skipSpacesTabsNewlines()
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.errorf("expected function body")
	}
	return &FuncDecl{Position: fpos, BashStyle: true, Name: Lit{ValuePos: fpos, Value: name}, Body: body}, nil
}

func (p *Parser) funcDeclNamed(name string, consumedLen int) (Command, error) {
	fpos := p.lexer.pushPos()
	namePos := fpos
	p.lexer.pos += consumedLen
	p.lexer.skipSpacesTabsNewlines()
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.errorf("expected function body")
	}
	return &FuncDecl{Position: fpos, BashStyle: false, Name: Lit{ValuePos: namePos, Value: name}, Body: body}, nil
}
