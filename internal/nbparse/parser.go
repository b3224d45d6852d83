package nbparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nberrors"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbrule"
	"github.com/trettevik/nodebrain/internal/nbtime"
	"github.com/trettevik/nodebrain/internal/nbtimer"
)

// Env is the binding environment a Parser builds cells against: the
// cell graph, the root term namespace, the change-pulse tracker shared
// by every `~=` cell, the rule scheduler rules are registered with, and
// the clock/dispatcher/horizon a time expression's schedule cell needs.
type Env struct {
	Graph      *nbcell.Graph
	Root       *nbcell.Term
	Changes    *nbcond.ChangeTracker
	Scheduler  *nbrule.Scheduler
	Dispatcher *nbtimer.Dispatcher
	Clock      func() time.Time
	Horizon    time.Duration
}

// Term resolves a dotted path from Root, creating any missing
// intermediate or leaf terms as leaf cells holding nbobject.Placeholder.
func (e *Env) Term(path string) *nbcell.Term {
	cur := e.Root
	for _, seg := range strings.Split(path, ".") {
		child, ok := cur.Child(seg)
		if !ok {
			child = cur.Define(seg, nbcell.NewLeaf("term", nbobject.Placeholder))
		}
		cur = child
	}
	return cur
}

// ParseResult is what Parser.ParseStatement returns for one top-level
// statement.
type ParseResult struct {
	Kind string // "define", "assert", "alert", "show", "undefine"
	Term *nbcell.Term
	Rule *nbrule.Rule
}

// Parser translates one NodeBrain source statement at a time into the
// cell graph rooted at Env.
type Parser struct {
	lex  *Lexer
	env  *Env
	cur  Token
	peek Token
}

// New creates a Parser over source, bound to env.
func New(source string, env *Env) (*Parser, error) {
	p := &Parser{lex: NewLexer(source), env: env}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) atEOF() bool { return p.cur.Kind == TokEOF }

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if p.cur.Kind != kind {
		return Token{}, nberrors.SyntaxError(p.cur.Line, "expected %s, found %q", what, p.cur.Text)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) keyword(word string) bool {
	return p.cur.Kind == TokIdent && p.cur.Text == word
}

// ParseAll parses every statement in the source, returning one
// ParseResult per statement.
func (p *Parser) ParseAll() ([]ParseResult, error) {
	var out []ParseResult
	for !p.atEOF() {
		res, err := p.ParseStatement()
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// ParseStatement parses exactly one top-level statement.
func (p *Parser) ParseStatement() (ParseResult, error) {
	switch {
	case p.keyword("define"):
		return p.parseDefine()
	case p.keyword("assert"):
		return p.parseAssertAlert("assert")
	case p.keyword("alert"):
		return p.parseAssertAlert("alert")
	case p.keyword("show"):
		return p.parseShow()
	case p.keyword("undefine"):
		return p.parseUndefine()
	default:
		return ParseResult{}, nberrors.SyntaxError(p.cur.Line, "unrecognized statement starting with %q", p.cur.Text)
	}
}

func (p *Parser) parseName() (string, error) {
	tok, err := p.expect(TokIdent, "a name")
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// parseDefine handles every `define NAME ...` form: plain cells and the
// three rule kinds.
func (p *Parser) parseDefine() (ParseResult, error) {
	if err := p.advance(); err != nil { // consume "define"
		return ParseResult{}, err
	}
	name, err := p.parseName()
	if err != nil {
		return ParseResult{}, err
	}

	switch {
	case p.keyword("cell"):
		if err := p.advance(); err != nil {
			return ParseResult{}, err
		}
		cell, bare, err := p.parseExpr()
		if err != nil {
			return ParseResult{}, err
		}
		if _, err := p.expect(TokSemicolon, "';'"); err != nil {
			return ParseResult{}, err
		}
		term := p.env.Term(name)
		if bare {
			term.Cell.SetValue(cell.Value())
		} else {
			term.Cell = cell
		}
		return ParseResult{Kind: "define", Term: term}, nil

	case p.keyword("on"), p.keyword("when"), p.keyword("if"):
		kind := p.cur.Text
		if err := p.advance(); err != nil {
			return ParseResult{}, err
		}
		rule, err := p.parseRuleTail(name, kind)
		if err != nil {
			return ParseResult{}, err
		}
		return ParseResult{Kind: "define", Rule: rule}, nil

	default:
		return ParseResult{}, nberrors.SyntaxError(p.cur.Line, "expected 'cell', 'on', 'when' or 'if', found %q", p.cur.Text)
	}
}

// parseRuleTail parses `on(<cell>)[<prio>] <assertions> : <command> ;`
// (and the `when`/`if` equivalents) after "define NAME <kind>" has
// already been consumed.
func (p *Parser) parseRuleTail(name, kind string) (*nbrule.Rule, error) {
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, _, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}

	var priority int8
	if p.cur.Kind == TokLBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		numTok, err := p.expect(TokNumber, "a priority number")
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(numTok.Text)
		if convErr != nil {
			return nil, nberrors.SyntaxError(numTok.Line, "invalid priority %q", numTok.Text)
		}
		priority = int8(n)
		if _, err := p.expect(TokRBracket, "']'"); err != nil {
			return nil, err
		}
	}

	var assertions []nbrule.Assertion
	for !p.keyword2(TokColon) && p.cur.Kind != TokSemicolon {
		asn, err := p.parseAssertion()
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, asn)
		if p.cur.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	var command string
	if p.cur.Kind == TokColon {
		// p.peek has already been lexed as an ordinary token, one
		// lookahead slot past the ':' we're sitting on — for a command
		// tail that means the command's first word is already consumed
		// as a token, not raw text. Rewind the lexer to immediately
		// after the ':' (p.cur.End) before reading the command raw, then
		// refill cur/peek from scratch: ReadCommandUntilSemicolon leaves
		// the lexer sitting on the terminating ';', so two fresh Next
		// calls reconstruct the normal two-token lookahead in step.
		p.lex.SeekTo(p.cur.End)
		command = p.lex.ReadCommandUntilSemicolon()
		semi, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		after, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		p.cur, p.peek = semi, after
	}

	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}

	ctx := p.env.Root
	var rule *nbrule.Rule
	switch kind {
	case "on":
		rule = p.env.Scheduler.NewOnRule(name, cond, ctx, assertions, command, priority)
	case "when":
		term := p.env.Term(name)
		rule = p.env.Scheduler.NewWhenRule(name, cond, ctx, assertions, command, priority, func() {
			if term.Parent != nil {
				term.Parent.Remove(term.Name)
			}
		})
	case "if":
		rule = p.env.Scheduler.NewIfRule(name, cond, ctx, assertions, command, priority)
	}
	return rule, nil
}

func (p *Parser) keyword2(k TokenKind) bool { return p.cur.Kind == k }

// parseAssertion parses one `TERM=EXPR` entry of an assertion list.
func (p *Parser) parseAssertion() (nbrule.Assertion, error) {
	nameTok, err := p.expect(TokIdent, "a term name")
	if err != nil {
		return nbrule.Assertion{}, err
	}
	if _, err := p.expectOp("="); err != nil {
		return nbrule.Assertion{}, err
	}
	value, _, err := p.parseExpr()
	if err != nil {
		return nbrule.Assertion{}, err
	}
	return nbrule.Assertion{Term: p.env.Term(nameTok.Text), Value: value}, nil
}

func (p *Parser) expectOp(op string) (Token, error) {
	if p.cur.Kind != TokOp || p.cur.Text != op {
		return Token{}, nberrors.SyntaxError(p.cur.Line, "expected %q, found %q", op, p.cur.Text)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// parseAssertAlert handles `assert TERM=EXPR, ...;` and its `alert`
// twin. Both inject external state the same way at this
// layer; the distinction between assert and alert is a caller-level
// concern.
func (p *Parser) parseAssertAlert(which string) (ParseResult, error) {
	if err := p.advance(); err != nil {
		return ParseResult{}, err
	}
	var last *nbcell.Term
	for {
		asn, err := p.parseAssertion()
		if err != nil {
			return ParseResult{}, err
		}
		asn.Term.Cell.SetValue(asn.Value.Value())
		p.env.Graph.AlertCell(asn.Term.Cell)
		last = asn.Term
		if p.cur.Kind == TokComma {
			if err := p.advance(); err != nil {
				return ParseResult{}, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return ParseResult{}, err
	}
	return ParseResult{Kind: which, Term: last}, nil
}

func (p *Parser) parseShow() (ParseResult, error) {
	if err := p.advance(); err != nil {
		return ParseResult{}, err
	}
	nameTok, err := p.expect(TokIdent, "a term name")
	if err != nil {
		return ParseResult{}, err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return ParseResult{}, err
	}
	return ParseResult{Kind: "show", Term: p.env.Term(nameTok.Text)}, nil
}

func (p *Parser) parseUndefine() (ParseResult, error) {
	if err := p.advance(); err != nil {
		return ParseResult{}, err
	}
	nameTok, err := p.expect(TokIdent, "a term name")
	if err != nil {
		return ParseResult{}, err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return ParseResult{}, err
	}
	term := p.env.Term(nameTok.Text)
	if term.Parent != nil {
		term.Parent.Remove(term.Name)
	}
	return ParseResult{Kind: "undefine", Term: term}, nil
}

// ---- expression grammar ----
//
// Precedence, low to high:
//   | || |!& !|
//   & && !& ?
//   ^ then capture
//   = <> < <= > >= ~
//   + -
//   * /
//   unary ! !! ? !? -? +?
//   primary

func (p *Parser) parseExpr() (*nbcell.Cell, bool, error) { return p.parseOr() }

func (p *Parser) parseOr() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseAnd()
	if err != nil {
		return nil, false, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "|", "||", "|!&", "!|") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		right, _, err := p.parseAnd()
		if err != nil {
			return nil, false, err
		}
		left, err = combineOr(p.env.Graph, op, left, right)
		if err != nil {
			return nil, false, err
		}
		bare = false
	}
	return left, bare, nil
}

func combineOr(g *nbcell.Graph, op string, a, b *nbcell.Cell) (*nbcell.Cell, error) {
	switch op {
	case "|":
		return nbcond.Or(g, a, b), nil
	case "||":
		return nbcond.LazyOr(a, b), nil
	case "|!&":
		return nbcond.Xor(g, a, b), nil
	case "!|":
		return nbcond.Nor(g, a, b), nil
	default:
		return nil, nberrors.SyntaxError(0, "unknown or-level operator %q", op)
	}
}

func (p *Parser) parseAnd() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseXor()
	if err != nil {
		return nil, false, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "&", "&&", "!&", "?") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		right, _, err := p.parseXor()
		if err != nil {
			return nil, false, err
		}
		left, err = combineAnd(p.env.Graph, op, left, right)
		if err != nil {
			return nil, false, err
		}
		bare = false
	}
	return left, bare, nil
}

func combineAnd(g *nbcell.Graph, op string, a, b *nbcell.Cell) (*nbcell.Cell, error) {
	switch op {
	case "&":
		return nbcond.And(g, a, b), nil
	case "&&":
		return nbcond.LazyAnd(a, b), nil
	case "!&":
		return nbcond.Nand(g, a, b), nil
	case "?":
		return nbcond.Default(g, a, b), nil
	default:
		return nil, nberrors.SyntaxError(0, "unknown and-level operator %q", op)
	}
}

// parseXor handles `^` (flip-flop — exclusive-or is already spelled
// `|!&` at the or-tier), `then` and `capture`; `then` and `capture` fold
// to plain sequencing/capture-monitor sampling at this precedence level.
func (p *Parser) parseXor() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseRelational()
	if err != nil {
		return nil, false, err
	}
	for (p.cur.Kind == TokOp && p.cur.Text == "^") || p.keyword("then") || p.keyword("capture") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		right, _, err := p.parseRelational()
		if err != nil {
			return nil, false, err
		}
		switch op {
		case "^":
			left = nbcond.FlipFlop(p.env.Graph, left, right)
		case "then":
			left = right
		case "capture":
			mon := nbcond.NewCaptureMonitor(right)
			left = nbcell.NewConst(mon.Sample())
		}
		bare = false
	}
	return left, bare, nil
}

var relOps = map[string]nbcond.RelOp{
	"=": nbcond.Eq, "<>": nbcond.Ne, "<": nbcond.Lt, "<=": nbcond.Le, ">": nbcond.Gt, ">=": nbcond.Ge,
}

// delayValues maps a delay operator's lexeme to the value it holds for
// the armed duration: `~^` holds True, `~^!` holds False, `~^?` holds
// Unknown.
var delayValues = map[string]*nbobject.Object{
	"~^": nbobject.True, "~^!": nbobject.False, "~^?": nbobject.Unknown,
}

// parseDelay parses a delay operator's `(duration)` argument and wires
// left as the watched operand, e.g. `a~^(10s)`.
func (p *Parser) parseDelay(left *nbcell.Cell, value *nbobject.Object) (*nbcell.Cell, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	dur, err := p.parseDurationLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	dc := nbtime.NewDelayCell(p.env.Graph, p.env.Dispatcher, left, value, dur)
	return dc.Cell, nil
}

func (p *Parser) parseRelational() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseAdditive()
	if err != nil {
		return nil, false, err
	}
	for p.cur.Kind == TokOp {
		if op, ok := relOps[p.cur.Text]; ok {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			right, _, err := p.parseAdditive()
			if err != nil {
				return nil, false, err
			}
			left = nbcond.Relational(p.env.Graph, op, left, right)
			bare = false
			continue
		}
		if p.cur.Text == "~" {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			patTok, err := p.expect(TokString, "a regex string literal")
			if err != nil {
				return nil, false, err
			}
			left = nbcond.Match(p.env.Graph, left, patTok.Text)
			bare = false
			continue
		}
		if delayValue, ok := delayValues[p.cur.Text]; ok {
			dc, err := p.parseDelay(left, delayValue)
			if err != nil {
				return nil, false, err
			}
			left = dc
			bare = false
			continue
		}
		break
	}
	return left, bare, nil
}

func (p *Parser) parseAdditive() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseMultiplicative()
	if err != nil {
		return nil, false, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "+", "-") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		right, _, err := p.parseMultiplicative()
		if err != nil {
			return nil, false, err
		}
		if op == "+" {
			left = nbcond.Add(p.env.Graph, left, right)
		} else {
			left = nbcond.Sub(p.env.Graph, left, right)
		}
		bare = false
	}
	return left, bare, nil
}

func (p *Parser) parseMultiplicative() (*nbcell.Cell, bool, error) {
	left, bare, err := p.parseUnary()
	if err != nil {
		return nil, false, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "*", "/") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		right, _, err := p.parseUnary()
		if err != nil {
			return nil, false, err
		}
		if op == "*" {
			left = nbcond.Mul(p.env.Graph, left, right)
		} else {
			left = nbcond.Div(p.env.Graph, left, right)
		}
		bare = false
	}
	return left, bare, nil
}

// isExprTerminator reports whether tok ends an expression in every
// context the unary parser can be called from — used to disambiguate
// the bare `?` (Unknown constant) from the prefix `?e` (IsUnknown)
// operator.
func isExprTerminator(tok Token) bool {
	switch tok.Kind {
	case TokSemicolon, TokRParen, TokRBracket, TokComma, TokColon, TokEOF:
		return true
	}
	return false
}

func (p *Parser) parseUnary() (*nbcell.Cell, bool, error) {
	if p.cur.Kind == TokOp && p.cur.Text == "~=" {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		operand, _, err := p.parseUnary()
		if err != nil {
			return nil, false, err
		}
		return nbcond.NewChange(p.env.Graph, p.env.Changes, operand), false, nil
	}
	if p.cur.Kind == TokOp && isOneOf(p.cur.Text, "!", "!!", "?", "!?", "-?", "+?") {
		op := p.cur.Text
		if op == "?" && isExprTerminator(p.peek) {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			return nbcell.NewConst(nbobject.Unknown), false, nil
		}
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		operand, _, err := p.parseUnary()
		if err != nil {
			return nil, false, err
		}
		return applyUnary(p.env.Graph, op, operand), false, nil
	}
	if p.cur.Kind == TokOp && p.cur.Text == "-" {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		operand, _, err := p.parseUnary()
		if err != nil {
			return nil, false, err
		}
		return nbcond.Neg(p.env.Graph, operand), false, nil
	}
	return p.parsePrimary()
}

func applyUnary(g *nbcell.Graph, op string, a *nbcell.Cell) *nbcell.Cell {
	switch op {
	case "!":
		return nbcond.Not(g, a)
	case "!!":
		return nbcond.KnownPassthrough(g, a)
	case "?":
		return nbcond.IsUnknown(g, a)
	case "!?":
		return nbcond.IsKnown(g, a)
	case "-?":
		return nbcond.DefaultFalse(g, a)
	case "+?":
		return nbcond.DefaultTrue(g, a)
	}
	return a
}

func (p *Parser) parsePrimary() (*nbcell.Cell, bool, error) {
	switch p.cur.Kind {
	case TokNumber:
		n, err := strconv.ParseFloat(p.cur.Text, 64)
		if err != nil {
			return nil, false, nberrors.SyntaxError(p.cur.Line, "invalid number %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return nbcell.NewConst(nbobject.Real(n)), true, nil

	case TokString:
		s := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return nbcell.NewConst(nbobject.String(s)), true, nil

	case TokIdent:
		switch p.cur.Text {
		case "true", "True":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			return nbcell.NewConst(nbobject.True), true, nil
		case "false", "False":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			return nbcell.NewConst(nbobject.False), true, nil
		}
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return p.env.Term(name).Cell, false, nil

	case TokLParen:
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		cell, _, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, false, err
		}
		return cell, false, nil

	case TokDollarParen:
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		cell, _, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, false, err
		}
		return cell, false, nil

	case TokTildeParen:
		return p.parseTimeExpr()

	default:
		return nil, false, nberrors.SyntaxError(p.cur.Line, "unexpected token %q in expression", p.cur.Text)
	}
}

func isOneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
