package nbparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nberrors"
	"github.com/trettevik/nodebrain/internal/nbtime"
)

// unitNames maps a time expression's simple-function identifiers to
// calendar units.
var unitNames = map[string]nbtime.Unit{
	"second": nbtime.UnitSecond, "s": nbtime.UnitSecond,
	"minute": nbtime.UnitMinute, "m": nbtime.UnitMinute,
	"hour": nbtime.UnitHour, "h": nbtime.UnitHour,
	"day": nbtime.UnitDay, "d": nbtime.UnitDay,
	"week": nbtime.UnitWeek, "w": nbtime.UnitWeek,
	"month": nbtime.UnitMonth,
	"quarter": nbtime.UnitQuarter,
	"year": nbtime.UnitYear, "y": nbtime.UnitYear,
	"decade":     nbtime.UnitDecade,
	"century":    nbtime.UnitCentury,
	"millennium": nbtime.UnitMillennium,
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// parseTimeExpr parses the body of a `~(…)` time expression, starting
// right after the opening TokTildeParen has already been consumed by
// parsePrimary. The grammar, low to high
// precedence: `|`/`,` (union) > `_` (until; `#` starts a comment in the
// lexer, so it is not accepted here) > `!` (reject) >
// `=`/`.` (select) > `<`/`>` (stretch) > `&` (intersect) > unary `!`
// (complement) > postfix `[k]` (index) > primary (simple/complex
// function or parenthesized sub-expression).
func (p *Parser) parseTimeExpr() (*nbcell.Cell, bool, error) {
	expr, err := p.parseTimeUnion()
	if err != nil {
		return nil, false, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, false, err
	}
	sc := nbtime.NewScheduleCell(p.env.Graph, p.env.Dispatcher, p.env.Clock, expr, p.env.Horizon)
	return sc.Cell, false, nil
}

func (p *Parser) parseTimeUnion() (nbtime.Expr, error) {
	left, err := p.parseTimeUntil()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokComma || (p.cur.Kind == TokOp && p.cur.Text == "|") {
		preserve := p.cur.Kind == TokComma
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeUntil()
		if err != nil {
			return nil, err
		}
		if preserve {
			left = nbtime.ExprUnionPreserving(left, right)
		} else {
			left = nbtime.ExprOr(left, right)
		}
	}
	return left, nil
}

// parseTimeUntil recognizes only the `a _ b` spelling of "until".
func (p *Parser) parseTimeUntil() (nbtime.Expr, error) {
	left, err := p.parseTimeReject()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokUnderscore {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeReject()
		if err != nil {
			return nil, err
		}
		left = nbtime.ExprUntil(left, right)
	}
	return left, nil
}

func (p *Parser) parseTimeReject() (nbtime.Expr, error) {
	left, err := p.parseTimeSelect()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokOp && p.cur.Text == "!" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeSelect()
		if err != nil {
			return nil, err
		}
		left = nbtime.ExprReject(left, right)
	}
	return left, nil
}

func (p *Parser) parseTimeSelect() (nbtime.Expr, error) {
	left, err := p.parseTimeStretch()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "=", ".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeStretch()
		if err != nil {
			return nil, err
		}
		left = nbtime.ExprSelect(left, right)
	}
	return left, nil
}

func (p *Parser) parseTimeStretch() (nbtime.Expr, error) {
	left, err := p.parseTimeIntersect()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokOp && isOneOf(p.cur.Text, "<", ">") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeIntersect()
		if err != nil {
			return nil, err
		}
		if op == "<" {
			left = nbtime.ExprStretchStart(left, right)
		} else {
			left = nbtime.ExprStretchStop(left, right)
		}
	}
	return left, nil
}

func (p *Parser) parseTimeIntersect() (nbtime.Expr, error) {
	left, err := p.parseTimeUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokOp && p.cur.Text == "&" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTimeUnary()
		if err != nil {
			return nil, err
		}
		left = nbtime.ExprAnd(left, right)
	}
	return left, nil
}

func (p *Parser) parseTimeUnary() (nbtime.Expr, error) {
	if p.cur.Kind == TokOp && p.cur.Text == "!" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseTimeUnary()
		if err != nil {
			return nil, err
		}
		return nbtime.ExprNot(operand), nil
	}
	return p.parseTimeIndexed()
}

func (p *Parser) parseTimeIndexed() (nbtime.Expr, error) {
	expr, err := p.parseTimePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokLBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		neg := false
		if p.cur.Kind == TokOp && p.cur.Text == "-" {
			neg = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		numTok, err := p.expect(TokNumber, "an index number")
		if err != nil {
			return nil, err
		}
		k, convErr := strconv.Atoi(numTok.Text)
		if convErr != nil {
			return nil, nberrors.SyntaxError(numTok.Line, "invalid index %q", numTok.Text)
		}
		if neg {
			k = -k
		}
		if _, err := p.expect(TokRBracket, "']'"); err != nil {
			return nil, err
		}
		expr = nbtime.ExprIndexed(expr, k)
	}
	return expr, nil
}

func (p *Parser) parseTimePrimary() (nbtime.Expr, error) {
	if p.cur.Kind == TokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseTimeUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	if p.cur.Kind != TokIdent {
		return nil, nberrors.SyntaxError(p.cur.Line, "expected a time function name, found %q", p.cur.Text)
	}
	name := strings.ToLower(p.cur.Text)
	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}

	// A name directly followed by "(" is a complex function call, e.g.
	// h(from_to) or day(date_date).
	if p.cur.Kind == TokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseTimeComplexArgs(name, line)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	if unit, ok := unitNames[name]; ok {
		return nbtime.UnitFunc{Unit: unit}, nil
	}
	if wd, ok := weekdayNames[name]; ok {
		return nbtime.WeekdayFunc{Day: wd}, nil
	}
	if mo, ok := monthNames[name]; ok {
		return nbtime.MonthFunc{Month: mo}, nil
	}
	return nil, nberrors.SyntaxError(line, "unknown time function %q", name)
}

// parseTimeComplexArgs parses the `from_to` argument pair of a complex
// time function, dispatching on the function name. Only
// hour ranges (`h(8_17)`) and literal date ranges (`day(2014/06/03_
// 2014/06/10)`) are supported; both forms share the same "two values
// joined by an underscore-class operator" shape.
func (p *Parser) parseTimeComplexArgs(name string, line int) (nbtime.Expr, error) {
	switch name {
	case "h", "hour":
		from, err := p.parseTimeInt()
		if err != nil {
			return nil, err
		}
		if err := p.expectTimeUnderscore(); err != nil {
			return nil, err
		}
		to, err := p.parseTimeInt()
		if err != nil {
			return nil, err
		}
		return nbtime.HourRangeFunc{From: from, To: to}, nil

	case "day", "date":
		from, err := p.parseTimeDate()
		if err != nil {
			return nil, err
		}
		// `day(2014/06/03)` names a single day; `day(2014/06/03_
		// 2014/06/10)` a literal range.
		if p.cur.Kind == TokUnderscore {
			if err := p.advance(); err != nil {
				return nil, err
			}
			to, err := p.parseTimeDate()
			if err != nil {
				return nil, err
			}
			return nbtime.DateRangeFunc{From: from, To: to}, nil
		}
		return nbtime.DateRangeFunc{From: from, To: from.AddDate(0, 0, 1)}, nil

	default:
		return nil, nberrors.SyntaxError(line, "unknown complex time function %q", name)
	}
}

// durationUnits maps a delay literal's trailing unit letters/words to
// their fixed duration, e.g. "10s" or "5m".
var durationUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
}

// parseDurationLiteral parses a delay operator's `n unit` argument, e.g.
// the `10s` in `a~^(10s)`. A bare number with no trailing unit is
// seconds.
func (p *Parser) parseDurationLiteral() (time.Duration, error) {
	tok, err := p.expect(TokNumber, "a duration")
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.ParseFloat(tok.Text, 64)
	if convErr != nil {
		return 0, nberrors.SyntaxError(tok.Line, "invalid duration %q", tok.Text)
	}
	unit := time.Second
	if p.cur.Kind == TokIdent {
		name := strings.ToLower(p.cur.Text)
		u, ok := durationUnits[name]
		if !ok {
			return 0, nberrors.SyntaxError(p.cur.Line, "unknown duration unit %q", p.cur.Text)
		}
		unit = u
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	return time.Duration(n * float64(unit)), nil
}

func (p *Parser) expectTimeUnderscore() error {
	if p.cur.Kind != TokUnderscore {
		return nberrors.SyntaxError(p.cur.Line, "expected '_' separating a range's endpoints, found %q", p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) parseTimeInt() (int, error) {
	tok, err := p.expect(TokNumber, "an integer")
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok.Text)
	if convErr != nil {
		return 0, nberrors.SyntaxError(tok.Line, "invalid integer %q", tok.Text)
	}
	return n, nil
}

// parseTimeDate parses a literal "YYYY/MM/DD" date, arriving from the
// lexer as three TokNumber runs joined by TokOp "/" tokens.
func (p *Parser) parseTimeDate() (time.Time, error) {
	year, err := p.parseTimeInt()
	if err != nil {
		return time.Time{}, err
	}
	if err := p.expectTimeSlash(); err != nil {
		return time.Time{}, err
	}
	month, err := p.parseTimeInt()
	if err != nil {
		return time.Time{}, err
	}
	if err := p.expectTimeSlash(); err != nil {
		return time.Time{}, err
	}
	day, err := p.parseTimeInt()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func (p *Parser) expectTimeSlash() error {
	if p.cur.Kind != TokOp || p.cur.Text != "/" {
		return nberrors.SyntaxError(p.cur.Line, "expected '/' in a date literal, found %q", p.cur.Text)
	}
	return p.advance()
}
