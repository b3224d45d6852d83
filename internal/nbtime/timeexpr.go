package nbtime

import "time"

// Expr is a compiled time-condition tree: casting it over a
// window produces the BFI interval set during which the condition is
// true. Every node — simple function, complex function, or operator —
// implements this one method, so the parser's time-expression grammar
// simply builds a tree of Expr values and leaves casting to this
// package.
type Expr interface {
	Cast(begin, end time.Time) BFI
}

// UnitFunc is a "simple function" node: a bare calendar unit name such
// as "day" or "h", true for every aligned unit-length
// interval in the window.
type UnitFunc struct{ Unit Unit }

func (f UnitFunc) Cast(begin, end time.Time) BFI { return CastUnit(f.Unit, begin, end) }

// WeekdayFunc is a "simple function" specialization: true on every day
// matching the named weekday.
type WeekdayFunc struct{ Day time.Weekday }

func (f WeekdayFunc) Cast(begin, end time.Time) BFI { return Weekday(f.Day, begin, end) }

// MonthFunc is a "simple function" specialization: true throughout the
// named month.
type MonthFunc struct{ Month time.Month }

func (f MonthFunc) Cast(begin, end time.Time) BFI { return MonthName(f.Month, begin, end) }

// HourRangeFunc is a "complex function" node: true during the daily
// [From, To) hour window, e.g. `h(8_17)`.
type HourRangeFunc struct{ From, To int }

func (f HourRangeFunc) Cast(begin, end time.Time) BFI { return HourRange(f.From, f.To, begin, end) }

// DateRangeFunc is a "complex function" node: true only during the
// literal [From, To) instant range, e.g. `day(2014/06/03)`.
type DateRangeFunc struct{ From, To time.Time }

func (f DateRangeFunc) Cast(begin, end time.Time) BFI {
	return Intersect(DateRange(f.From, f.To), Single(begin, end))
}

// binExpr is the common shape of every binary BFI operator in the
// expression-over-intervals table, applied to two Expr subtrees cast
// over the same window.
type binExpr struct {
	a, b Expr
	op   func(a, b BFI) BFI
}

func (o binExpr) Cast(begin, end time.Time) BFI {
	return o.op(o.a.Cast(begin, end), o.b.Cast(begin, end))
}

// ExprAnd builds `a & b` (intersection).
func ExprAnd(a, b Expr) Expr { return binExpr{a, b, Intersect} }

// ExprOr builds `a | b` (union, coalescing adjacent).
func ExprOr(a, b Expr) Expr { return binExpr{a, b, Union} }

// ExprUnionPreserving builds `a , b` (union preserving boundaries).
func ExprUnionPreserving(a, b Expr) Expr { return binExpr{a, b, UnionPreserve} }

// ExprUntil builds `a # b` / `a _ b`.
func ExprUntil(a, b Expr) Expr { return binExpr{a, b, Until} }

// ExprReject builds the binary `a ! b` ("reject").
func ExprReject(a, b Expr) Expr { return binExpr{a, b, Reject} }

// ExprSelect builds `a = b` / `a . b`.
func ExprSelect(a, b Expr) Expr { return binExpr{a, b, Select} }

// ExprStretchStart builds `a < b`.
func ExprStretchStart(a, b Expr) Expr { return binExpr{a, b, StretchStart} }

// ExprStretchStop builds `a > b`.
func ExprStretchStop(a, b Expr) Expr { return binExpr{a, b, StretchStop} }

// notExpr implements the unary `! a` complement within the requested
// casting window — the domain of complementation is always the window
// Cast() is called with.
type notExpr struct{ a Expr }

func (o notExpr) Cast(begin, end time.Time) BFI { return Complement(o.a.Cast(begin, end), begin, end) }

// ExprNot builds `! a`.
func ExprNot(a Expr) Expr { return notExpr{a} }

// indexExpr implements `a [k]`: the k-th (1-based) interval within
// each window cast is applied to.
type indexExpr struct {
	a Expr
	k int
}

func (o indexExpr) Cast(begin, end time.Time) BFI { return Index(o.a.Cast(begin, end), o.k) }

// ExprIndexed builds `a [k]`.
func ExprIndexed(a Expr, k int) Expr { return indexExpr{a, k} }
