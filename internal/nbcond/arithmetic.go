package nbcond

import (
	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// arith evaluates a binary arithmetic operator over real operands. A
// non-real operand (including Unknown itself) yields Unknown rather
// than raising.
func arith(f func(x, y float64) float64) func(a, b *nbobject.Object) *nbobject.Object {
	return func(a, b *nbobject.Object) *nbobject.Object {
		if a.Kind() != nbobject.KindReal || b.Kind() != nbobject.KindReal {
			return nbobject.Unknown
		}
		return nbobject.Real(f(a.Real(), b.Real()))
	}
}

// Add builds `a + b`.
func Add(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := arith(func(x, y float64) float64 { return x + y })
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("add", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Sub builds `a - b`.
func Sub(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := arith(func(x, y float64) float64 { return x - y })
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("sub", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Mul builds `a * b`.
func Mul(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := arith(func(x, y float64) float64 { return x * y })
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("mul", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Div builds `a / b`. Division by zero yields Unknown rather than
// raising or producing an infinite real, keeping arithmetic cells
// non-raising like the boolean operators.
func Div(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := func(a, b *nbobject.Object) *nbobject.Object {
		if a.Kind() != nbobject.KindReal || b.Kind() != nbobject.KindReal {
			return nbobject.Unknown
		}
		if b.Real() == 0 {
			return nbobject.Unknown
		}
		return nbobject.Real(a.Real() / b.Real())
	}
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("div", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Neg builds unary negation `-e`.
func Neg(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object {
		if x.Kind() != nbobject.KindReal {
			return nbobject.Unknown
		}
		return nbobject.Real(-x.Real())
	}
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("neg", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}
