// Package nbcond implements NodeBrain's condition cells: the boolean,
// relational, arithmetic, change, flip-flop and capture/monitor
// operators, laid directly over the tagged-union cell graph in
// internal/nbcell. Every constructor here is a thin wrapper around
// nbcell.Graph.UseCondition so structurally identical expressions
// always collapse to one cell.
package nbcond

import (
	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

func fold2(a, b *nbcell.Cell, f func(x, y *nbobject.Object) *nbobject.Object) (*nbcell.Cell, bool) {
	if nbcell.IsConstant(a) && nbcell.IsConstant(b) {
		return nbcell.NewConst(f(a.Value(), b.Value())), true
	}
	return nil, false
}

func fold1(a *nbcell.Cell, f func(x *nbobject.Object) *nbobject.Object) (*nbcell.Cell, bool) {
	if nbcell.IsConstant(a) {
		return nbcell.NewConst(f(a.Value())), true
	}
	return nil, false
}

// andValue implements `a & b`: any False -> False; else any Unknown ->
// Unknown; else True.
func andValue(a, b *nbobject.Object) *nbobject.Object {
	if a == nbobject.False || b == nbobject.False {
		return nbobject.False
	}
	if a == nbobject.Unknown || b == nbobject.Unknown {
		return nbobject.Unknown
	}
	return nbobject.True
}

// orValue implements `a | b`: both False -> False; one True (with no
// Unknown outranking it) -> True; any Unknown with no True -> Unknown.
func orValue(a, b *nbobject.Object) *nbobject.Object {
	if a == nbobject.True || b == nbobject.True {
		return nbobject.True
	}
	if a == nbobject.Unknown || b == nbobject.Unknown {
		return nbobject.Unknown
	}
	return nbobject.False
}

// And builds `a & b`.
func And(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	if c, ok := fold2(a, b, andValue); ok {
		return c
	}
	return g.UseCondition("and", func(c *nbcell.Cell) *nbobject.Object {
		return andValue(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Or builds `a | b`.
func Or(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	if c, ok := fold2(a, b, orValue); ok {
		return c
	}
	return g.UseCondition("or", func(c *nbcell.Cell) *nbobject.Object {
		return orValue(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Nand builds `a !& b`, the negation of And.
func Nand(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := func(x, y *nbobject.Object) *nbobject.Object { return nbobject.Not(andValue(x, y)) }
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("nand", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Nor builds `a !| b`, the negation of Or.
func Nor(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := func(x, y *nbobject.Object) *nbobject.Object { return nbobject.Not(orValue(x, y)) }
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("nor", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// Xor builds `a |!& b`: exactly-one-true.
func Xor(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := xorValue
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("xor", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

func xorValue(a, b *nbobject.Object) *nbobject.Object {
	if a == nbobject.Unknown || b == nbobject.Unknown {
		return nbobject.Unknown
	}
	return nbobject.Bool((a == nbobject.True) != (b == nbobject.True))
}

// Not builds `!e`: True->False, False->True, Unknown->Unknown.
func Not(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	if c, ok := fold1(a, nbobject.Not); ok {
		return c
	}
	return g.UseCondition("not", func(c *nbcell.Cell) *nbobject.Object {
		return nbobject.Not(c.Left.Value())
	}, a)
}

// KnownPassthrough builds `!!e`: True-valued -> True, else passthrough.
//
func KnownPassthrough(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object {
		if x == nbobject.Unknown {
			return nbobject.Unknown
		}
		return x
	}
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("knownpass", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}

// IsUnknown builds `?e`: Unknown -> True else False.
func IsUnknown(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object { return nbobject.Bool(x == nbobject.Unknown) }
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("isunknown", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}

// IsKnown builds `!?e`: Unknown -> False else True.
func IsKnown(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object { return nbobject.Bool(x != nbobject.Unknown) }
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("isknown", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}

// DefaultFalse builds `-?e`: Unknown -> False else e.
func DefaultFalse(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object {
		if x == nbobject.Unknown {
			return nbobject.False
		}
		return x
	}
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("defaultfalse", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}

// DefaultTrue builds `+?e`: Unknown -> True else e.
func DefaultTrue(g *nbcell.Graph, a *nbcell.Cell) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object {
		if x == nbobject.Unknown {
			return nbobject.True
		}
		return x
	}
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("defaulttrue", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}

// Default builds `a ? b`: a if known, else b.
func Default(g *nbcell.Graph, a, b *nbcell.Cell) *nbcell.Cell {
	f := func(x, y *nbobject.Object) *nbobject.Object {
		if x != nbobject.Unknown {
			return x
		}
		return y
	}
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition("default", func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// LazyAnd builds `a && b`: short-circuits on a, dynamically subscribing
// to b only while its value is actually needed.
func LazyAnd(a, b *nbcell.Cell) *nbcell.Cell {
	if nbcell.IsConstant(a) && nbcell.IsConstant(b) {
		return nbcell.NewConst(andValue(a.Value(), b.Value()))
	}
	var cell *nbcell.Cell
	eval := func(c *nbcell.Cell) *nbobject.Object {
		l := c.Left.Value()
		if l == nbobject.False {
			if c.RightAttached() {
				c.Right.Unsubscribe(c)
			}
			return nbobject.False
		}
		if !c.RightAttached() {
			c.Right.Subscribe(c)
		}
		r := c.Right.Value()
		return andValue(l, r)
	}
	cell = nbcell.NewLazyCondition("lazyand", eval, a, b)
	cell.Recompute()
	return cell
}

// LazyOr builds `a || b`: the lazy dual of LazyAnd.
func LazyOr(a, b *nbcell.Cell) *nbcell.Cell {
	if nbcell.IsConstant(a) && nbcell.IsConstant(b) {
		return nbcell.NewConst(orValue(a.Value(), b.Value()))
	}
	var cell *nbcell.Cell
	eval := func(c *nbcell.Cell) *nbobject.Object {
		l := c.Left.Value()
		if l == nbobject.True {
			if c.RightAttached() {
				c.Right.Unsubscribe(c)
			}
			return nbobject.True
		}
		if !c.RightAttached() {
			c.Right.Subscribe(c)
		}
		r := c.Right.Value()
		return orValue(l, r)
	}
	cell = nbcell.NewLazyCondition("lazyor", eval, a, b)
	cell.Recompute()
	return cell
}
