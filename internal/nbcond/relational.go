package nbcond

import (
	"regexp"
	"sync"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// RelOp is a relational operator kind.
type RelOp int

const (
	Eq RelOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op RelOp) name() string {
	switch op {
	case Eq:
		return "eq"
	case Ne:
		return "ne"
	case Lt:
		return "lt"
	case Le:
		return "le"
	case Gt:
		return "gt"
	case Ge:
		return "ge"
	default:
		return "relop"
	}
}

// relValue implements the type-checked relational table:
// real/real or string/string only; different types or any Unknown is
// Unknown; every operator, `=`/`<>` included, compares the underlying
// float or string payload, strings compared byte-lexicographically.
func relValue(op RelOp, a, b *nbobject.Object) *nbobject.Object {
	if a == nbobject.Unknown || b == nbobject.Unknown {
		return nbobject.Unknown
	}
	if a.Kind() != b.Kind() || (a.Kind() != nbobject.KindReal && a.Kind() != nbobject.KindString) {
		if op == Ne {
			// different types are never equal, but cross-type
			// comparison itself is Unknown, not False; `<>` is no
			// exception.
			return nbobject.Unknown
		}
		return nbobject.Unknown
	}

	switch a.Kind() {
	case nbobject.KindReal:
		x, y := a.Real(), b.Real()
		switch op {
		case Eq:
			return nbobject.Bool(x == y)
		case Ne:
			return nbobject.Bool(x != y)
		case Lt:
			return nbobject.Bool(x < y)
		case Le:
			return nbobject.Bool(x <= y)
		case Gt:
			return nbobject.Bool(x > y)
		case Ge:
			return nbobject.Bool(x >= y)
		}
	case nbobject.KindString:
		x, y := a.Str(), b.Str()
		switch op {
		case Eq:
			return nbobject.Bool(x == y)
		case Ne:
			return nbobject.Bool(x != y)
		case Lt:
			return nbobject.Bool(x < y)
		case Le:
			return nbobject.Bool(x <= y)
		case Gt:
			return nbobject.Bool(x > y)
		case Ge:
			return nbobject.Bool(x >= y)
		}
	}
	return nbobject.Unknown
}

// Relational builds a typed comparison cell for the given operator.
func Relational(g *nbcell.Graph, op RelOp, a, b *nbcell.Cell) *nbcell.Cell {
	f := func(x, y *nbobject.Object) *nbobject.Object { return relValue(op, x, y) }
	if c, ok := fold2(a, b, f); ok {
		return c
	}
	return g.UseCondition(op.name(), func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value(), c.Right.Value())
	}, a, b)
}

// regexCache avoids recompiling the same pattern for every evaluation,
// mirroring the compiled-program cache pattern used for expr templates.
var regexCache = struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}{cache: make(map[string]*regexp.Regexp)}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	regexCache.mu.RLock()
	re, ok := regexCache.cache[pattern]
	regexCache.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.mu.Lock()
	regexCache.cache[pattern] = re
	regexCache.mu.Unlock()
	return re, nil
}

// Match builds `a ~ "regex"`: True if a is a string matching pattern;
// Unknown if a is Unknown; False if a is not a string. An invalid
// pattern always evaluates to Unknown rather than raising.
func Match(g *nbcell.Graph, a *nbcell.Cell, pattern string) *nbcell.Cell {
	f := func(x *nbobject.Object) *nbobject.Object {
		if x == nbobject.Unknown {
			return nbobject.Unknown
		}
		if x.Kind() != nbobject.KindString {
			return nbobject.False
		}
		re, err := compileRegex(pattern)
		if err != nil {
			return nbobject.Unknown
		}
		return nbobject.Bool(re.MatchString(x.Str()))
	}
	if c, ok := fold1(a, f); ok {
		return c
	}
	return g.UseCondition("match:"+pattern, func(c *nbcell.Cell) *nbobject.Object {
		return f(c.Left.Value())
	}, a)
}
