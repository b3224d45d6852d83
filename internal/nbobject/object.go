// Package nbobject implements the engine's object and constant-value
// system. Every cell value
// flowing through the reaction graph is one of the Kind variants below;
// the logical constants (True, False, Unknown, Disabled, Placeholder) are
// process-wide singletons so cells can compare values by pointer
// identity rather than by deep equality.
package nbobject

import (
	"fmt"
)

// Kind tags the variant an Object holds. NodeBrain models its object
// system as a small closed set of tagged variants rather than an open
// interface hierarchy, so a single switch in Eval-adjacent code can
// dispatch on Kind directly.
type Kind uint8

const (
	// KindUnknown is the three-valued logic "unknown" truth value: the
	// result of a condition whose operands are not yet known.
	KindUnknown Kind = iota
	// KindTrue is the three-valued logic "true" truth value.
	KindTrue
	// KindFalse is the three-valued logic "false" truth value.
	KindFalse
	// KindDisabled marks a cell that is not currently enabled; it
	// propagates like Unknown through reactions but is distinguished so
	// rule cells can tell "not yet known" from "not currently active".
	KindDisabled
	// KindPlaceholder is the value of a term that has been declared but
	// never assigned, distinct from Unknown so reference diagnostics can
	// tell "no value yet" from "a condition evaluated to unknown".
	KindPlaceholder
	// KindString holds an interned string value.
	KindString
	// KindReal holds an interned floating point value.
	KindReal
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindDisabled:
		return "disabled"
	case KindPlaceholder:
		return "placeholder"
	case KindString:
		return "string"
	case KindReal:
		return "real"
	default:
		return "invalid"
	}
}

// Object is a single interned value. Constants (True/False/Unknown/
// Disabled/Placeholder) and interned strings/reals are all represented
// by *Object so cell storage is uniform: every cell slot is a *Object.
type Object struct {
	kind Kind
	str  string
	real float64
}

// Kind reports the variant this object holds.
func (o *Object) Kind() Kind { return o.kind }

// Str returns the string payload. Valid only when Kind() == KindString.
func (o *Object) Str() string { return o.str }

// Real returns the float payload. Valid only when Kind() == KindReal.
func (o *Object) Real() float64 { return o.real }

// String renders the object the way NodeBrain prints a cell's value in
// trace output.
func (o *Object) String() string {
	switch o.kind {
	case KindString:
		return fmt.Sprintf("%q", o.str)
	case KindReal:
		return fmt.Sprintf("%g", o.real)
	default:
		return o.kind.String()
	}
}

// The five logical singletons. Every cell graph and every time-condition
// cell shares exactly these instances; equality is always `==` on the
// pointer, never a deep comparison.
var (
	True        = &Object{kind: KindTrue}
	False       = &Object{kind: KindFalse}
	Unknown     = &Object{kind: KindUnknown}
	Disabled    = &Object{kind: KindDisabled}
	Placeholder = &Object{kind: KindPlaceholder}
)

// String and Real (the interned-value constructors) live in intern.go,
// alongside the hash-cons table backing them.

// IsTruthValue reports whether o is one of True, False or Unknown — the
// three values a boolean condition cell is allowed to hold.
func IsTruthValue(o *Object) bool {
	return o == True || o == False || o == Unknown
}

// Not implements three-valued logical negation:
// !True=False, !False=True, !Unknown=Unknown.
func Not(o *Object) *Object {
	switch o {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// Bool converts a Go bool into the corresponding truth singleton.
func Bool(b bool) *Object {
	if b {
		return True
	}
	return False
}
