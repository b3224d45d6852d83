package nbobject

import "sync"

// table hash-conses string and real values the same way the cell graph
// hash-conses condition cells (see nbcell.Graph.UseCondition): two
// requests for the same string or real payload return the identical
// *Object, so later value comparisons and map lookups use pointer
// equality instead of a deep compare. Grounded on the registry's
// RWMutex + map[string]T pattern.
type table struct {
	mu      sync.RWMutex
	strings map[string]*Object
	reals   map[float64]*Object
}

var interned = &table{
	strings: make(map[string]*Object),
	reals:   make(map[float64]*Object),
}

// String returns the canonical interned *Object for s.
func String(s string) *Object {
	interned.mu.RLock()
	o, ok := interned.strings[s]
	interned.mu.RUnlock()
	if ok {
		return o
	}

	interned.mu.Lock()
	defer interned.mu.Unlock()
	if o, ok := interned.strings[s]; ok {
		return o
	}
	o = &Object{kind: KindString, str: s}
	interned.strings[s] = o
	return o
}

// Real returns the canonical interned *Object for r.
func Real(r float64) *Object {
	interned.mu.RLock()
	o, ok := interned.reals[r]
	interned.mu.RUnlock()
	if ok {
		return o
	}

	interned.mu.Lock()
	defer interned.mu.Unlock()
	if o, ok := interned.reals[r]; ok {
		return o
	}
	o = &Object{kind: KindReal, real: r}
	interned.reals[r] = o
	return o
}

// InternedCount reports how many distinct strings and reals are
// currently interned, for diagnostics and tests.
func InternedCount() (strings, reals int) {
	interned.mu.RLock()
	defer interned.mu.RUnlock()
	return len(interned.strings), len(interned.reals)
}
