package types

// Bindings maps a type variable's identity to its resolved type. One is
// created fresh per inference attempt and discarded after solving.
type Bindings map[uint64]Type

// Substitute replaces every occurrence of a bound type variable in t with its
// binding. It is a pure function: t is never mutated, unbound variables pass
// through untouched. Binding targets contain no bound variables themselves,
// so one pass leaves no residue and the operation is idempotent.
func Substitute(t Type, bindings Bindings) Type {
	if len(bindings) == 0 {
		return t
	}
	if tv, ok := t.(*TypeVar); ok {
		if repl, bound := bindings[tv.ID]; bound {
			return repl
		}
		return tv
	}
	return t.mapChildren(func(child Type) Type {
		return Substitute(child, bindings)
	})
}

// FreeTypeVars collects the variables occurring in t, in first-occurrence
// order.
func FreeTypeVars(t Type) []*TypeVar {
	var vars []*TypeVar
	seen := make(map[uint64]bool)
	var walk func(Type)
	walk = func(t Type) {
		if tv, ok := t.(*TypeVar); ok {
			if !seen[tv.ID] {
				seen[tv.ID] = true
				vars = append(vars, tv)
			}
			return
		}
		for child := range t.children() {
			walk(child)
		}
	}
	walk(t)
	return vars
}

// AlphaEquivalent compares two terms structurally, treating type variables as
// equal when they correspond positionally. Used to compare generic signatures
// regardless of the identities handed out by their Freshers.
func AlphaEquivalent(a, b Type) bool {
	return alphaEq(a, b, make(map[uint64]uint64))
}

func alphaEq(a, b Type, rename map[uint64]uint64) bool {
	av, aIsVar := a.(*TypeVar)
	bv, bIsVar := b.(*TypeVar)
	if aIsVar != bIsVar {
		return false
	}
	if aIsVar {
		if mapped, ok := rename[av.ID]; ok {
			return mapped == bv.ID
		}
		if av.Variance != bv.Variance || len(av.Restriction) != len(bv.Restriction) {
			return false
		}
		for i := range av.Restriction {
			if !alphaEq(av.Restriction[i], bv.Restriction[i], rename) {
				return false
			}
		}
		if (av.Bound == nil) != (bv.Bound == nil) {
			return false
		}
		if av.Bound != nil && !alphaEq(av.Bound, bv.Bound, rename) {
			return false
		}
		rename[av.ID] = bv.ID
		return true
	}

	switch a := a.(type) {
	case Class:
		b, ok := b.(Class)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !alphaEq(a.Args[i], b.Args[i], rename) {
				return false
			}
		}
		return true
	case Union:
		b, ok := b.(Union)
		if !ok || len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if !alphaEq(a.Members[i], b.Members[i], rename) {
				return false
			}
		}
		return true
	case Tuple:
		b, ok := b.(Tuple)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !alphaEq(a.Items[i], b.Items[i], rename) {
				return false
			}
		}
		return true
	case Callable:
		b, ok := b.(Callable)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if a.Params[i].Kind != b.Params[i].Kind {
				return false
			}
			if !alphaEq(a.Params[i].Type, b.Params[i].Type, rename) {
				return false
			}
		}
		return alphaEq(a.Return, b.Return, rename)
	default:
		return Equal(a, b)
	}
}
