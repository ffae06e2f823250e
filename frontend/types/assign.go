package types

import (
	"fmt"
)

// assignCache stores pairs of type hashes already being decided, so
// recursion through type variable bounds and class cycles terminates.
// A pair found in the cache is assumed true, coinductively.
type assignCache map[uint64]bool

func pairKey(l, r Type) uint64 {
	return l.Hash()*31 ^ r.Hash()*37
}

// AssignableTo reports whether a value of type src may be used where dst is
// expected.
func AssignableTo(env Classes, src, dst Type) bool {
	a := &assigner{env: env, cache: make(assignCache)}
	return a.assignable(src, dst)
}

// ExplainAssignable is AssignableTo with a reason trail: on failure the trail
// explains each step from the outermost pair down to the mismatch.
func ExplainAssignable(env Classes, src, dst Type) (bool, []string) {
	a := &assigner{env: env, cache: make(assignCache), explain: true}
	ok := a.assignable(src, dst)
	return ok, a.trail
}

// Equivalent is mutual assignability.
func Equivalent(env Classes, a, b Type) bool {
	return AssignableTo(env, a, b) && AssignableTo(env, b, a)
}

type assigner struct {
	env     Classes
	cache   assignCache
	explain bool
	trail   []string
}

func (a *assigner) fail(format string, args ...any) bool {
	if a.explain {
		a.trail = append(a.trail, fmt.Sprintf(format, args...))
	}
	return false
}

// assignable applies the compatibility rules in priority order: identity,
// Any (absorbing, unsound by design), Never, type variables, union source,
// union target, nominal classes, callables, tuples.
func (a *assigner) assignable(src, dst Type) bool {
	if Equal(src, dst) {
		return true
	}
	if IsAny(src) || IsAny(dst) {
		return true
	}
	if IsNever(src) {
		return true
	}
	if IsNever(dst) {
		// only Never is assignable to Never, handled by Equal above
		return a.fail("'%s' is not assignable to 'Never'", src)
	}

	key := pairKey(src, dst)
	if decided, ok := a.cache[key]; ok {
		return decided
	}
	a.cache[key] = true
	ok := a.decide(src, dst)
	a.cache[key] = ok
	return ok
}

func (a *assigner) decide(src, dst Type) bool {
	// type variables
	if srcVar, ok := src.(*TypeVar); ok {
		if srcVar.IsRestricted() {
			for _, candidate := range srcVar.Restriction {
				if !a.assignable(candidate, dst) {
					return a.fail("candidate '%s' of '%s' is not assignable to '%s'", candidate, srcVar, dst)
				}
			}
			return true
		}
		if srcVar.Bound != nil {
			if a.assignable(srcVar.Bound, dst) {
				return true
			}
			return a.fail("bound '%s' of '%s' is not assignable to '%s'", srcVar.Bound, srcVar, dst)
		}
		return a.fail("type variable '%s' is not '%s'", srcVar, dst)
	}
	if dstVar, ok := dst.(*TypeVar); ok {
		if dstVar.IsRestricted() {
			// a value flowing into a restricted variable must be exactly one
			// of the candidates; promotion happens only while solving, never
			// here
			for _, candidate := range dstVar.Restriction {
				if Equal(src, candidate) {
					return true
				}
			}
			return a.fail("'%s' is not one of the candidates of '%s'", src, dstVar)
		}
		return a.fail("'%s' is not the type variable '%s'", src, dstVar)
	}

	// unions: a union source needs every member accepted, a union target
	// needs at least one member to accept
	if srcUnion, ok := src.(Union); ok {
		for _, m := range srcUnion.Members {
			if !a.assignable(m, dst) {
				return a.fail("member '%s' of '%s' is not assignable to '%s'", m, srcUnion, dst)
			}
		}
		return true
	}
	if dstUnion, ok := dst.(Union); ok {
		for _, m := range dstUnion.Members {
			if a.probe(src, m) {
				return true
			}
		}
		return a.fail("'%s' is not assignable to any member of '%s'", src, dstUnion)
	}

	switch dst := dst.(type) {
	case Class:
		return a.decideClassTarget(src, dst)
	case Callable:
		srcFn, ok := src.(Callable)
		if !ok {
			return a.fail("'%s' is not callable", src)
		}
		return a.decideCallable(srcFn, dst)
	case Tuple:
		srcTuple, ok := src.(Tuple)
		if !ok {
			return a.fail("'%s' is not a tuple", src)
		}
		if len(srcTuple.Items) != len(dst.Items) {
			return a.fail("tuple lengths differ: %d vs %d", len(srcTuple.Items), len(dst.Items))
		}
		for i := range dst.Items {
			if !a.assignable(srcTuple.Items[i], dst.Items[i]) {
				return a.fail("tuple item %d: '%s' is not assignable to '%s'", i, srcTuple.Items[i], dst.Items[i])
			}
		}
		return true
	}
	return a.fail("'%s' is not assignable to '%s'", src, dst)
}

// probe runs a sub-query without contributing to the reason trail; failed
// branches of a union target are not mismatches.
func (a *assigner) probe(src, dst Type) bool {
	sub := &assigner{env: a.env, cache: a.cache}
	return sub.assignable(src, dst)
}

func (a *assigner) decideClassTarget(src Type, dst Class) bool {
	if dst.Name == ObjectName {
		return true
	}
	var srcClass Class
	switch src := src.(type) {
	case Class:
		srcClass = src
	case Tuple:
		srcClass = Class{Name: TupleName}
	case Callable:
		srcClass = Class{Name: FunctionName}
	default:
		return a.fail("'%s' is not an instance of '%s'", src, dst)
	}

	def, ok := a.env.ClassDef(srcClass.Name)
	if !ok || !def.HasBase(a.env, dst.Name) {
		return a.fail("'%s' does not inherit from '%s'", srcClass, dst)
	}
	if len(dst.Args) == 0 {
		return true
	}
	mapped, ok := MapToSupertype(a.env, srcClass, dst.Name)
	if !ok {
		return a.fail("cannot express '%s' as '%s'", srcClass, shortName(dst.Name))
	}
	dstDef, ok := a.env.ClassDef(dst.Name)
	if !ok {
		return a.fail("unknown class '%s'", dst.Name)
	}
	for i := range dst.Args {
		if i >= len(mapped.Args) {
			break
		}
		variance := Invariant
		if i < len(dstDef.Params) {
			variance = dstDef.Params[i].Variance
		}
		var ok bool
		switch variance {
		case Covariant:
			ok = a.assignable(mapped.Args[i], dst.Args[i])
		case Contravariant:
			ok = a.assignable(dst.Args[i], mapped.Args[i])
		default:
			ok = a.probe(mapped.Args[i], dst.Args[i]) && a.probe(dst.Args[i], mapped.Args[i])
		}
		if !ok {
			return a.fail("type argument %d of '%s' (%s) does not accept '%s'", i, dst, variance, mapped.Args[i])
		}
	}
	return true
}

// decideCallable checks structural compatibility of two signatures:
// parameters are contravariant, the return type is covariant.
func (a *assigner) decideCallable(src, dst Callable) bool {
	if len(src.Params) != len(dst.Params) {
		return a.fail("parameter counts differ: %d vs %d", len(src.Params), len(dst.Params))
	}
	for i := range dst.Params {
		srcP, dstP := src.Params[i], dst.Params[i]
		if srcP.Kind != dstP.Kind {
			return a.fail("parameter %d kinds differ", i)
		}
		if srcP.Kind == KeywordOnly && srcP.Name != dstP.Name {
			return a.fail("keyword-only parameter names differ: '%s' vs '%s'", srcP.Name, dstP.Name)
		}
		if !a.assignable(dstP.Type, srcP.Type) {
			return a.fail("parameter %d: '%s' does not accept '%s'", i, srcP.Type, dstP.Type)
		}
	}
	if !a.assignable(src.Return, dst.Return) {
		return a.fail("return type '%s' is not assignable to '%s'", src.Return, dst.Return)
	}
	return true
}
