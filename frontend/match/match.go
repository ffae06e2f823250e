package match

import (
	"github.com/benbjohnson/immutable"

	"github.com/stilt-dev/stilt/frontend/types"
)

// Bindings are the names a pattern introduces, mapped to their inferred
// types. The map is persistent so arm scopes can share structure with the
// enclosing scope.
type Bindings = *immutable.Map[string, types.Type]

func NewBindings() Bindings {
	return immutable.NewMap[string, types.Type](nil)
}

// Result of destructuring a subject type against a pattern.
type Result struct {
	Bindings Bindings
	// Matched is the subject's type inside the arm body: the subject
	// narrowed by the pattern. Never when the pattern cannot match.
	Matched types.Type
	// Residual is what remains of the subject for the arms below.
	Residual types.Type
}

// Match destructures subject against p. It is pure: narrowing decisions
// come only from the declared types, never from values.
func Match(env types.Classes, subject types.Type, p Pattern) Result {
	switch p := p.(type) {
	case Capture:
		bindings := NewBindings()
		if !p.IsWildcard() {
			bindings = bindings.Set(p.Name, subject)
		}
		// a capture is irrefutable: nothing flows past it
		return Result{Bindings: bindings, Matched: subject, Residual: types.NeverType}

	case As:
		sub := Match(env, subject, p.Sub)
		// the name sees the narrowed type, resolved after the sub-pattern
		return Result{
			Bindings: sub.Bindings.Set(p.Name, sub.Matched),
			Matched:  sub.Matched,
			Residual: sub.Residual,
		}

	case Value:
		return matchValue(env, subject, p)

	case Sequence:
		return matchSequence(env, subject, p)

	case Mapping:
		return matchMapping(env, subject, p)
	}
	return Result{Bindings: NewBindings(), Matched: types.NeverType, Residual: subject}
}

func matchValue(env types.Classes, subject types.Type, p Value) Result {
	bindings := NewBindings()
	if types.IsAny(subject) {
		return Result{Bindings: bindings, Matched: p.Type, Residual: subject}
	}
	var matched []types.Type
	for _, member := range types.UnionMembers(subject) {
		switch {
		case types.AssignableTo(env, member, p.Type):
			// the member is at least as narrow as the pattern
			matched = append(matched, member)
		case types.AssignableTo(env, p.Type, member):
			// the pattern selects a narrower slice of the member
			matched = append(matched, p.Type)
		}
	}
	return Result{
		Bindings: bindings,
		Matched:  types.MakeUnion(matched...),
		Residual: types.Remove(env, subject, p.Type),
	}
}

func matchSequence(env types.Classes, subject types.Type, p Sequence) Result {
	bindings := NewBindings()

	merge := func(elemTypes []types.Type) (Bindings, bool) {
		acc := bindings
		for i, elem := range p.Elems {
			r := Match(env, elemTypes[i], elem)
			if types.IsNever(r.Matched) && !types.IsNever(elemTypes[i]) {
				return acc, false
			}
			for itr := r.Bindings.Iterator(); !itr.Done(); {
				k, v, _ := itr.Next()
				acc = acc.Set(k, v)
			}
		}
		return acc, true
	}

	switch subject := subject.(type) {
	case types.Tuple:
		if len(subject.Items) != len(p.Elems) {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		merged, ok := merge(subject.Items)
		if !ok {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		residual := types.Type(subject)
		if allIrrefutable(p.Elems) {
			// a fixed-width subject with irrefutable elements always matches
			residual = types.NeverType
		}
		return Result{Bindings: merged, Matched: subject, Residual: residual}

	case types.Class:
		// element type comes from the subject's declared element type
		elem, ok := sequenceElem(env, subject)
		if !ok {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		elems := make([]types.Type, len(p.Elems))
		for i := range elems {
			elems[i] = elem
		}
		merged, ok := merge(elems)
		if !ok {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		// length is unknown statically, so the pattern stays refutable
		return Result{Bindings: merged, Matched: subject, Residual: subject}
	}

	if types.IsAny(subject) {
		elems := make([]types.Type, len(p.Elems))
		for i := range elems {
			elems[i] = types.AnyType
		}
		merged, _ := merge(elems)
		return Result{Bindings: merged, Matched: subject, Residual: subject}
	}
	return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
}

func matchMapping(env types.Classes, subject types.Type, p Mapping) Result {
	bindings := NewBindings()

	key, value := types.Type(types.AnyType), types.Type(types.AnyType)
	container := types.DictName
	switch subject := subject.(type) {
	case types.Class:
		mapped, ok := types.MapToSupertype(env, subject, types.DictName)
		if !ok {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		container = subject.Name
		if len(mapped.Args) == 2 {
			key, value = mapped.Args[0], mapped.Args[1]
		}
	default:
		if !types.IsAny(subject) {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
	}

	acc := bindings
	for _, entry := range p.Entries {
		r := Match(env, value, entry.Value)
		if types.IsNever(r.Matched) && !types.IsNever(value) {
			return Result{Bindings: bindings, Matched: types.NeverType, Residual: subject}
		}
		for itr := r.Bindings.Iterator(); !itr.Done(); {
			k, v, _ := itr.Next()
			acc = acc.Set(k, v)
		}
	}
	if p.Rest != "" {
		// the rest capture keeps the subject's own container type; matched
		// keys do not change the declared value type of what remains
		acc = acc.Set(p.Rest, types.Class{Name: container, Args: []types.Type{key, value}})
	}
	return Result{Bindings: acc, Matched: subject, Residual: subject}
}

func allIrrefutable(ps []Pattern) bool {
	for _, p := range ps {
		if !Irrefutable(p) {
			return false
		}
	}
	return true
}

// sequenceElem resolves the declared element type of a sequence-like class.
func sequenceElem(env types.Classes, subject types.Class) (types.Type, bool) {
	mapped, ok := types.MapToSupertype(env, subject, types.ListName)
	if !ok {
		mapped, ok = types.MapToSupertype(env, subject, types.TupleName)
	}
	if !ok {
		return nil, false
	}
	if len(mapped.Args) == 0 {
		return types.AnyType, true
	}
	return mapped.Args[0], true
}
