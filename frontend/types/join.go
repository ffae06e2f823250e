package types

// Join computes the common supertype of a and b: the type a flow join or a
// union introduction widens to. Any absorbs, Never is the identity, and when
// no structural or nominal combination exists the result is the canonical
// union of both.
func Join(env Classes, a, b Type) Type {
	if Equal(a, b) {
		return a
	}
	if IsAny(a) || IsAny(b) {
		return AnyType
	}
	if IsNever(a) {
		return b
	}
	if IsNever(b) {
		return a
	}
	if _, ok := a.(Union); ok {
		return joinUnions(env, a, b)
	}
	if _, ok := b.(Union); ok {
		return joinUnions(env, a, b)
	}

	if av, ok := a.(*TypeVar); ok {
		return Join(env, varSupertype(av), b)
	}
	if bv, ok := b.(*TypeVar); ok {
		return Join(env, a, varSupertype(bv))
	}

	switch a := a.(type) {
	case Class:
		if b, ok := b.(Class); ok {
			return joinClasses(env, a, b)
		}
	case Tuple:
		if b, ok := b.(Tuple); ok && len(a.Items) == len(b.Items) {
			items := make([]Type, len(a.Items))
			for i := range a.Items {
				items[i] = Join(env, a.Items[i], b.Items[i])
			}
			return Tuple{Items: items}
		}
	case Callable:
		if b, ok := b.(Callable); ok {
			if joined, ok := joinCallables(env, a, b); ok {
				return joined
			}
		}
	}
	return joinUnions(env, a, b)
}

// JoinAll folds Join over ts, starting from Never.
func JoinAll(env Classes, ts ...Type) Type {
	var acc Type = NeverType
	for _, t := range ts {
		acc = Join(env, acc, t)
	}
	return acc
}

// varSupertype is the widest type a free variable can stand for.
func varSupertype(v *TypeVar) Type {
	if v.IsRestricted() {
		return MakeUnion(v.Restriction...)
	}
	if v.Bound != nil {
		return v.Bound
	}
	return ObjectType
}

// joinUnions unions both sides and drops members subsumed by another member,
// so str | bool | int collapses to str | int.
func joinUnions(env Classes, a, b Type) Type {
	members := append(UnionMembers(a), UnionMembers(b)...)
	kept := make([]Type, 0, len(members))
	for i, m := range members {
		subsumed := false
		for j, other := range members {
			if i == j || Equal(m, other) {
				continue
			}
			if AssignableTo(env, m, other) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, m)
		}
	}
	return MakeUnion(kept...)
}

// joinClasses walks a's inheritance chain breadth-first for the nearest base
// b also inherits from; builtins.object is always such a base.
func joinClasses(env Classes, a, b Class) Type {
	if a.Name == b.Name {
		args := make([]Type, len(a.Args))
		for i := range a.Args {
			if i < len(b.Args) {
				args[i] = Join(env, a.Args[i], b.Args[i])
			} else {
				args[i] = a.Args[i]
			}
		}
		return Class{Name: a.Name, Args: args}
	}
	bDef, ok := env.ClassDef(b.Name)
	if !ok {
		return ObjectType
	}
	queue := []Class{a}
	visited := make(map[string]bool)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.Name] {
			continue
		}
		visited[current.Name] = true
		if bDef.HasBase(env, current.Name) {
			mappedB, ok := MapToSupertype(env, b, current.Name)
			if !ok {
				return ObjectType
			}
			return joinClasses(env, current, mappedB)
		}
		def, ok := env.ClassDef(current.Name)
		if !ok {
			continue
		}
		bindings := make(Bindings, len(def.Params))
		for i, p := range def.Params {
			if i < len(current.Args) {
				bindings[p.ID] = current.Args[i]
			} else {
				bindings[p.ID] = AnyType
			}
		}
		for _, base := range def.Bases {
			if mapped, isClass := Substitute(base, bindings).(Class); isClass {
				queue = append(queue, mapped)
			}
		}
	}
	return ObjectType
}

// joinCallables combines two signatures of the same shape; parameters keep
// the narrower of the two (callers of the join must satisfy both), returns
// are joined.
func joinCallables(env Classes, a, b Callable) (Type, bool) {
	if len(a.Params) != len(b.Params) {
		return nil, false
	}
	params := make([]Param, len(a.Params))
	for i := range a.Params {
		if a.Params[i].Kind != b.Params[i].Kind {
			return nil, false
		}
		p := a.Params[i]
		switch {
		case AssignableTo(env, a.Params[i].Type, b.Params[i].Type):
			p.Type = a.Params[i].Type
		case AssignableTo(env, b.Params[i].Type, a.Params[i].Type):
			p.Type = b.Params[i].Type
		default:
			return nil, false
		}
		params[i] = p
	}
	return Callable{
		Name:   a.Name,
		Params: params,
		Return: Join(env, a.Return, b.Return),
	}, true
}
