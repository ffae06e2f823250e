package types

// Fresher hands out type variables with unique identities. There is no global
// counter: each load or inference run owns its Fresher.
type Fresher struct {
	next uint64
}

func NewFresher() *Fresher {
	return &Fresher{}
}

func (f *Fresher) NewTypeVar(name string, restriction []Type, bound Type, variance Variance) *TypeVar {
	f.next++
	return &TypeVar{
		ID:          f.next,
		Name:        name,
		Restriction: restriction,
		Bound:       bound,
		Variance:    variance,
	}
}

// Instantiate replaces a signature's quantified variables with fresh ones so
// that solving one call site never pollutes another. Restrictions and bounds
// carry over to the fresh variable.
func (f *Fresher) Instantiate(sig Callable) Callable {
	if len(sig.Vars) == 0 {
		return sig
	}
	bindings := make(Bindings, len(sig.Vars))
	freshVars := make([]*TypeVar, len(sig.Vars))
	for i, v := range sig.Vars {
		fresh := f.NewTypeVar(v.Name, v.Restriction, v.Bound, v.Variance)
		freshVars[i] = fresh
		bindings[v.ID] = fresh
	}
	instantiated := Substitute(sig, bindings).(Callable)
	instantiated.Vars = freshVars
	return instantiated
}
