package infer

import (
	"github.com/stilt-dev/stilt/frontend/types"
)

// Violation is a solver failure for one variable: the inferred value does
// not satisfy the variable's restriction, bound, or an upper constraint.
// Types are pre-rendered so diagnostics can carry them without depending on
// this package's internals.
type Violation struct {
	Var   *types.TypeVar
	Got   string
	Want  string
	Trail []string
}

// Solve computes a binding for each variable from its constraints, in the
// declaration order of vars.
//
// The value of a variable is the join of all its lower-bound targets. A
// restricted variable never binds the join itself: it promotes to the first
// declared candidate the join is assignable to, so ordering the candidates
// in the declaration decides ties. A bounded variable binds the join
// directly and then checks it against the bound.
func Solve(env types.Classes, vars []*types.TypeVar, constraints []Constraint) (types.Bindings, []Violation) {
	bindings := make(types.Bindings, len(vars))
	var violations []Violation

	for _, v := range vars {
		lower := types.Type(types.NeverType)
		var uppers []types.Type
		sawAny := false
		constrained := false
		for _, c := range constraints {
			if c.Var.ID != v.ID {
				continue
			}
			constrained = true
			if types.IsAny(c.Target) {
				sawAny = true
				continue
			}
			if c.Op == SupertypeOf {
				lower = types.Join(env, lower, c.Target)
			} else {
				uppers = append(uppers, c.Target)
			}
		}

		if sawAny {
			// Any propagates through inference rather than erroring
			bindings[v.ID] = types.AnyType
			continue
		}

		var value types.Type
		switch {
		case v.IsRestricted():
			promoted, ok := promote(env, v, lower)
			if !ok {
				_, trail := types.ExplainAssignable(env, lower, types.MakeUnion(v.Restriction...))
				violations = append(violations, Violation{
					Var:   v,
					Got:   lower.String(),
					Want:  restrictionString(v),
					Trail: trail,
				})
				bindings[v.ID] = types.AnyType
				continue
			}
			value = promoted
		case !constrained || types.IsNever(lower):
			// nothing pinned the variable down; anything goes
			value = types.AnyType
		default:
			value = lower
		}

		if v.Bound != nil && !types.IsAny(value) {
			if ok, trail := types.ExplainAssignable(env, value, v.Bound); !ok {
				violations = append(violations, Violation{
					Var:   v,
					Got:   value.String(),
					Want:  v.Bound.String(),
					Trail: trail,
				})
				bindings[v.ID] = types.AnyType
				continue
			}
		}
		for _, upper := range uppers {
			if ok, trail := types.ExplainAssignable(env, value, upper); !ok {
				violations = append(violations, Violation{
					Var:   v,
					Got:   value.String(),
					Want:  upper.String(),
					Trail: trail,
				})
				bindings[v.ID] = types.AnyType
				value = nil
				break
			}
		}
		if value != nil {
			bindings[v.ID] = value
		}
	}
	return bindings, violations
}

// promote picks the candidate a restricted variable binds: the first one, in
// declared order, that the inferred lower bound is assignable to. A subclass
// of a candidate promotes up to the candidate itself.
func promote(env types.Classes, v *types.TypeVar, lower types.Type) (types.Type, bool) {
	if types.IsNever(lower) {
		// unconstrained restricted variable; no call argument mentioned it
		return types.AnyType, true
	}
	for _, candidate := range v.Restriction {
		if types.AssignableTo(env, lower, candidate) {
			return candidate, true
		}
	}
	return nil, false
}

func restrictionString(v *types.TypeVar) string {
	return "one of " + types.MakeUnion(v.Restriction...).String()
}
