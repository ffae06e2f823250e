// Package infer implements constraint-based type argument inference: call
// sites generate subtype constraints on the callee's type variables, the
// solver turns them into bindings, and constructor synthesis feeds
// transformed classes into the same machinery.
package infer

import (
	"github.com/stilt-dev/stilt/frontend/types"
)

// Op is the direction of a constraint on a type variable.
type Op int

const (
	// SupertypeOf constrains the variable's value to be a supertype of the
	// target. Argument-against-parameter checks generate these.
	SupertypeOf Op = iota
	// SubtypeOf constrains the variable's value to be a subtype of the
	// target.
	SubtypeOf
)

func (o Op) String() string {
	if o == SupertypeOf {
		return ":>"
	}
	return "<:"
}

func (o Op) negate() Op {
	if o == SupertypeOf {
		return SubtypeOf
	}
	return SupertypeOf
}

// Constraint requires a type variable's eventual value to be a supertype or
// subtype of Target.
type Constraint struct {
	Var    *types.TypeVar
	Op     Op
	Target types.Type
}

func (c Constraint) String() string {
	return c.Var.String() + " " + c.Op.String() + " " + c.Target.String()
}

// Constraints infers the constraints on template's type variables needed for
// actual to be compatible with template under op. Template is the side that
// carries the variables being solved; with SupertypeOf, compatibility means
// actual is assignable to template.
func Constraints(env types.Classes, template, actual types.Type, op Op) []Constraint {
	c := constrainer{env: env}
	c.infer(template, actual, op)
	return c.out
}

type constrainer struct {
	env types.Classes
	out []Constraint
}

func (c *constrainer) add(v *types.TypeVar, op Op, target types.Type) {
	c.out = append(c.out, Constraint{Var: v, Op: op, Target: target})
}

func (c *constrainer) infer(template, actual types.Type, op Op) {
	if v, ok := template.(*types.TypeVar); ok {
		c.add(v, op, actual)
		return
	}
	// a Never actual tells us nothing about any variable
	if types.IsNever(actual) || types.IsAny(actual) {
		return
	}
	// every member of an actual union must fit the template
	if u, ok := actual.(types.Union); ok {
		for _, m := range u.Members {
			c.infer(template, m, op)
		}
		return
	}

	switch template := template.(type) {
	case types.Union:
		c.inferUnion(template, actual, op)
	case types.Class:
		c.inferClass(template, actual, op)
	case types.Tuple:
		if actualTuple, ok := actual.(types.Tuple); ok && len(actualTuple.Items) == len(template.Items) {
			for i := range template.Items {
				c.infer(template.Items[i], actualTuple.Items[i], op)
			}
		}
	case types.Callable:
		if actualCallable, ok := actual.(types.Callable); ok && len(actualCallable.Params) == len(template.Params) {
			for i := range template.Params {
				// parameters are contravariant
				c.infer(template.Params[i].Type, actualCallable.Params[i].Type, op.negate())
			}
			c.infer(template.Return, actualCallable.Return, op)
		}
	}
}

// inferUnion handles a union template: if the actual already fits a
// variable-free member, the variables stay unconstrained; otherwise the
// first member mentioning a variable absorbs the actual.
func (c *constrainer) inferUnion(template types.Union, actual types.Type, op Op) {
	var open []types.Type
	for _, m := range template.Members {
		if len(types.FreeTypeVars(m)) == 0 {
			if types.AssignableTo(c.env, actual, m) {
				return
			}
		} else {
			open = append(open, m)
		}
	}
	if len(open) > 0 {
		c.infer(open[0], actual, op)
	}
}

// inferClass maps the actual through its base-class graph onto the
// template's class, then constrains each type argument per the declared
// variance of the matching parameter.
func (c *constrainer) inferClass(template types.Class, actual types.Type, op Op) {
	actualClass, ok := actual.(types.Class)
	if !ok {
		return
	}
	mapped := actualClass
	if actualClass.Name != template.Name {
		mapped, ok = types.MapToSupertype(c.env, actualClass, template.Name)
		if !ok {
			return
		}
	}
	def, ok := c.env.ClassDef(template.Name)
	if !ok || len(mapped.Args) != len(template.Args) {
		return
	}
	for i := range template.Args {
		variance := types.Invariant
		if i < len(def.Params) {
			variance = def.Params[i].Variance
		}
		switch variance {
		case types.Covariant:
			c.infer(template.Args[i], mapped.Args[i], op)
		case types.Contravariant:
			c.infer(template.Args[i], mapped.Args[i], op.negate())
		default:
			c.infer(template.Args[i], mapped.Args[i], op)
			c.infer(template.Args[i], mapped.Args[i], op.negate())
		}
	}
}
