package types

import (
	"github.com/hashicorp/go-set/v3"
)

// Classes resolves a qualified class name into its type-level definition.
// The declaration store implements this; the types package never sees
// declarations directly.
type Classes interface {
	ClassDef(name string) (*ClassDef, bool)
}

// ClassDef is the type-level shape of a class declaration: its parameters and
// its direct bases, written in terms of those parameters. The inheritance
// graph is explicit and walked via the Classes index, never through language
// inheritance.
type ClassDef struct {
	Name   string
	Params []*TypeVar
	// Bases are the direct bases, instantiated with Params as arguments.
	Bases []Class
	// allBases caches every transitive base name, excluding Name itself.
	allBases *set.Set[string]
}

func NewClassDef(name string, params []*TypeVar, bases ...Class) *ClassDef {
	return &ClassDef{Name: name, Params: params, Bases: bases}
}

// Instance is the generic self type: the class applied to its own parameters.
func (d *ClassDef) Instance() Class {
	args := make([]Type, len(d.Params))
	for i, p := range d.Params {
		args[i] = p
	}
	return Class{Name: d.Name, Args: args}
}

// HasBase reports whether name is a transitive base of d. The walk is
// resolved through env and cached on first use; the store is read-only once
// loading finishes, so the cache never goes stale.
func (d *ClassDef) HasBase(env Classes, name string) bool {
	if d.Name == name {
		return true
	}
	if d.allBases == nil {
		d.allBases = set.New[string](len(d.Bases))
		d.collectBases(env, d.allBases)
	}
	return d.allBases.Contains(name)
}

func (d *ClassDef) collectBases(env Classes, into *set.Set[string]) {
	for _, base := range d.Bases {
		if into.Contains(base.Name) {
			continue
		}
		into.Insert(base.Name)
		if baseDef, ok := env.ClassDef(base.Name); ok {
			baseDef.collectBases(env, into)
		}
	}
}

// MapToSupertype rewrites an instance type as an instance of one of its base
// classes, carrying type arguments through the inheritance chain. Following
// the declaration-order walk, the first path to target wins.
func MapToSupertype(env Classes, inst Class, target string) (Class, bool) {
	if inst.Name == target {
		return inst, true
	}
	def, ok := env.ClassDef(inst.Name)
	if !ok {
		return Class{}, false
	}
	bindings := make(Bindings, len(def.Params))
	for i, p := range def.Params {
		if i < len(inst.Args) {
			bindings[p.ID] = inst.Args[i]
		} else {
			bindings[p.ID] = AnyType
		}
	}
	for _, base := range def.Bases {
		mapped, isClass := Substitute(base, bindings).(Class)
		if !isClass {
			continue
		}
		if found, ok := MapToSupertype(env, mapped, target); ok {
			return found, true
		}
	}
	return Class{}, false
}

// Universe is the simplest Classes implementation: a flat name index.
// The declaration store wraps one, seeded with the builtins.
type Universe map[string]*ClassDef

func (u Universe) ClassDef(name string) (*ClassDef, bool) {
	def, ok := u[name]
	return def, ok
}

func (u Universe) Add(def *ClassDef) {
	u[def.Name] = def
}
