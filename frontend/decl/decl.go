package decl

import (
	"github.com/stilt-dev/stilt/frontend/match"
	"github.com/stilt-dev/stilt/frontend/types"
	"github.com/stilt-dev/stilt/internal/config"
	"github.com/stilt-dev/stilt/util"
)

type Kind int

const (
	KindClass Kind = iota
	KindFunc
	KindVar
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunc:
		return "function"
	case KindVar:
		return "variable"
	default:
		return "alias"
	}
}

// Decl is a named entity with a type-level shape and an origin module.
// Declarations are immutable once their module finishes loading.
type Decl interface {
	Positioner
	DeclName() string
	DeclKind() Kind
}

var (
	_ Decl = (*Class)(nil)
	_ Decl = (*Func)(nil)
	_ Decl = (*Var)(nil)
	_ Decl = (*Alias)(nil)
)

type Field struct {
	Name string
	Type types.Type
	// Specifier is the field-specifier marker call, if any. It is read
	// statically, never evaluated.
	Specifier *Marker
	// ReadOnly is set when a frozen-semantics transform applies to the
	// owning class.
	ReadOnly bool
	Range
}

type Class struct {
	QName     string
	Params    []*types.TypeVar
	Bases     []types.Class
	Metaclass string
	Markers   []Marker
	Fields    []Field
	Range

	// TransformApplies is computed once at load time by checking the class's
	// own markers and its direct metaclass only. It is never inherited
	// through metaclass subclasses.
	TransformApplies bool
	// Frozen makes every field read-only post construction.
	Frozen bool
	// KwOnly makes synthesized constructor parameters keyword-only by
	// default.
	KwOnly bool
	// Ctor is the synthesized constructor signature, filled in by the
	// inference engine after loading.
	Ctor *types.Callable
}

func (c *Class) DeclName() string { return c.QName }
func (c *Class) DeclKind() Kind   { return KindClass }

// Instance is the class applied to its own parameters.
func (c *Class) Instance() types.Class {
	args := make([]types.Type, len(c.Params))
	for i, p := range c.Params {
		args[i] = p
	}
	return types.Class{Name: c.QName, Args: args}
}

// CarriesTransformMarker reports whether the class itself is a transformer:
// using it as a direct metaclass or base applies the transform.
func (c *Class) CarriesTransformMarker() bool {
	for _, m := range c.Markers {
		if m.IsTransformMarker() {
			return true
		}
	}
	return false
}

// Alternative is one overload of a function, or its implementation.
type Alternative struct {
	Sig     types.Callable
	Markers []Marker
	// MinVersion hides the alternative from older configured versions.
	// Zero means always visible.
	MinVersion config.Version
	Range
}

func (a Alternative) CarriesTransformMarker() bool {
	for _, m := range a.Markers {
		if m.IsTransformMarker() {
			return true
		}
	}
	return false
}

// Func is an overload group. A single-signature function is a group of one.
type Func struct {
	QName        string
	Alternatives []Alternative
	Range
}

func (f *Func) DeclName() string { return f.QName }
func (f *Func) DeclKind() Kind   { return KindFunc }

// IsTransformer reports whether any alternative in the overload group, or
// the implementation, carries the transform marker. One marked alternative
// marks the whole group.
func (f *Func) IsTransformer() bool {
	for _, alt := range f.Alternatives {
		if alt.CarriesTransformMarker() {
			return true
		}
	}
	return false
}

// Visible returns the alternatives available under the configured version,
// in declaration order.
func (f *Func) Visible(v config.Version) []Alternative {
	visible := make([]Alternative, 0, len(f.Alternatives))
	for _, alt := range f.Alternatives {
		if alt.MinVersion.IsZero() || v.AtLeast(alt.MinVersion) {
			visible = append(visible, alt)
		}
	}
	return visible
}

type Var struct {
	QName string
	Type  types.Type
	Range
}

func (v *Var) DeclName() string { return v.QName }
func (v *Var) DeclKind() Kind   { return KindVar }

type Alias struct {
	QName  string
	Target types.Type
	Range
}

func (a *Alias) DeclName() string { return a.QName }
func (a *Alias) DeclKind() Kind   { return KindAlias }

// Module is a named collection of declarations plus the checks to run
// against them. Append-only while loading, read-only afterwards.
type Module struct {
	Name    string
	Imports []string
	Classes []*Class
	Funcs   []*Func
	Vars    []*Var
	Aliases []*Alias
	Checks  []Check
	Range
}

type CheckKind int

const (
	CheckCall CheckKind = iota
	CheckAssign
	CheckSetAttr
	CheckMatch
	CheckNarrow
)

// Check is one semantic assertion from a module's fixture section: a call
// site, an assignment, an attribute assignment, a match statement or an
// isinstance branch.
type Check struct {
	Kind    CheckKind
	Call    *CallCheck
	Assign  *AssignCheck
	SetAttr *SetAttrCheck
	Match   *MatchCheck
	Narrow  *NarrowCheck
	Range
}

type CallCheck struct {
	Callee string
	Args   []types.Type
	Kwargs []util.Pair[string, types.Type]
	// Expect, when set, is the required inferred result type.
	Expect types.Type
}

type AssignCheck struct {
	Value  types.Type
	Target types.Type
}

type SetAttrCheck struct {
	Object types.Type
	Field  string
	Value  types.Type
}

type MatchArm struct {
	Pattern match.Pattern
	// GuardRefs are the names the arm's guard expression references. They
	// must be resolved by the pattern (or an enclosing scope) before the
	// guard runs.
	GuardRefs []string
}

// NarrowCheck is an if-isinstance statement. The subject splits into a
// then branch narrowed to To and an else branch holding the residual; the
// branch types join back into the enclosing scope afterwards. Name refers
// to a binding left by an earlier check, otherwise Subject supplies one.
type NarrowCheck struct {
	Name       string
	Subject    types.Type
	To         types.Type
	ThenAssign types.Type
	ElseAssign types.Type
	ExpectThen types.Type
	ExpectElse types.Type
	ExpectJoin types.Type
}

type MatchCheck struct {
	Subject types.Type
	Arms    []MatchArm
	// ExpectBindings, when set, are the names and types the match must leave
	// in the enclosing scope.
	ExpectBindings []util.Pair[string, types.Type]
	// ExpectResidual, when set, is the required residual subject type after
	// all arms.
	ExpectResidual types.Type
}
