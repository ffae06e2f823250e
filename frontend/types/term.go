package types

import (
	"fmt"
	"hash/fnv"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/stilt-dev/stilt/util"
)

// Type is the internal representation of a static type. Types are immutable
// once built; structurally identical terms compare equal through their hash,
// so they can be shared freely by reference.
type Type interface {
	fmt.Stringer
	Hash() uint64
	children() iter.Seq[Type]
	mapChildren(func(Type) Type) Type
}

// Equal compares two types structurally. Hashes are structural, so this is
// how every equality check in the package is done.
//
// Hashers from different packages can be compared as long as they hash the
// same way, which is why this takes the set.Hasher shape rather than a method
// on each term.
func Equal[H, HH set.Hasher[uint64]](this H, other HH) bool {
	return this.Hash() == other.Hash()
}

var (
	_ Type = anyType{}
	_ Type = neverType{}
	_ Type = Class{}
	_ Type = Union{}
	_ Type = Tuple{}
	_ Type = Callable{}
	_ Type = (*TypeVar)(nil)
)

var emptySeq iter.Seq[Type] = func(func(Type) bool) {}

// Children iterates the direct subterms of a type.
func Children(t Type) iter.Seq[Type] { return t.children() }

// anyType is bidirectionally assignable to everything. This is absorbing and
// deliberately unsound, matching the ecosystem the declarations come from.
type anyType struct{}

// AnyType is the gradual "unknown" type.
var AnyType Type = anyType{}

func (anyType) String() string                    { return "Any" }
func (anyType) Hash() uint64                      { return 1099511628211 }
func (anyType) children() iter.Seq[Type]          { return emptySeq }
func (t anyType) mapChildren(func(Type) Type) Type { return t }

func IsAny(t Type) bool {
	_, ok := t.(anyType)
	return ok
}

// neverType is the empty type: assignable to everything, and nothing but
// Never is assignable to it.
type neverType struct{}

// NeverType is the uninhabited bottom type.
var NeverType Type = neverType{}

func (neverType) String() string                    { return "Never" }
func (neverType) Hash() uint64                      { return 16777619 }
func (neverType) children() iter.Seq[Type]          { return emptySeq }
func (t neverType) mapChildren(func(Type) Type) Type { return t }

func IsNever(t Type) bool {
	_, ok := t.(neverType)
	return ok
}

// Class is a nominal instance type: a reference to a class declaration by
// qualified name, plus its type arguments. A primitive is simply a Class
// with no arguments.
type Class struct {
	Name string
	Args []Type
}

func ClassOf(name string, args ...Type) Class {
	return Class{Name: name, Args: args}
}

func (t Class) String() string {
	name := shortName(t.Name)
	if len(t.Args) == 0 {
		return name
	}
	return name + "[" + util.JoinString(t.Args, ", ") + "]"
}

func (t Class) Hash() uint64 {
	const prime uint64 = 1299709
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Name))
	hash := prime ^ h.Sum64()
	for _, arg := range t.Args {
		hash = hash*31 + arg.Hash()
	}
	return hash
}

func (t Class) children() iter.Seq[Type] { return slices.Values(t.Args) }

func (t Class) mapChildren(f func(Type) Type) Type {
	if len(t.Args) == 0 {
		return t
	}
	mapped := make([]Type, len(t.Args))
	for i, arg := range t.Args {
		mapped[i] = f(arg)
	}
	return Class{Name: t.Name, Args: mapped}
}

func shortName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// Union is a canonicalized set of alternatives: flattened, deduplicated and
// sorted. Construct with MakeUnion, never directly, so that two unions with
// the same members always hash equal.
type Union struct {
	Members []Type
}

func (t Union) String() string {
	return util.JoinString(t.Members, " | ")
}

func (t Union) Hash() uint64 {
	var hash uint64 = 9973
	for _, m := range t.Members {
		hash = hash*433 ^ m.Hash()
	}
	return hash
}

func (t Union) children() iter.Seq[Type] { return slices.Values(t.Members) }

func (t Union) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Members))
	for i, m := range t.Members {
		mapped[i] = f(m)
	}
	return MakeUnion(mapped...)
}

// Tuple is a known-width sequence with per-position types.
type Tuple struct {
	Items []Type
}

func (t Tuple) String() string {
	return "tuple[" + util.JoinString(t.Items, ", ") + "]"
}

func (t Tuple) Hash() uint64 {
	var hash uint64 = 104729
	for _, item := range t.Items {
		hash = hash*10007 ^ item.Hash()
	}
	return hash
}

func (t Tuple) children() iter.Seq[Type] { return slices.Values(t.Items) }

func (t Tuple) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Items))
	for i, item := range t.Items {
		mapped[i] = f(item)
	}
	return Tuple{Items: mapped}
}

type ParamKind int

const (
	// Positional parameters may also be passed by keyword when named.
	Positional ParamKind = iota
	// KeywordOnly parameters are rejected when passed positionally.
	KeywordOnly
)

type Param struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
	Type       Type
}

func (p Param) String() string {
	s := p.Type.String()
	if p.Name != "" {
		s = p.Name + ": " + s
	}
	if p.HasDefault {
		s += " = ..."
	}
	return s
}

// Callable is a function signature. Vars lists the type variables the
// signature quantifies over; instantiate them fresh per call site.
type Callable struct {
	Name   string
	Params []Param
	Return Type
	Vars   []*TypeVar
}

func (t Callable) String() string {
	params := make([]string, 0, len(t.Params)+1)
	kwMarked := false
	for _, p := range t.Params {
		if p.Kind == KeywordOnly && !kwMarked {
			params = append(params, "*")
			kwMarked = true
		}
		params = append(params, p.String())
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Return.String())
}

func (t Callable) Hash() uint64 {
	var hash uint64 = 2166136261
	for _, p := range t.Params {
		hash = hash*16777619 ^ p.Type.Hash()
		hash = hash*16777619 ^ uint64(p.Kind+1)
		h := fnv.New64a()
		_, _ = h.Write([]byte(p.Name))
		hash ^= h.Sum64()
	}
	return hash*16777619 ^ t.Return.Hash()
}

func (t Callable) children() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		for _, p := range t.Params {
			if !yield(p.Type) {
				return
			}
		}
		yield(t.Return)
	}
}

func (t Callable) mapChildren(f func(Type) Type) Type {
	mapped := make([]Param, len(t.Params))
	for i, p := range t.Params {
		p.Type = f(p.Type)
		mapped[i] = p
	}
	return Callable{Name: t.Name, Params: mapped, Return: f(t.Return), Vars: t.Vars}
}

// MinArgs is the number of parameters without a default value.
func (t Callable) MinArgs() int {
	n := 0
	for _, p := range t.Params {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

// MaxPositional is the number of parameters that accept a positional argument.
func (t Callable) MaxPositional() int {
	n := 0
	for _, p := range t.Params {
		if p.Kind == Positional {
			n++
		}
	}
	return n
}

type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "invariant"
	}
}

// TypeVar is a placeholder type bound during generic instantiation. It may
// carry either an enumerated Restriction set or an upper Bound, never both.
// Identity is the ID: two vars with the same ID are the same variable.
//
// Construct with Fresher.NewTypeVar.
type TypeVar struct {
	ID   uint64
	Name string
	// Restriction enumerates the only candidates this var may bind to,
	// in declaration order. Declaration order decides promotion.
	Restriction []Type
	// Bound is the upper bound, or nil.
	Bound    Type
	Variance Variance
}

func (t *TypeVar) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "T" + strconv.FormatUint(t.ID, 10)
}

func (t *TypeVar) Hash() uint64 {
	// two vars with the same ID but different bounds cannot exist,
	// so the ID is enough
	return 31 * 7919 * (t.ID + 1)
}

func (t *TypeVar) children() iter.Seq[Type] { return emptySeq }

// mapChildren never descends into a variable's bounds: those belong to the
// declaration, not the occurrence.
func (t *TypeVar) mapChildren(func(Type) Type) Type { return t }

// IsRestricted reports whether the var carries an enumerated candidate set.
func (t *TypeVar) IsRestricted() bool { return len(t.Restriction) > 0 }
