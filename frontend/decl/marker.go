package decl

import (
	"fmt"
	"strconv"
	"strings"
)

type LiteralKind int

const (
	// NonLiteral marks an argument whose value is an arbitrary expression,
	// unknowable at check time.
	NonLiteral LiteralKind = iota
	LitBool
	LitString
	LitInt
)

// Literal is the statically-read value of a marker argument. Markers are
// declarative: their arguments are read, never evaluated.
type Literal struct {
	Kind LiteralKind
	Bool bool
	Str  string
	Int  int64
	// Raw is the source text of a non-literal expression.
	Raw string
}

func (l Literal) IsLiteral() bool { return l.Kind != NonLiteral }

func (l Literal) String() string {
	switch l.Kind {
	case LitBool:
		return strconv.FormatBool(l.Bool)
	case LitString:
		return strconv.Quote(l.Str)
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	default:
		return fmt.Sprintf("<%s>", l.Raw)
	}
}

type MarkerArg struct {
	Name  string
	Value Literal
}

// Marker is a declarative annotation attached to a declaration: a decorator
// or a field-specifier call. Markers stack in source order.
type Marker struct {
	Name string
	Args []MarkerArg
	Range
}

func (m Marker) String() string {
	if len(m.Args) == 0 {
		return "@" + m.Name
	}
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.Name + "=" + a.Value.String()
	}
	return "@" + m.Name + "(" + strings.Join(args, ", ") + ")"
}

// Arg finds a named argument on the marker.
func (m Marker) Arg(name string) (Literal, bool) {
	for _, a := range m.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Literal{}, false
}

// IsTransformMarker recognizes the marker that turns its carrier into a
// dataclass-like transformer. Both the bare and the typing-qualified
// spellings count.
func (m Marker) IsTransformMarker() bool {
	return m.Name == "dataclass_transform" || strings.HasSuffix(m.Name, ".dataclass_transform")
}

// transformParams are the configuration keys a transform marker accepts;
// anything else is an UnrecognizedParameter diagnostic.
var transformParams = map[string]bool{
	"eq_default":       true,
	"order_default":    true,
	"kw_only_default":  true,
	"frozen_default":   true,
	"field_specifiers": true,
}

// transformUseParams are the keys accepted on a marker that applies a
// transform to one class, such as @dataclass(frozen=True).
var transformUseParams = map[string]bool{
	"init":    true,
	"eq":      true,
	"order":   true,
	"kw_only": true,
	"frozen":  true,
}
