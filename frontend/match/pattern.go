package match

import (
	"strings"

	"github.com/stilt-dev/stilt/frontend/types"
)

// Pattern is a structural pattern a subject type is destructured against.
type Pattern interface {
	isPattern()
	String() string
}

var (
	_ Pattern = Capture{}
	_ Pattern = As{}
	_ Pattern = Value{}
	_ Pattern = Sequence{}
	_ Pattern = Mapping{}
)

// Capture binds the whole subject under a name. The name "_" is the wildcard
// and binds nothing.
type Capture struct {
	Name string
}

func (Capture) isPattern() {}
func (p Capture) String() string {
	return p.Name
}

// IsWildcard reports whether the capture discards its subject.
func (p Capture) IsWildcard() bool { return p.Name == "_" }

// As matches Sub and additionally binds the matched type under Name.
type As struct {
	Name string
	Sub  Pattern
}

func (As) isPattern() {}
func (p As) String() string {
	return p.Sub.String() + " as " + p.Name
}

// Value narrows the subject to Type: a literal or class pattern.
type Value struct {
	Type types.Type
}

func (Value) isPattern() {}
func (p Value) String() string {
	return p.Type.String()
}

// Sequence destructures a sequence-typed subject element-wise.
type Sequence struct {
	Elems []Pattern
}

func (Sequence) isPattern() {}
func (p Sequence) String() string {
	elems := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

type MapEntry struct {
	Key   string
	Value Pattern
}

// Mapping destructures a mapping-typed subject by key. Rest, when non-empty,
// captures the remainder as a mapping of the same container type as the
// subject.
type Mapping struct {
	Entries []MapEntry
	Rest    string
}

func (Mapping) isPattern() {}
func (p Mapping) String() string {
	parts := make([]string, 0, len(p.Entries)+1)
	for _, e := range p.Entries {
		parts = append(parts, "\""+e.Key+"\": "+e.Value.String())
	}
	if p.Rest != "" {
		parts = append(parts, "**"+p.Rest)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Irrefutable reports whether the pattern matches every value of any subject
// type: only bare captures and as-patterns over irrefutable sub-patterns are.
func Irrefutable(p Pattern) bool {
	switch p := p.(type) {
	case Capture:
		return true
	case As:
		return Irrefutable(p.Sub)
	default:
		return false
	}
}
