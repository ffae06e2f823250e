package decl

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Document is the interchange format for a declaration set: the parsed
// signatures the engine consumes. Real surface syntax is an external
// collaborator; this schema is already structural, so no expression parsing
// happens here.
type Document struct {
	Modules []ModuleDoc `yaml:"modules"`
}

func LoadDocumentFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read declaration document")
	}
	return ParseDocument(raw)
}

func ParseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "could not decode declaration document")
	}
	return &doc, nil
}

type ModuleDoc struct {
	Name     string       `yaml:"name"`
	Imports  []string     `yaml:"imports"`
	TypeVars []TypeVarDoc `yaml:"typevars"`
	Classes  []ClassDoc   `yaml:"classes"`
	Funcs    []FuncDoc    `yaml:"funcs"`
	Vars     []VarDoc     `yaml:"vars"`
	Aliases  []AliasDoc   `yaml:"aliases"`
	Checks   []CheckDoc   `yaml:"checks"`
	Line     int          `yaml:"-"`
}

func (m *ModuleDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw ModuleDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*m = ModuleDoc(r)
	m.Line = node.Line
	return nil
}

// TypeVarDoc declares a type variable scoped to its module. Restriction and
// Bound are mutually exclusive.
type TypeVarDoc struct {
	Name        string     `yaml:"name"`
	Restriction []TypeNode `yaml:"restriction"`
	Bound       *TypeNode  `yaml:"bound"`
	Variance    string     `yaml:"variance"`
}

type ClassDoc struct {
	Name       string      `yaml:"name"`
	TypeParams []string    `yaml:"type_params"`
	Bases      []TypeNode  `yaml:"bases"`
	Metaclass  string      `yaml:"metaclass"`
	Decorators []MarkerDoc `yaml:"decorators"`
	Fields     []FieldDoc  `yaml:"fields"`
	Line       int         `yaml:"-"`
}

func (c *ClassDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw ClassDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*c = ClassDoc(r)
	c.Line = node.Line
	return nil
}

type FieldDoc struct {
	Name      string     `yaml:"name"`
	Type      TypeNode   `yaml:"type"`
	Specifier *MarkerDoc `yaml:"specifier"`
	Line      int        `yaml:"-"`
}

func (f *FieldDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw FieldDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*f = FieldDoc(r)
	f.Line = node.Line
	return nil
}

// MarkerDoc is a decorator or field-specifier call. Argument values are
// literals; anything else goes through expr and is treated as non-literal.
type MarkerDoc struct {
	Name string   `yaml:"name"`
	Args []ArgDoc `yaml:"args"`
	Line int      `yaml:"-"`
}

func (m *MarkerDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw MarkerDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*m = MarkerDoc(r)
	m.Line = node.Line
	return nil
}

type ArgDoc struct {
	Name string  `yaml:"name"`
	Bool *bool   `yaml:"bool"`
	Str  *string `yaml:"str"`
	Int  *int64  `yaml:"int"`
	// Expr is the source text of a non-literal argument.
	Expr string `yaml:"expr"`
}

func (a ArgDoc) literal() Literal {
	switch {
	case a.Bool != nil:
		return Literal{Kind: LitBool, Bool: *a.Bool}
	case a.Str != nil:
		return Literal{Kind: LitString, Str: *a.Str}
	case a.Int != nil:
		return Literal{Kind: LitInt, Int: *a.Int}
	default:
		return Literal{Kind: NonLiteral, Raw: a.Expr}
	}
}

type FuncDoc struct {
	Name      string         `yaml:"name"`
	Overloads []SignatureDoc `yaml:"overloads"`
	Line      int            `yaml:"-"`
}

func (f *FuncDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw FuncDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*f = FuncDoc(r)
	f.Line = node.Line
	return nil
}

type SignatureDoc struct {
	TypeVars   []string    `yaml:"typevars"`
	Params     []ParamDoc  `yaml:"params"`
	Return     *TypeNode   `yaml:"return"`
	Decorators []MarkerDoc `yaml:"decorators"`
	// MinVersion hides the overload below the given python version.
	MinVersion string `yaml:"min_version"`
}

type ParamDoc struct {
	Name    string   `yaml:"name"`
	Type    TypeNode `yaml:"type"`
	KwOnly  bool     `yaml:"kw_only"`
	Default bool     `yaml:"default"`
}

type VarDoc struct {
	Name string   `yaml:"name"`
	Type TypeNode `yaml:"type"`
	Line int      `yaml:"-"`
}

func (v *VarDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw VarDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*v = VarDoc(r)
	v.Line = node.Line
	return nil
}

type AliasDoc struct {
	Name   string   `yaml:"name"`
	Target TypeNode `yaml:"target"`
	Line   int      `yaml:"-"`
}

func (a *AliasDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw AliasDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*a = AliasDoc(r)
	a.Line = node.Line
	return nil
}

// TypeNode is a structural type expression. Exactly one of the fields is
// set; a plain scalar string is shorthand for a class reference.
type TypeNode struct {
	Class    string        `yaml:"class"`
	Args     []TypeNode    `yaml:"args"`
	Union    []TypeNode    `yaml:"union"`
	Tuple    []TypeNode    `yaml:"tuple"`
	Callable *SignatureDoc `yaml:"callable"`
	TypeVar  string        `yaml:"typevar"`
	Any      bool          `yaml:"any"`
	Never    bool          `yaml:"never"`
}

func (t *TypeNode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		// "int" is shorthand for {class: int}
		return node.Decode(&t.Class)
	}
	type raw TypeNode
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*t = TypeNode(r)
	return nil
}

type CheckDoc struct {
	Call    *CallCheckDoc    `yaml:"call"`
	Assign  *AssignCheckDoc  `yaml:"assign"`
	SetAttr *SetAttrCheckDoc `yaml:"setattr"`
	Match   *MatchCheckDoc   `yaml:"match"`
	Narrow  *NarrowCheckDoc  `yaml:"narrow"`
	Line    int              `yaml:"-"`
}

func (c *CheckDoc) UnmarshalYAML(node *yaml.Node) error {
	type raw CheckDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*c = CheckDoc(r)
	c.Line = node.Line
	return nil
}

type CallCheckDoc struct {
	Callee string              `yaml:"callee"`
	Args   []TypeNode          `yaml:"args"`
	Kwargs []map[string]TypeNode `yaml:"kwargs"`
	Expect *TypeNode           `yaml:"expect"`
}

type AssignCheckDoc struct {
	Value  TypeNode `yaml:"value"`
	Target TypeNode `yaml:"target"`
}

type SetAttrCheckDoc struct {
	Object TypeNode  `yaml:"object"`
	Field  string    `yaml:"field"`
	Value  *TypeNode `yaml:"value"`
}

type MatchCheckDoc struct {
	Subject        TypeNode              `yaml:"subject"`
	Arms           []MatchArmDoc         `yaml:"arms"`
	ExpectBindings []map[string]TypeNode `yaml:"expect_bindings"`
	ExpectResidual *TypeNode             `yaml:"expect_residual"`
}

// NarrowCheckDoc is an if-isinstance statement: the subject splits into a
// then branch (narrowed to the tested type) and an else branch (the
// residual), and the branches join again afterwards. Name refers to a
// binding left by an earlier check; Subject supplies a fresh one.
type NarrowCheckDoc struct {
	Name       string    `yaml:"name"`
	Subject    *TypeNode `yaml:"subject"`
	To         TypeNode  `yaml:"to"`
	ThenAssign *TypeNode `yaml:"then_assign"`
	ElseAssign *TypeNode `yaml:"else_assign"`
	ExpectThen *TypeNode `yaml:"expect_then"`
	ExpectElse *TypeNode `yaml:"expect_else"`
	ExpectJoin *TypeNode `yaml:"expect_join"`
}

type MatchArmDoc struct {
	Pattern   PatternDoc `yaml:"pattern"`
	GuardRefs []string   `yaml:"guard_refs"`
}

// PatternDoc is a structural pattern. Exactly one field is set; a plain
// scalar is shorthand for a capture.
type PatternDoc struct {
	Capture  string           `yaml:"capture"`
	As       *AsPatternDoc    `yaml:"as"`
	Value    *TypeNode        `yaml:"value"`
	Sequence []PatternDoc     `yaml:"sequence"`
	Mapping  *MappingDoc      `yaml:"mapping"`
}

func (p *PatternDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&p.Capture)
	}
	type raw PatternDoc
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*p = PatternDoc(r)
	return nil
}

type AsPatternDoc struct {
	Name string     `yaml:"name"`
	Sub  PatternDoc `yaml:"sub"`
}

type MappingDoc struct {
	Entries []map[string]PatternDoc `yaml:"entries"`
	Rest    string                  `yaml:"rest"`
}
