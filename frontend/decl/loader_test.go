package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/types"
	"github.com/stilt-dev/stilt/internal/config"
)

func load(t *testing.T, yaml string) (*Table, *diag.Errors) {
	t.Helper()
	doc, err := ParseDocument([]byte(yaml))
	require.NoError(t, err)
	table, errs, err := Load(doc, config.Default())
	require.NoError(t, err)
	return table, errs
}

func codes(errs *diag.Errors) []diag.ErrCode {
	var out []diag.ErrCode
	for _, d := range errs.Errors() {
		out = append(out, d.Code())
	}
	return out
}

func TestLoadBasicModule(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: zoo
    classes:
      - name: Animal
        fields:
          - name: legs
            type: int
      - name: Dog
        bases: [Animal]
        fields:
          - name: name
            type: str
    funcs:
      - name: feed
        overloads:
          - params:
              - name: a
                type: Animal
            return: None
    vars:
      - name: mascot
        type: Dog
    aliases:
      - name: Pet
        target: Dog
`)
	assert.False(t, errs.HasError())

	dog, ok := table.Class("zoo.Dog")
	require.True(t, ok)
	require.Len(t, dog.Bases, 1)
	assert.Equal(t, "zoo.Animal", dog.Bases[0].Name)

	// fields resolve through bases, first declaration wins
	field, owner, ok := table.LookupField("zoo.Dog", "legs")
	require.True(t, ok)
	assert.Equal(t, "zoo.Animal", owner.QName)
	assert.True(t, types.Equal(field.Type, types.IntType))

	fn, ok := table.Func("zoo.feed")
	require.True(t, ok)
	require.Len(t, fn.Alternatives, 1)
	sig := fn.Alternatives[0].Sig
	require.Len(t, sig.Params, 1)
	assert.True(t, types.Equal(sig.Params[0].Type, types.ClassOf("zoo.Animal")))
	assert.True(t, types.Equal(sig.Return, types.NoneType))

	v, ok := table.Var("zoo.mascot")
	require.True(t, ok)
	assert.True(t, types.Equal(v.Type, types.ClassOf("zoo.Dog")))

	// the alias resolves through to its target class
	def, ok := table.ClassDef("zoo.Pet")
	require.True(t, ok)
	assert.Equal(t, "zoo.Dog", def.Name)
}

func TestLoadTopologicalOrder(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: app
    imports: [base]
    classes:
      - name: Service
        bases: [base.Entity]
  - name: base
    classes:
      - name: Entity
`)
	assert.False(t, errs.HasError())
	mods := table.Modules()
	require.Len(t, mods, 2)
	// base loads before app despite being declared after it
	assert.Equal(t, "base", mods[0].Name)
	assert.Equal(t, "app", mods[1].Name)
}

func TestLoadCyclicImportsIsFatal(t *testing.T) {
	doc, err := ParseDocument([]byte(`
modules:
  - name: a
    imports: [b]
  - name: b
    imports: [a]
`))
	require.NoError(t, err)
	_, _, err = Load(doc, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")
}

func TestLoadTypeVars(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: m
    typevars:
      - name: AnyStr
        restriction: [str, bytes]
    funcs:
      - name: concat
        overloads:
          - typevars: [AnyStr]
            params:
              - name: a
                type: {typevar: AnyStr}
              - name: b
                type: {typevar: AnyStr}
            return: {typevar: AnyStr}
`)
	assert.False(t, errs.HasError())
	fn, ok := table.Func("m.concat")
	require.True(t, ok)
	sig := fn.Alternatives[0].Sig
	require.Len(t, sig.Vars, 1)
	tv := sig.Vars[0]
	assert.True(t, tv.IsRestricted())
	require.Len(t, tv.Restriction, 2)
	assert.True(t, types.Equal(tv.Restriction[0], types.StrType))
	// the parameter types are the same variable identity
	assert.Same(t, sig.Params[0].Type, sig.Params[1].Type)
}

func TestLoadUndefinedName(t *testing.T) {
	_, errs := load(t, `
modules:
  - name: m
    vars:
      - name: x
        type: Missing
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), diag.UndefinedName)
}

func TestTransformViaDecorator(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: m
    classes:
      - name: Point
        decorators:
          - name: dataclass
            args:
              - name: frozen
                bool: true
        fields:
          - name: x
            type: int
`)
	assert.False(t, errs.HasError())
	cls, ok := table.Class("m.Point")
	require.True(t, ok)
	assert.True(t, cls.TransformApplies)
	assert.True(t, cls.Frozen)
	assert.True(t, cls.Fields[0].ReadOnly)
}

func TestTransformViaCustomTransformer(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: m
    funcs:
      - name: model
        overloads:
          - decorators:
              - name: dataclass_transform
                args:
                  - name: kw_only_default
                    bool: true
            return: object
    classes:
      - name: Config
        decorators:
          - name: model
        fields:
          - name: debug
            type: bool
`)
	assert.False(t, errs.HasError())
	cls, ok := table.Class("m.Config")
	require.True(t, ok)
	assert.True(t, cls.TransformApplies)
	// the transformer's kw_only_default carries over
	assert.True(t, cls.KwOnly)
	assert.False(t, cls.Frozen)
}

func TestTransformViaDirectMetaclassOnly(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: m
    classes:
      - name: ModelMeta
        decorators:
          - name: dataclass_transform
      - name: SubMeta
        bases: [ModelMeta]
      - name: Direct
        metaclass: ModelMeta
        fields:
          - name: x
            type: int
      - name: Indirect
        metaclass: SubMeta
        fields:
          - name: x
            type: int
`)
	assert.False(t, errs.HasError())

	direct, ok := table.Class("m.Direct")
	require.True(t, ok)
	assert.True(t, direct.TransformApplies)

	// a metaclass that merely inherits a transformer does not carry the
	// transform onwards
	indirect, ok := table.Class("m.Indirect")
	require.True(t, ok)
	assert.False(t, indirect.TransformApplies)
}

func TestTransformUnrecognizedParameter(t *testing.T) {
	_, errs := load(t, `
modules:
  - name: m
    classes:
      - name: Meta
        decorators:
          - name: dataclass_transform
            args:
              - name: frozen_by_default
                bool: true
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), diag.UnrecognizedParameter)
}

func TestTransformNonLiteralFlag(t *testing.T) {
	_, errs := load(t, `
modules:
  - name: m
    classes:
      - name: Point
        decorators:
          - name: dataclass
            args:
              - name: frozen
                expr: read_config()
        fields:
          - name: x
            type: int
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), diag.NonLiteralFlag)
}

func TestVersionGatedOverloads(t *testing.T) {
	table, errs := load(t, `
modules:
  - name: m
    funcs:
      - name: parse
        overloads:
          - params:
              - name: s
                type: str
            return: int
          - min_version: "3.12"
            params:
              - name: s
                type: str
              - name: strict
                type: bool
                kw_only: true
                default: true
            return: int
`)
	assert.False(t, errs.HasError())
	fn, ok := table.Func("m.parse")
	require.True(t, ok)
	assert.Len(t, fn.Visible(config.Version{Major: 3, Minor: 11}), 1)
	assert.Len(t, fn.Visible(config.Version{Major: 3, Minor: 12}), 2)
}
