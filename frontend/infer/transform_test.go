package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stilt-dev/stilt/frontend/decl"
	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/types"
)

const transformFixture = `
modules:
  - name: m
    typevars:
      - name: T
    classes:
      - name: Point
        decorators:
          - name: dataclass
        fields:
          - name: x
            type: int
          - name: y
            type: int
            specifier:
              name: field
              args:
                - name: default
                  int: 0
      - name: Frozen
        decorators:
          - name: dataclass
            args:
              - name: frozen
                bool: true
        fields:
          - name: value
            type: str
      - name: Settings
        decorators:
          - name: dataclass
            args:
              - name: kw_only
                bool: true
        fields:
          - name: debug
            type: bool
      - name: Secret
        decorators:
          - name: dataclass
        fields:
          - name: shown
            type: int
          - name: hidden
            type: str
            specifier:
              name: field
              args:
                - name: init
                  bool: false
          - name: renamed
            type: bytes
            specifier:
              name: field
              args:
                - name: alias
                  str: blob
      - name: Base
        decorators:
          - name: dataclass
        fields:
          - name: id
            type: int
      - name: Derived
        decorators:
          - name: dataclass
        bases: [Base]
        fields:
          - name: label
            type: str
      - name: Box
        type_params: [T]
        decorators:
          - name: dataclass
        fields:
          - name: value
            type: {typevar: T}
      - name: Plain
        fields:
          - name: x
            type: int
`

func loadClass(t *testing.T, e *Engine, name string) *decl.Class {
	t.Helper()
	cls, ok := e.table.Class(name)
	require.True(t, ok, "no class %s", name)
	return cls
}

func TestConstructorSynthesis(t *testing.T) {
	e := loadEngine(t, transformFixture)
	ctor := e.ConstructorFor(loadClass(t, e, "m.Point"))

	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "x", ctor.Params[0].Name)
	assert.False(t, ctor.Params[0].HasDefault)
	assert.Equal(t, "y", ctor.Params[1].Name)
	assert.True(t, ctor.Params[1].HasDefault)
	assert.True(t, types.Equal(ctor.Return, types.ClassOf("m.Point")))

	// synthesized once, cached afterwards
	again := e.ConstructorFor(loadClass(t, e, "m.Point"))
	assert.True(t, types.Equal(ctor, again))
}

func TestConstructorCall(t *testing.T) {
	t.Run("positional fields", func(t *testing.T) {
		e := loadEngine(t, transformFixture)
		got := e.CheckCall(call("m.Point", types.IntType), diag.NoPos{})
		assert.False(t, e.Errors().HasError(), "errors: %v", e.Errors().Errors())
		assert.True(t, types.Equal(got, types.ClassOf("m.Point")))
	})

	t.Run("defaulted field may be omitted", func(t *testing.T) {
		e := loadEngine(t, transformFixture)
		e.CheckCall(call("m.Point", types.IntType, types.IntType), diag.NoPos{})
		assert.False(t, e.Errors().HasError())
	})

	t.Run("missing required field", func(t *testing.T) {
		e := loadEngine(t, transformFixture)
		e.CheckCall(call("m.Point"), diag.NoPos{})
		assert.Contains(t, codes(e.Errors()), diag.MissingRequiredArgument)
	})

	t.Run("too many fields", func(t *testing.T) {
		e := loadEngine(t, transformFixture)
		e.CheckCall(call("m.Point", types.IntType, types.IntType, types.IntType), diag.NoPos{})
		assert.Contains(t, codes(e.Errors()), diag.ArgumentArity)
	})

	t.Run("wrong field type", func(t *testing.T) {
		e := loadEngine(t, transformFixture)
		e.CheckCall(call("m.Point", types.StrType), diag.NoPos{})
		assert.Contains(t, codes(e.Errors()), diag.IncompatibleArgument)
	})
}

func TestConstructorKwOnly(t *testing.T) {
	e := loadEngine(t, transformFixture)
	ctor := e.ConstructorFor(loadClass(t, e, "m.Settings"))
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, types.KeywordOnly, ctor.Params[0].Kind)

	e.CheckCall(call("m.Settings", types.BoolType), diag.NoPos{})
	assert.Contains(t, codes(e.Errors()), diag.TooManyPositional)
}

func TestConstructorFieldSpecifiers(t *testing.T) {
	e := loadEngine(t, transformFixture)
	ctor := e.ConstructorFor(loadClass(t, e, "m.Secret"))

	// init=false drops the field, alias renames its parameter
	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "shown", ctor.Params[0].Name)
	assert.Equal(t, "blob", ctor.Params[1].Name)
	assert.True(t, types.Equal(ctor.Params[1].Type, types.BytesType))
}

func TestConstructorInheritsTransformedBaseFields(t *testing.T) {
	e := loadEngine(t, transformFixture)
	ctor := e.ConstructorFor(loadClass(t, e, "m.Derived"))

	// base fields come first
	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "id", ctor.Params[0].Name)
	assert.Equal(t, "label", ctor.Params[1].Name)
}

func TestConstructorGenericClass(t *testing.T) {
	e := loadEngine(t, transformFixture)
	got := e.CheckCall(call("m.Box", types.IntType), diag.NoPos{})
	assert.False(t, e.Errors().HasError(), "errors: %v", e.Errors().Errors())
	want := types.Class{Name: "m.Box", Args: []types.Type{types.IntType}}
	assert.True(t, types.Equal(got, want), "got %s, want %s", got, want)
}

func TestConstructorPlainClass(t *testing.T) {
	e := loadEngine(t, transformFixture)
	ctor := e.ConstructorFor(loadClass(t, e, "m.Plain"))
	// no transform, no field-derived parameters
	assert.Empty(t, ctor.Params)
}

func TestSetAttrFrozen(t *testing.T) {
	e := loadEngine(t, transformFixture)
	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: types.ClassOf("m.Frozen"),
		Field:  "value",
		Value:  types.StrType,
	}, diag.NoPos{})
	assert.Contains(t, codes(e.Errors()), diag.ReadOnlyAssignment)
}

func TestSetAttrMutable(t *testing.T) {
	e := loadEngine(t, transformFixture)
	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: types.ClassOf("m.Point"),
		Field:  "x",
		Value:  types.BoolType,
	}, diag.NoPos{})
	assert.False(t, e.Errors().HasError())

	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: types.ClassOf("m.Point"),
		Field:  "x",
		Value:  types.StrType,
	}, diag.NoPos{})
	assert.Contains(t, codes(e.Errors()), diag.IncompatibleAssignment)
}

func TestSetAttrUnknownField(t *testing.T) {
	e := loadEngine(t, transformFixture)
	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: types.ClassOf("m.Point"),
		Field:  "z",
	}, diag.NoPos{})
	assert.Contains(t, codes(e.Errors()), diag.UndefinedName)
}

func TestSetAttrGenericField(t *testing.T) {
	e := loadEngine(t, transformFixture)
	box := types.Class{Name: "m.Box", Args: []types.Type{types.IntType}}

	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: box, Field: "value", Value: types.IntType,
	}, diag.NoPos{})
	assert.False(t, e.Errors().HasError(), "errors: %v", e.Errors().Errors())

	e.CheckSetAttr(&decl.SetAttrCheck{
		Object: box, Field: "value", Value: types.StrType,
	}, diag.NoPos{})
	assert.Contains(t, codes(e.Errors()), diag.IncompatibleAssignment)
}

func TestNonLiteralSpecifierFlag(t *testing.T) {
	e := loadEngine(t, `
modules:
  - name: m
    classes:
      - name: C
        decorators:
          - name: dataclass
        fields:
          - name: x
            type: int
            specifier:
              name: field
              args:
                - name: init
                  expr: compute()
`)
	e.ConstructorFor(loadClass(t, e, "m.C"))
	assert.Contains(t, codes(e.Errors()), diag.NonLiteralFlag)
}
