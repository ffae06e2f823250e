package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stilt-dev/stilt/frontend/types"
)

func testEnv(t *testing.T) types.Universe {
	t.Helper()
	u := types.NewUniverse()
	u.Add(types.NewClassDef("m.MyStr", nil, types.StrType))
	animal := types.NewClassDef("m.Animal", nil, types.ObjectType)
	u.Add(animal)
	u.Add(types.NewClassDef("m.Dog", nil, animal.Instance()))
	return u
}

func TestConstraints(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	tv := f.NewTypeVar("T", nil, nil, types.Invariant)

	t.Run("variable template", func(t *testing.T) {
		cs := Constraints(env, tv, types.IntType, SupertypeOf)
		require.Len(t, cs, 1)
		assert.Equal(t, SupertypeOf, cs[0].Op)
		assert.True(t, types.Equal(cs[0].Target, types.IntType))
	})

	t.Run("through an invariant class", func(t *testing.T) {
		cs := Constraints(env, types.ListOf(tv), types.ListOf(types.IntType), SupertypeOf)
		// invariance constrains in both directions
		require.Len(t, cs, 2)
		assert.True(t, types.Equal(cs[0].Target, types.IntType))
		assert.True(t, types.Equal(cs[1].Target, types.IntType))
		assert.NotEqual(t, cs[0].Op, cs[1].Op)
	})

	t.Run("through a base class", func(t *testing.T) {
		env := testEnv(t)
		boxParam := f.NewTypeVar("E", nil, nil, types.Covariant)
		box := types.NewClassDef("m.Box", []*types.TypeVar{boxParam}, types.ObjectType)
		env.Add(box)
		env.Add(types.NewClassDef("m.IntBox", nil, types.Class{
			Name: "m.Box", Args: []types.Type{types.IntType},
		}))

		cs := Constraints(env, types.Class{Name: "m.Box", Args: []types.Type{tv}},
			types.ClassOf("m.IntBox"), SupertypeOf)
		require.Len(t, cs, 1)
		assert.True(t, types.Equal(cs[0].Target, types.IntType))
	})

	t.Run("callable parameters negate", func(t *testing.T) {
		template := types.Callable{
			Params: []types.Param{{Name: "x", Type: tv}},
			Return: tv,
		}
		actual := types.Callable{
			Params: []types.Param{{Name: "x", Type: types.IntType}},
			Return: types.BoolType,
		}
		cs := Constraints(env, template, actual, SupertypeOf)
		require.Len(t, cs, 2)
		assert.Equal(t, SubtypeOf, cs[0].Op)
		assert.Equal(t, SupertypeOf, cs[1].Op)
	})

	t.Run("union actual constrains per member", func(t *testing.T) {
		cs := Constraints(env, tv, types.MakeUnion(types.IntType, types.StrType), SupertypeOf)
		assert.Len(t, cs, 2)
	})

	t.Run("never actual constrains nothing", func(t *testing.T) {
		assert.Empty(t, Constraints(env, tv, types.NeverType, SupertypeOf))
	})
}

func TestSolveLowerBoundIsJoin(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	tv := f.NewTypeVar("T", nil, nil, types.Invariant)

	bindings, violations := Solve(env, []*types.TypeVar{tv}, []Constraint{
		{Var: tv, Op: SupertypeOf, Target: types.ClassOf("m.Dog")},
		{Var: tv, Op: SupertypeOf, Target: types.ClassOf("m.Animal")},
	})
	require.Empty(t, violations)
	assert.True(t, types.Equal(bindings[tv.ID], types.ClassOf("m.Animal")))
}

func TestSolvePromotesRestrictedVariable(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	anyStr := f.NewTypeVar("AnyStr", []types.Type{types.StrType, types.BytesType}, nil, types.Invariant)

	t.Run("exact candidate", func(t *testing.T) {
		bindings, violations := Solve(env, []*types.TypeVar{anyStr}, []Constraint{
			{Var: anyStr, Op: SupertypeOf, Target: types.BytesType},
		})
		require.Empty(t, violations)
		assert.True(t, types.Equal(bindings[anyStr.ID], types.BytesType))
	})

	t.Run("subclass promotes to the candidate", func(t *testing.T) {
		bindings, violations := Solve(env, []*types.TypeVar{anyStr}, []Constraint{
			{Var: anyStr, Op: SupertypeOf, Target: types.ClassOf("m.MyStr")},
		})
		require.Empty(t, violations)
		// never the subclass itself
		assert.True(t, types.Equal(bindings[anyStr.ID], types.StrType))
	})

	t.Run("declaration order decides ties", func(t *testing.T) {
		// object fits no candidate, Never fits the first
		ordered := f.NewTypeVar("S", []types.Type{types.StrType, types.ObjectType}, nil, types.Invariant)
		bindings, violations := Solve(env, []*types.TypeVar{ordered}, []Constraint{
			{Var: ordered, Op: SupertypeOf, Target: types.ClassOf("m.MyStr")},
		})
		require.Empty(t, violations)
		assert.True(t, types.Equal(bindings[ordered.ID], types.StrType))
	})

	t.Run("no candidate fits", func(t *testing.T) {
		_, violations := Solve(env, []*types.TypeVar{anyStr}, []Constraint{
			{Var: anyStr, Op: SupertypeOf, Target: types.StrType},
			{Var: anyStr, Op: SupertypeOf, Target: types.IntType},
		})
		require.Len(t, violations, 1)
		assert.Equal(t, "AnyStr", violations[0].Var.Name)
	})
}

func TestSolveBoundedVariable(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	bounded := f.NewTypeVar("N", nil, types.IntType, types.Invariant)

	t.Run("within bound", func(t *testing.T) {
		bindings, violations := Solve(env, []*types.TypeVar{bounded}, []Constraint{
			{Var: bounded, Op: SupertypeOf, Target: types.BoolType},
		})
		require.Empty(t, violations)
		// the bound checks the value, it does not replace it
		assert.True(t, types.Equal(bindings[bounded.ID], types.BoolType))
	})

	t.Run("violates bound", func(t *testing.T) {
		_, violations := Solve(env, []*types.TypeVar{bounded}, []Constraint{
			{Var: bounded, Op: SupertypeOf, Target: types.StrType},
		})
		require.Len(t, violations, 1)
		assert.NotEmpty(t, violations[0].Trail)
	})
}

func TestSolveUnconstrained(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	tv := f.NewTypeVar("T", nil, nil, types.Invariant)

	bindings, violations := Solve(env, []*types.TypeVar{tv}, nil)
	require.Empty(t, violations)
	assert.True(t, types.IsAny(bindings[tv.ID]))
}

func TestSolveAnyPropagates(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	anyStr := f.NewTypeVar("AnyStr", []types.Type{types.StrType, types.BytesType}, nil, types.Invariant)

	bindings, violations := Solve(env, []*types.TypeVar{anyStr}, []Constraint{
		{Var: anyStr, Op: SupertypeOf, Target: types.AnyType},
	})
	require.Empty(t, violations)
	assert.True(t, types.IsAny(bindings[anyStr.ID]))
}

func TestSolveUpperConstraint(t *testing.T) {
	env := testEnv(t)
	f := types.NewFresher()
	tv := f.NewTypeVar("T", nil, nil, types.Invariant)

	_, violations := Solve(env, []*types.TypeVar{tv}, []Constraint{
		{Var: tv, Op: SupertypeOf, Target: types.StrType},
		{Var: tv, Op: SubtypeOf, Target: types.IntType},
	})
	require.Len(t, violations, 1)
	assert.Equal(t, "str", violations[0].Got)
}
