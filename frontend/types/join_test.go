package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	env := testEnv(t)
	animal := ClassOf("m.Animal")
	dog := ClassOf("m.Dog")
	puppy := ClassOf("m.Puppy")

	testCases := []struct {
		name string
		a    Type
		b    Type
		want Type
	}{
		{name: "identical", a: IntType, b: IntType, want: IntType},
		{name: "any absorbs", a: AnyType, b: IntType, want: AnyType},
		{name: "never is identity", a: NeverType, b: IntType, want: IntType},
		{name: "subclass collapses up", a: BoolType, b: IntType, want: IntType},
		{name: "siblings meet at their base", a: dog, b: puppy, want: dog},
		{name: "deep common base", a: puppy, b: animal, want: animal},
		{name: "unrelated classes union", a: IntType, b: StrType, want: MakeUnion(IntType, StrType)},
		{
			name: "same class joins args",
			a:    boxOf(dog),
			b:    boxOf(puppy),
			want: boxOf(dog),
		},
		{
			name: "tuples join pointwise",
			a:    Tuple{Items: []Type{BoolType, StrType}},
			b:    Tuple{Items: []Type{IntType, StrType}},
			want: Tuple{Items: []Type{IntType, StrType}},
		},
		{
			name: "union member subsumed",
			a:    MakeUnion(BoolType, StrType),
			b:    IntType,
			want: MakeUnion(IntType, StrType),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Join(env, tc.a, tc.b)
			assert.True(t, Equal(got, tc.want), "got %s, want %s", got, tc.want)
			// join is symmetric
			flipped := Join(env, tc.b, tc.a)
			assert.True(t, Equal(flipped, tc.want), "flipped: got %s, want %s", flipped, tc.want)
		})
	}
}

func TestJoinAll(t *testing.T) {
	env := testEnv(t)
	assert.True(t, IsNever(JoinAll(env)))
	got := JoinAll(env, BoolType, IntType, StrType)
	assert.True(t, Equal(got, MakeUnion(IntType, StrType)), "got %s", got)
}

func TestJoinTypeVar(t *testing.T) {
	env := testEnv(t)
	f := NewFresher()
	restricted := f.NewTypeVar("AnyStr", []Type{StrType, BytesType}, nil, Invariant)
	got := Join(env, restricted, StrType)
	// the variable widens to its restriction union before joining
	assert.True(t, Equal(got, MakeUnion(StrType, BytesType)), "got %s", got)

	bounded := f.NewTypeVar("N", nil, IntType, Invariant)
	got = Join(env, bounded, IntType)
	assert.True(t, Equal(got, IntType), "got %s", got)
}
