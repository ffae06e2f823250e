package types

import (
	"sort"

	"github.com/xtgo/set"
)

// byHash orders types by their structural hash, which gives unions a
// deterministic canonical member order.
type byHash []Type

func (s byHash) Len() int           { return len(s) }
func (s byHash) Less(i, j int) bool { return s[i].Hash() < s[j].Hash() }
func (s byHash) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// MakeUnion builds the canonical union of members: nested unions are
// flattened, Never is dropped, Any absorbs everything, duplicates collapse
// and the result is sorted. A single survivor is returned unwrapped.
func MakeUnion(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	for _, m := range members {
		switch m := m.(type) {
		case anyType:
			return AnyType
		case neverType:
			// identity element
		case Union:
			flat = append(flat, m.Members...)
		default:
			flat = append(flat, m)
		}
	}
	if len(flat) == 0 {
		return NeverType
	}
	sort.Sort(byHash(flat))
	flat = flat[:set.Uniq(byHash(flat))]
	if len(flat) == 1 {
		return flat[0]
	}
	return Union{Members: flat}
}

// UnionMembers views any type as a union: a non-union is its own single
// member.
func UnionMembers(t Type) []Type {
	if u, ok := t.(Union); ok {
		return u.Members
	}
	return []Type{t}
}

// Remove narrows t by taking away every alternative assignable to removed.
// Non-union types either disappear entirely or stay unchanged.
func Remove(env Classes, t Type, removed Type) Type {
	members := UnionMembers(t)
	kept := make([]Type, 0, len(members))
	for _, m := range members {
		if !AssignableTo(env, m, removed) {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(members) {
		return t
	}
	return MakeUnion(kept...)
}
