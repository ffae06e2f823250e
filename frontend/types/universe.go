package types

// Qualified names of the builtin classes every declaration set can rely on.
const (
	ObjectName   = "builtins.object"
	IntName      = "builtins.int"
	FloatName    = "builtins.float"
	BoolName     = "builtins.bool"
	StrName      = "builtins.str"
	BytesName    = "builtins.bytes"
	NoneName     = "builtins.NoneType"
	ListName     = "builtins.list"
	DictName     = "builtins.dict"
	TupleName    = "builtins.tuple"
	FunctionName = "builtins.function"
)

var (
	ObjectType = Class{Name: ObjectName}
	IntType    = Class{Name: IntName}
	FloatType  = Class{Name: FloatName}
	BoolType   = Class{Name: BoolName}
	StrType    = Class{Name: StrName}
	BytesType  = Class{Name: BytesName}
	NoneType   = Class{Name: NoneName}
)

func ListOf(elem Type) Class {
	return Class{Name: ListName, Args: []Type{elem}}
}

func DictOf(key, value Type) Class {
	return Class{Name: DictName, Args: []Type{key, value}}
}

// NewUniverse returns a class index seeded with the builtin hierarchy.
// bool subclasses int, matching the source ecosystem.
func NewUniverse() Universe {
	fresher := NewFresher()
	u := make(Universe, 16)
	object := NewClassDef(ObjectName, nil)
	u.Add(object)
	for _, name := range []string{IntName, FloatName, StrName, BytesName, NoneName, TupleName, FunctionName} {
		u.Add(NewClassDef(name, nil, ObjectType))
	}
	u.Add(NewClassDef(BoolName, nil, IntType))

	listElem := fresher.NewTypeVar("_T", nil, nil, Invariant)
	u.Add(NewClassDef(ListName, []*TypeVar{listElem}, ObjectType))

	dictKey := fresher.NewTypeVar("_KT", nil, nil, Invariant)
	dictVal := fresher.NewTypeVar("_VT", nil, nil, Invariant)
	u.Add(NewClassDef(DictName, []*TypeVar{dictKey, dictVal}, ObjectType))
	return u
}
