package infer

import (
	"github.com/stilt-dev/stilt/frontend/decl"
	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/types"
)

// ConstructorFor returns the class's constructor signature, synthesizing and
// caching it on first use. Transformed classes get a parameter per field;
// everything else gets the bare no-argument constructor.
func (e *Engine) ConstructorFor(cls *decl.Class) types.Callable {
	if cls.Ctor != nil {
		return *cls.Ctor
	}
	var ctor types.Callable
	if cls.TransformApplies {
		ctor = e.synthesizeCtor(cls)
	} else {
		ctor = types.Callable{Name: cls.QName, Return: cls.Instance(), Vars: cls.Params}
	}
	cls.Ctor = &ctor
	return ctor
}

// synthesizeCtor builds the field-derived constructor of a transformed
// class. Fields from transformed bases come first, redeclared fields keep
// their original position, and keyword-only parameters sort after the
// positional ones.
func (e *Engine) synthesizeCtor(cls *decl.Class) types.Callable {
	var params []types.Param
	var kwParams []types.Param
	for _, f := range e.ctorFields(cls, make(map[string]bool)) {
		p, include := e.fieldParam(cls, f)
		if !include {
			continue
		}
		if p.Kind == types.KeywordOnly {
			kwParams = append(kwParams, p)
		} else {
			params = append(params, p)
		}
	}
	return types.Callable{
		Name:   cls.QName,
		Params: append(params, kwParams...),
		Return: cls.Instance(),
		Vars:   cls.Params,
	}
}

// ctorFields collects the constructor-relevant fields of a class: inherited
// fields from transformed bases in base-list order, then the class's own,
// with a redeclared name overriding in place. Base field types are rewritten
// into the subclass's type arguments.
func (e *Engine) ctorFields(cls *decl.Class, visited map[string]bool) []decl.Field {
	if visited[cls.QName] {
		return nil
	}
	visited[cls.QName] = true

	var ordered []decl.Field
	index := make(map[string]int)
	add := func(f decl.Field) {
		if i, ok := index[f.Name]; ok {
			ordered[i] = f
			return
		}
		index[f.Name] = len(ordered)
		ordered = append(ordered, f)
	}

	for _, base := range cls.Bases {
		bc, ok := e.table.Class(base.Name)
		if !ok || !bc.TransformApplies {
			continue
		}
		bindings := make(types.Bindings, len(bc.Params))
		for i, p := range bc.Params {
			if i < len(base.Args) {
				bindings[p.ID] = base.Args[i]
			}
		}
		for _, f := range e.ctorFields(bc, visited) {
			f.Type = types.Substitute(f.Type, bindings)
			add(f)
		}
	}
	for _, f := range cls.Fields {
		add(f)
	}
	return ordered
}

// fieldParam turns one field into a constructor parameter, reading its
// specifier flags. Flags must be literals; under strict mode a non-literal
// flag is a diagnostic, otherwise it silently keeps the default.
func (e *Engine) fieldParam(cls *decl.Class, f decl.Field) (types.Param, bool) {
	name := f.Name
	init := true
	kwOnly := cls.KwOnly
	hasDefault := false

	if spec := f.Specifier; spec != nil {
		init = e.boolFlag(spec, "init", init)
		kwOnly = e.boolFlag(spec, "kw_only", kwOnly)
		if _, ok := spec.Arg("default"); ok {
			hasDefault = true
		}
		if _, ok := spec.Arg("default_factory"); ok {
			hasDefault = true
		}
		if alias, ok := spec.Arg("alias"); ok {
			if alias.Kind == decl.LitString {
				name = alias.Str
			} else if e.cfg.StrictLiteralFlags {
				e.report(diag.New(diag.NewNonLiteralFlag{
					Positioner: spec, Flag: "alias", Callee: spec.Name,
				}))
			}
		}
	}
	if !init {
		return types.Param{}, false
	}
	kind := types.Positional
	if kwOnly {
		kind = types.KeywordOnly
	}
	return types.Param{Name: name, Kind: kind, HasDefault: hasDefault, Type: f.Type}, true
}

func (e *Engine) boolFlag(m *decl.Marker, name string, fallback bool) bool {
	value, ok := m.Arg(name)
	if !ok {
		return fallback
	}
	if value.Kind != decl.LitBool {
		if e.cfg.StrictLiteralFlags {
			e.report(diag.New(diag.NewNonLiteralFlag{
				Positioner: m, Flag: name, Callee: m.Name,
			}))
		}
		return fallback
	}
	return value.Bool
}
