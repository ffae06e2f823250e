package decl

import (
	"github.com/stilt-dev/stilt/frontend/types"
)

// Table is the symbol table the checker reads: every loaded declaration
// keyed by qualified name. It is populated once by the Loader and read-only
// afterwards, so independent modules can be checked concurrently against it.
type Table struct {
	universe types.Universe
	modules  []*Module
	classes  map[string]*Class
	funcs    map[string]*Func
	vars     map[string]*Var
	aliases  map[string]*Alias
	fresher  *types.Fresher
}

var _ types.Classes = (*Table)(nil)

func NewTable() *Table {
	return &Table{
		universe: types.NewUniverse(),
		classes:  make(map[string]*Class),
		funcs:    make(map[string]*Func),
		vars:     make(map[string]*Var),
		aliases:  make(map[string]*Alias),
		fresher:  types.NewFresher(),
	}
}

// Fresher is the identity source for every type variable in the table.
func (t *Table) Fresher() *types.Fresher { return t.fresher }

// Modules returns loaded modules in topological import order.
func (t *Table) Modules() []*Module { return t.modules }

// ClassDef implements types.Classes: user classes shadow nothing, builtins
// fill the rest, and alias names resolve through to their target class.
func (t *Table) ClassDef(name string) (*types.ClassDef, bool) {
	if def, ok := t.universe.ClassDef(name); ok {
		return def, true
	}
	if alias, ok := t.aliases[name]; ok {
		if target, ok := alias.Target.(types.Class); ok {
			return t.ClassDef(target.Name)
		}
	}
	return nil, false
}

// Class looks up a class declaration by qualified name, resolving aliases.
func (t *Table) Class(name string) (*Class, bool) {
	if c, ok := t.classes[name]; ok {
		return c, true
	}
	if alias, ok := t.aliases[name]; ok {
		if target, ok := alias.Target.(types.Class); ok {
			return t.Class(target.Name)
		}
	}
	return nil, false
}

func (t *Table) Func(name string) (*Func, bool) {
	f, ok := t.funcs[name]
	return f, ok
}

func (t *Table) Var(name string) (*Var, bool) {
	v, ok := t.vars[name]
	return v, ok
}

// Lookup finds any declaration by qualified name.
func (t *Table) Lookup(name string) (Decl, bool) {
	if c, ok := t.classes[name]; ok {
		return c, true
	}
	if f, ok := t.funcs[name]; ok {
		return f, true
	}
	if v, ok := t.vars[name]; ok {
		return v, true
	}
	if a, ok := t.aliases[name]; ok {
		return a, true
	}
	return nil, false
}

// LookupField resolves a field on a class, walking the base-class graph in
// declaration order: the first declaration found wins.
func (t *Table) LookupField(className, field string) (*Field, *Class, bool) {
	visited := make(map[string]bool)
	return t.lookupField(className, field, visited)
}

func (t *Table) lookupField(className, field string, visited map[string]bool) (*Field, *Class, bool) {
	if visited[className] {
		return nil, nil, false
	}
	visited[className] = true
	cls, ok := t.Class(className)
	if !ok {
		return nil, nil, false
	}
	for i := range cls.Fields {
		if cls.Fields[i].Name == field {
			return &cls.Fields[i], cls, true
		}
	}
	for _, base := range cls.Bases {
		if f, owner, ok := t.lookupField(base.Name, field, visited); ok {
			return f, owner, true
		}
	}
	return nil, nil, false
}

func (t *Table) addModule(m *Module) {
	t.modules = append(t.modules, m)
}

func (t *Table) addClass(c *Class) {
	t.classes[c.QName] = c
	bases := make([]types.Class, len(c.Bases))
	copy(bases, c.Bases)
	t.universe.Add(types.NewClassDef(c.QName, c.Params, bases...))
}

func (t *Table) addFunc(f *Func)   { t.funcs[f.QName] = f }
func (t *Table) addVar(v *Var)     { t.vars[v.QName] = v }
func (t *Table) addAlias(a *Alias) { t.aliases[a.QName] = a }
