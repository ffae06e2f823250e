package decl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/match"
	"github.com/stilt-dev/stilt/frontend/types"
	"github.com/stilt-dev/stilt/internal/config"
	"github.com/stilt-dev/stilt/internal/log"
	"github.com/stilt-dev/stilt/util"
)

// Load builds the symbol table from a declaration document. Modules are
// loaded to completion in topological import order, so a module never reads
// a dependency that is still being mutated. The returned error is fatal and
// means no table could be built at all; everything else accumulates as
// diagnostics.
func Load(doc *Document, cfg config.Config) (*Table, *diag.Errors, error) {
	l := &loader{
		cfg:    cfg,
		table:  NewTable(),
		errs:   &diag.Errors{},
		logger: log.DefaultLogger.With("section", "loader"),
	}
	ordered, err := topoSort(doc.Modules)
	if err != nil {
		return nil, l.errs, err
	}
	for _, m := range ordered {
		l.loadModule(m)
	}
	l.computeTransforms()
	l.validateNames()
	return l.table, l.errs, nil
}

type loader struct {
	cfg    config.Config
	table  *Table
	errs   *diag.Errors
	logger *slog.Logger
}

func (l *loader) addError(d diag.Diagnostic) {
	l.logger.Warn("error while loading declarations", "message", d.Error())
	l.errs = l.errs.With(d)
}

// topoSort orders modules so imports come before importers. A cycle is the
// one fatal condition of the whole pass.
func topoSort(modules []ModuleDoc) ([]*ModuleDoc, error) {
	byName := make(map[string]*ModuleDoc, len(modules))
	for i := range modules {
		byName[modules[i].Name] = &modules[i]
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(modules))
	var ordered []*ModuleDoc
	var chain []string

	var visit func(m *ModuleDoc) error
	visit = func(m *ModuleDoc) error {
		switch state[m.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%s", diag.FormatWithCode(diag.New(diag.NewCyclicImport{
				Positioner: lineRange(m.Line),
				Chain:      append(append([]string{}, chain...), m.Name),
			})))
		}
		state[m.Name] = visiting
		chain = append(chain, m.Name)
		for _, imp := range m.Imports {
			if dep, ok := byName[imp]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		chain = chain[:len(chain)-1]
		state[m.Name] = done
		ordered = append(ordered, m)
		return nil
	}
	for i := range modules {
		if err := visit(&modules[i]); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// scope resolves the short names of one module while it loads.
type scope struct {
	module   string
	local    map[string]bool
	typeVars map[string]*types.TypeVar
}

var builtinShorthand = map[string]string{
	"object":   types.ObjectName,
	"int":      types.IntName,
	"float":    types.FloatName,
	"bool":     types.BoolName,
	"str":      types.StrName,
	"bytes":    types.BytesName,
	"None":     types.NoneName,
	"NoneType": types.NoneName,
	"list":     types.ListName,
	"dict":     types.DictName,
	"tuple":    types.TupleName,
}

func (s *scope) resolveName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if qualified, ok := builtinShorthand[name]; ok {
		return qualified
	}
	if s.local[name] {
		return s.module + "." + name
	}
	return name
}

// child layers extra type variables over the scope, shadowing outer ones.
func (s *scope) child(vars map[string]*types.TypeVar) *scope {
	merged := make(map[string]*types.TypeVar, len(s.typeVars)+len(vars))
	for k, v := range s.typeVars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return &scope{module: s.module, local: s.local, typeVars: merged}
}

func (l *loader) loadModule(doc *ModuleDoc) {
	l.logger.Debug("loading module", "module", doc.Name)
	sc := &scope{
		module:   doc.Name,
		local:    make(map[string]bool),
		typeVars: make(map[string]*types.TypeVar),
	}
	for _, c := range doc.Classes {
		sc.local[c.Name] = true
	}
	for _, f := range doc.Funcs {
		sc.local[f.Name] = true
	}
	for _, v := range doc.Vars {
		sc.local[v.Name] = true
	}
	for _, a := range doc.Aliases {
		sc.local[a.Name] = true
	}

	// templates for type variables; each use site instantiates its own copy
	// so distinct classes and signatures never share variable identity
	templates := make(map[string]TypeVarDoc, len(doc.TypeVars))
	for _, tv := range doc.TypeVars {
		templates[tv.Name] = tv
	}

	module := &Module{Name: doc.Name, Imports: doc.Imports, Range: lineRange(doc.Line)}

	for _, a := range doc.Aliases {
		alias := &Alias{
			QName:  doc.Name + "." + a.Name,
			Target: l.resolveType(a.Target, sc),
			Range:  lineRange(a.Line),
		}
		module.Aliases = append(module.Aliases, alias)
		l.table.addAlias(alias)
	}
	for _, c := range doc.Classes {
		cls := l.loadClass(c, sc, templates)
		module.Classes = append(module.Classes, cls)
		l.table.addClass(cls)
	}
	for _, f := range doc.Funcs {
		fn := l.loadFunc(f, sc, templates)
		module.Funcs = append(module.Funcs, fn)
		l.table.addFunc(fn)
	}
	for _, v := range doc.Vars {
		variable := &Var{
			QName: doc.Name + "." + v.Name,
			Type:  l.resolveType(v.Type, sc),
			Range: lineRange(v.Line),
		}
		module.Vars = append(module.Vars, variable)
		l.table.addVar(variable)
	}
	for _, c := range doc.Checks {
		module.Checks = append(module.Checks, l.loadCheck(c, sc))
	}
	l.table.addModule(module)
}

// instantiateVar builds a fresh type variable from a module-level template.
// An undeclared name still gets a variable so loading can continue.
func (l *loader) instantiateVar(name string, templates map[string]TypeVarDoc, sc *scope, pos Positioner) *types.TypeVar {
	template, ok := templates[name]
	if !ok {
		l.addError(diag.New(diag.NewUndefinedName{Positioner: pos, Name: name}))
		return l.table.fresher.NewTypeVar(name, nil, nil, types.Invariant)
	}
	var restriction []types.Type
	for _, node := range template.Restriction {
		restriction = append(restriction, l.resolveType(node, sc))
	}
	var bound types.Type
	if template.Bound != nil {
		bound = l.resolveType(*template.Bound, sc)
	}
	variance := types.Invariant
	switch template.Variance {
	case "covariant":
		variance = types.Covariant
	case "contravariant":
		variance = types.Contravariant
	}
	return l.table.fresher.NewTypeVar(name, restriction, bound, variance)
}

func (l *loader) loadClass(doc ClassDoc, sc *scope, templates map[string]TypeVarDoc) *Class {
	pos := lineRange(doc.Line)
	params := make([]*types.TypeVar, len(doc.TypeParams))
	paramScope := make(map[string]*types.TypeVar, len(doc.TypeParams))
	for i, name := range doc.TypeParams {
		params[i] = l.instantiateVar(name, templates, sc, pos)
		paramScope[name] = params[i]
	}
	inner := sc.child(paramScope)

	cls := &Class{
		QName:  sc.module + "." + doc.Name,
		Params: params,
		Range:  pos,
	}
	if doc.Metaclass != "" {
		cls.Metaclass = sc.resolveName(doc.Metaclass)
	}
	for _, base := range doc.Bases {
		resolved := l.resolveType(base, inner)
		if baseClass, ok := resolved.(types.Class); ok {
			cls.Bases = append(cls.Bases, baseClass)
		} else {
			l.addError(diag.New(diag.NewUndefinedName{Positioner: pos, Name: resolved.String()}))
		}
	}
	if len(cls.Bases) == 0 && cls.QName != types.ObjectName {
		cls.Bases = append(cls.Bases, types.ObjectType)
	}
	for _, m := range doc.Decorators {
		cls.Markers = append(cls.Markers, l.loadMarker(m, sc))
	}
	for _, f := range doc.Fields {
		field := Field{
			Name:  f.Name,
			Type:  l.resolveType(f.Type, inner),
			Range: lineRange(f.Line),
		}
		if f.Specifier != nil {
			marker := l.loadMarker(*f.Specifier, sc)
			field.Specifier = &marker
		}
		cls.Fields = append(cls.Fields, field)
	}
	return cls
}

func (l *loader) loadFunc(doc FuncDoc, sc *scope, templates map[string]TypeVarDoc) *Func {
	fn := &Func{
		QName: sc.module + "." + doc.Name,
		Range: lineRange(doc.Line),
	}
	for _, overload := range doc.Overloads {
		alt := Alternative{
			Sig:   l.resolveSignature(overload, sc, templates, fn.QName),
			Range: fn.Range,
		}
		for _, m := range overload.Decorators {
			alt.Markers = append(alt.Markers, l.loadMarker(m, sc))
		}
		if overload.MinVersion != "" {
			version, err := config.ParseVersion(overload.MinVersion)
			if err != nil {
				l.addError(diag.New(diag.Unclassified{From: err, Positioner: fn.Range}))
			} else {
				alt.MinVersion = version
			}
		}
		fn.Alternatives = append(fn.Alternatives, alt)
	}
	return fn
}

func (l *loader) resolveSignature(doc SignatureDoc, sc *scope, templates map[string]TypeVarDoc, name string) types.Callable {
	sigVars := make([]*types.TypeVar, len(doc.TypeVars))
	varScope := make(map[string]*types.TypeVar, len(doc.TypeVars))
	for i, tvName := range doc.TypeVars {
		sigVars[i] = l.instantiateVar(tvName, templates, sc, Range{})
		varScope[tvName] = sigVars[i]
	}
	inner := sc.child(varScope)

	params := make([]types.Param, len(doc.Params))
	for i, p := range doc.Params {
		kind := types.Positional
		if p.KwOnly {
			kind = types.KeywordOnly
		}
		params[i] = types.Param{
			Name:       p.Name,
			Kind:       kind,
			HasDefault: p.Default,
			Type:       l.resolveType(p.Type, inner),
		}
	}
	ret := types.Type(types.NoneType)
	if doc.Return != nil {
		ret = l.resolveType(*doc.Return, inner)
	}
	return types.Callable{Name: name, Params: params, Return: ret, Vars: sigVars}
}

func (l *loader) loadMarker(doc MarkerDoc, sc *scope) Marker {
	m := Marker{Name: sc.resolveName(doc.Name), Range: lineRange(doc.Line)}
	for _, a := range doc.Args {
		m.Args = append(m.Args, MarkerArg{Name: a.Name, Value: a.literal()})
	}
	return m
}

func (l *loader) resolveType(node TypeNode, sc *scope) types.Type {
	switch {
	case node.Any:
		return types.AnyType
	case node.Never:
		return types.NeverType
	case node.TypeVar != "":
		if tv, ok := sc.typeVars[node.TypeVar]; ok {
			return tv
		}
		l.addError(diag.New(diag.NewUndefinedName{Positioner: Range{}, Name: node.TypeVar}))
		return types.AnyType
	case len(node.Union) > 0:
		members := make([]types.Type, len(node.Union))
		for i, m := range node.Union {
			members[i] = l.resolveType(m, sc)
		}
		return types.MakeUnion(members...)
	case len(node.Tuple) > 0:
		items := make([]types.Type, len(node.Tuple))
		for i, item := range node.Tuple {
			items[i] = l.resolveType(item, sc)
		}
		return types.Tuple{Items: items}
	case node.Callable != nil:
		return l.resolveSignature(*node.Callable, sc, nil, "")
	case node.Class != "":
		// a bare scalar can also name a type variable in scope
		if tv, ok := sc.typeVars[node.Class]; ok && len(node.Args) == 0 {
			return tv
		}
		args := make([]types.Type, len(node.Args))
		for i, a := range node.Args {
			args[i] = l.resolveType(a, sc)
		}
		return types.Class{Name: sc.resolveName(node.Class), Args: args}
	}
	return types.AnyType
}

func (l *loader) loadCheck(doc CheckDoc, sc *scope) Check {
	pos := lineRange(doc.Line)
	switch {
	case doc.Call != nil:
		call := &CallCheck{Callee: sc.resolveName(doc.Call.Callee)}
		for _, a := range doc.Call.Args {
			call.Args = append(call.Args, l.resolveType(a, sc))
		}
		for _, kw := range doc.Call.Kwargs {
			for name, node := range kw {
				call.Kwargs = append(call.Kwargs, util.NewPair(name, l.resolveType(node, sc)))
			}
		}
		if doc.Call.Expect != nil {
			call.Expect = l.resolveType(*doc.Call.Expect, sc)
		}
		return Check{Kind: CheckCall, Call: call, Range: pos}
	case doc.Assign != nil:
		return Check{Kind: CheckAssign, Assign: &AssignCheck{
			Value:  l.resolveType(doc.Assign.Value, sc),
			Target: l.resolveType(doc.Assign.Target, sc),
		}, Range: pos}
	case doc.SetAttr != nil:
		check := &SetAttrCheck{
			Object: l.resolveType(doc.SetAttr.Object, sc),
			Field:  doc.SetAttr.Field,
		}
		if doc.SetAttr.Value != nil {
			check.Value = l.resolveType(*doc.SetAttr.Value, sc)
		}
		return Check{Kind: CheckSetAttr, SetAttr: check, Range: pos}
	case doc.Match != nil:
		check := &MatchCheck{Subject: l.resolveType(doc.Match.Subject, sc)}
		for _, arm := range doc.Match.Arms {
			check.Arms = append(check.Arms, MatchArm{
				Pattern:   l.loadPattern(arm.Pattern, sc),
				GuardRefs: arm.GuardRefs,
			})
		}
		for _, expected := range doc.Match.ExpectBindings {
			for name, node := range expected {
				check.ExpectBindings = append(check.ExpectBindings, util.NewPair(name, l.resolveType(node, sc)))
			}
		}
		if doc.Match.ExpectResidual != nil {
			check.ExpectResidual = l.resolveType(*doc.Match.ExpectResidual, sc)
		}
		return Check{Kind: CheckMatch, Match: check, Range: pos}
	case doc.Narrow != nil:
		check := &NarrowCheck{
			Name: doc.Narrow.Name,
			To:   l.resolveType(doc.Narrow.To, sc),
		}
		if doc.Narrow.Subject != nil {
			check.Subject = l.resolveType(*doc.Narrow.Subject, sc)
		}
		for _, opt := range []util.Pair[*TypeNode, *types.Type]{
			util.NewPair(doc.Narrow.ThenAssign, &check.ThenAssign),
			util.NewPair(doc.Narrow.ElseAssign, &check.ElseAssign),
			util.NewPair(doc.Narrow.ExpectThen, &check.ExpectThen),
			util.NewPair(doc.Narrow.ExpectElse, &check.ExpectElse),
			util.NewPair(doc.Narrow.ExpectJoin, &check.ExpectJoin),
		} {
			if opt.Fst != nil {
				*opt.Snd = l.resolveType(*opt.Fst, sc)
			}
		}
		return Check{Kind: CheckNarrow, Narrow: check, Range: pos}
	}
	return Check{Range: pos}
}

func (l *loader) loadPattern(doc PatternDoc, sc *scope) match.Pattern {
	switch {
	case doc.As != nil:
		return match.As{Name: doc.As.Name, Sub: l.loadPattern(doc.As.Sub, sc)}
	case doc.Value != nil:
		return match.Value{Type: l.resolveType(*doc.Value, sc)}
	case len(doc.Sequence) > 0:
		elems := make([]match.Pattern, len(doc.Sequence))
		for i, e := range doc.Sequence {
			elems[i] = l.loadPattern(e, sc)
		}
		return match.Sequence{Elems: elems}
	case doc.Mapping != nil:
		mapping := match.Mapping{Rest: doc.Mapping.Rest}
		for _, entry := range doc.Mapping.Entries {
			for key, sub := range entry {
				mapping.Entries = append(mapping.Entries, match.MapEntry{Key: key, Value: l.loadPattern(sub, sc)})
			}
		}
		return mapping
	default:
		return match.Capture{Name: doc.Capture}
	}
}

// computeTransforms decides, per class, whether a dataclass-like transform
// applies. Only the class's own markers, its direct metaclass and its direct
// bases are consulted; a metaclass inheriting from a transformer metaclass
// does not carry the transform onwards.
func (l *loader) computeTransforms() {
	for _, m := range l.table.modules {
		for _, cls := range m.Classes {
			l.computeTransform(cls)
		}
	}
	for _, m := range l.table.modules {
		for _, cls := range m.Classes {
			if cls.Frozen {
				for i := range cls.Fields {
					cls.Fields[i].ReadOnly = true
				}
			}
		}
	}
}

func (l *loader) computeTransform(cls *Class) {
	var use *Marker
	var transformer *Marker

	for i := range cls.Markers {
		m := &cls.Markers[i]
		if m.IsTransformMarker() {
			// the class is itself a transformer; validate its configuration
			// keys, but do not transform the class itself
			l.validateTransformArgs(m)
			continue
		}
		if l.markerAppliesTransform(m.Name) {
			cls.TransformApplies = true
			use = m
			transformer = l.transformMarkerOf(m.Name)
		}
	}
	if !cls.TransformApplies && cls.Metaclass != "" {
		if mc, ok := l.table.Class(cls.Metaclass); ok && mc.CarriesTransformMarker() {
			cls.TransformApplies = true
			transformer = findTransformMarker(mc.Markers)
		}
	}
	if !cls.TransformApplies {
		for _, base := range cls.Bases {
			if bc, ok := l.table.Class(base.Name); ok && bc.CarriesTransformMarker() {
				cls.TransformApplies = true
				transformer = findTransformMarker(bc.Markers)
				break
			}
		}
	}
	if !cls.TransformApplies {
		return
	}

	if transformer != nil {
		cls.Frozen = l.boolArg(transformer, "frozen_default", cls.Frozen)
		cls.KwOnly = l.boolArg(transformer, "kw_only_default", cls.KwOnly)
	}
	if use != nil {
		for _, arg := range use.Args {
			if !transformUseParams[arg.Name] {
				l.addError(diag.New(diag.NewUnrecognizedParameter{
					Positioner: use.Range,
					Param:      arg.Name,
					Marker:     use.Name,
				}))
			}
		}
		cls.Frozen = l.boolArg(use, "frozen", cls.Frozen)
		cls.KwOnly = l.boolArg(use, "kw_only", cls.KwOnly)
	}
}

// markerAppliesTransform recognizes the builtin dataclass decorator plus any
// declared function or class carrying the transform marker.
func (l *loader) markerAppliesTransform(name string) bool {
	if name == "dataclass" || strings.HasSuffix(name, ".dataclass") {
		return true
	}
	if fn, ok := l.table.Func(name); ok {
		return fn.IsTransformer()
	}
	if cls, ok := l.table.Class(name); ok {
		return cls.CarriesTransformMarker()
	}
	return false
}

// transformMarkerOf finds the dataclass_transform marker on the declaration
// a use-site marker refers to.
func (l *loader) transformMarkerOf(name string) *Marker {
	if fn, ok := l.table.Func(name); ok {
		for i := range fn.Alternatives {
			if m := findTransformMarker(fn.Alternatives[i].Markers); m != nil {
				return m
			}
		}
	}
	if cls, ok := l.table.Class(name); ok {
		return findTransformMarker(cls.Markers)
	}
	return nil
}

func findTransformMarker(markers []Marker) *Marker {
	for i := range markers {
		if markers[i].IsTransformMarker() {
			return &markers[i]
		}
	}
	return nil
}

func (l *loader) validateTransformArgs(m *Marker) {
	for _, arg := range m.Args {
		if !transformParams[arg.Name] {
			l.addError(diag.New(diag.NewUnrecognizedParameter{
				Positioner: m.Range,
				Param:      arg.Name,
				Marker:     m.Name,
			}))
		}
	}
}

// boolArg reads a flag that requires compile-time truth. A non-literal value
// is a diagnostic under strict mode and ignored otherwise.
func (l *loader) boolArg(m *Marker, name string, fallback bool) bool {
	value, ok := m.Arg(name)
	if !ok {
		return fallback
	}
	if value.Kind != LitBool {
		if l.cfg.StrictLiteralFlags {
			l.addError(diag.New(diag.NewNonLiteralFlag{
				Positioner: m.Range,
				Flag:       name,
				Callee:     m.Name,
			}))
		}
		return fallback
	}
	return value.Bool
}

// validateNames reports every class reference that resolves to nothing.
// Inference still runs afterwards; unknown names behave as Any.
func (l *loader) validateNames() {
	for _, m := range l.table.modules {
		seen := make(map[string]bool)
		report := func(name string, pos Positioner) {
			if seen[name] {
				return
			}
			seen[name] = true
			l.addError(diag.New(diag.NewUndefinedName{Positioner: pos, Name: name}))
		}
		var walk func(t types.Type, pos Positioner)
		walk = func(t types.Type, pos Positioner) {
			if cls, ok := t.(types.Class); ok {
				if _, found := l.table.ClassDef(cls.Name); !found {
					report(cls.Name, pos)
				}
			}
			for child := range types.Children(t) {
				walk(child, pos)
			}
		}
		for _, cls := range m.Classes {
			for _, base := range cls.Bases {
				walk(base, cls)
			}
			for _, f := range cls.Fields {
				walk(f.Type, f)
			}
		}
		for _, fn := range m.Funcs {
			for _, alt := range fn.Alternatives {
				walk(alt.Sig, alt)
			}
		}
		for _, v := range m.Vars {
			walk(v.Type, v)
		}
		for _, a := range m.Aliases {
			walk(a.Target, a)
		}
	}
}
