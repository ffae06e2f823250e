package infer

import (
	"log/slog"

	"github.com/stilt-dev/stilt/frontend/decl"
	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/types"
	"github.com/stilt-dev/stilt/internal/config"
	"github.com/stilt-dev/stilt/internal/log"
)

// Engine infers result types for call sites against the symbol table and
// accumulates diagnostics as it goes. One engine checks one table; it is not
// safe for concurrent use because overload checking shares the fresher.
type Engine struct {
	table  *decl.Table
	cfg    config.Config
	errs   *diag.Errors
	logger *slog.Logger
}

func NewEngine(table *decl.Table, cfg config.Config) *Engine {
	return &Engine{
		table:  table,
		cfg:    cfg,
		errs:   &diag.Errors{},
		logger: log.DefaultLogger.With("section", "infer"),
	}
}

func (e *Engine) Errors() *diag.Errors { return e.errs }

func (e *Engine) report(ds ...diag.Diagnostic) {
	for _, d := range ds {
		e.logger.Debug("diagnostic", "message", d.Error())
		e.errs = e.errs.With(d)
	}
}

// CheckCall infers the result type of a call site. Overload groups are tried
// in declaration order and the first alternative that checks cleanly wins;
// when none does, the diagnostics of the first alternative are reported.
// Failed resolution degrades to Any so checking can continue.
func (e *Engine) CheckCall(call *decl.CallCheck, pos decl.Positioner) types.Type {
	sigs, ok := e.calleeSignatures(call.Callee, pos)
	if !ok {
		return types.AnyType
	}
	var firstFailure []diag.Diagnostic
	for _, sig := range sigs {
		result, ds := e.checkCallAgainst(sig, call, pos)
		if len(ds) == 0 {
			e.logger.Debug("call checked", "callee", call.Callee, "result", result.String())
			return result
		}
		if firstFailure == nil {
			firstFailure = ds
		}
	}
	e.report(firstFailure...)
	return types.AnyType
}

// calleeSignatures resolves a callee name to the signatures to try. A name
// of type Any is callable with anything and produces no signatures.
func (e *Engine) calleeSignatures(name string, pos decl.Positioner) ([]types.Callable, bool) {
	if cls, ok := e.table.Class(name); ok {
		return []types.Callable{e.ConstructorFor(cls)}, true
	}
	if fn, ok := e.table.Func(name); ok {
		visible := fn.Visible(e.cfg.PythonVersion)
		if len(visible) == 0 {
			e.report(diag.New(diag.NewNotCallable{Positioner: pos, Name: name}))
			return nil, false
		}
		sigs := make([]types.Callable, len(visible))
		for i, alt := range visible {
			sigs[i] = alt.Sig
		}
		return sigs, true
	}
	if v, ok := e.table.Var(name); ok {
		if types.IsAny(v.Type) {
			return nil, false
		}
		if sig, ok := v.Type.(types.Callable); ok {
			return []types.Callable{sig}, true
		}
		e.report(diag.New(diag.NewNotCallable{Positioner: pos, Name: name}))
		return nil, false
	}
	e.report(diag.New(diag.NewUndefinedName{Positioner: pos, Name: name}))
	return nil, false
}

// checkCallAgainst checks one call against one signature. The returned
// diagnostics belong to this alternative only; the caller decides whether
// they surface.
func (e *Engine) checkCallAgainst(sig types.Callable, call *decl.CallCheck, pos decl.Positioner) (types.Type, []diag.Diagnostic) {
	fresh := e.table.Fresher().Instantiate(sig)
	name := call.Callee
	var ds []diag.Diagnostic

	positional := make([]int, 0, len(fresh.Params))
	byName := make(map[string]int, len(fresh.Params))
	for i, p := range fresh.Params {
		if p.Kind == types.Positional {
			positional = append(positional, i)
		}
		byName[p.Name] = i
	}

	if len(call.Args) > len(positional) {
		if len(positional) < len(fresh.Params) {
			ds = append(ds, diag.New(diag.NewTooManyPositional{
				Positioner: pos, Callee: name,
				Want: len(positional), Got: len(call.Args),
			}))
		} else {
			ds = append(ds, diag.New(diag.NewArgumentArity{
				Positioner: pos, Callee: name,
				Want: len(fresh.Params), Got: len(call.Args),
			}))
		}
		return types.AnyType, ds
	}

	bound := make(map[int]types.Type, len(fresh.Params))
	for i, arg := range call.Args {
		bound[positional[i]] = arg
	}
	for _, kw := range call.Kwargs {
		idx, ok := byName[kw.Fst]
		if !ok {
			ds = append(ds, diag.New(diag.NewUnknownKeyword{
				Positioner: pos, Callee: name, Keyword: kw.Fst,
			}))
			continue
		}
		if _, taken := bound[idx]; taken {
			ds = append(ds, diag.New(diag.NewArgumentArity{
				Positioner: pos, Callee: name,
				Want: len(fresh.Params), Got: len(call.Args) + len(call.Kwargs),
			}))
			continue
		}
		bound[idx] = kw.Snd
	}
	for i, p := range fresh.Params {
		if _, ok := bound[i]; !ok && !p.HasDefault {
			ds = append(ds, diag.New(diag.NewMissingRequiredArgument{
				Positioner: pos, Callee: name, Param: p.Name,
			}))
		}
	}
	if len(ds) > 0 {
		return types.AnyType, ds
	}

	var constraints []Constraint
	for i, p := range fresh.Params {
		if arg, ok := bound[i]; ok {
			constraints = append(constraints, Constraints(e.table, p.Type, arg, SupertypeOf)...)
		}
	}
	bindings, violations := Solve(e.table, fresh.Vars, constraints)
	for _, v := range violations {
		ds = append(ds, diag.New(diag.NewConstraintViolation{
			Positioner: pos,
			TypeVar:    v.Var.Name,
			First:      v.Got,
			Second:     v.Want,
			Trail:      v.Trail,
		}))
	}
	if len(ds) > 0 {
		return types.AnyType, ds
	}

	for i, p := range fresh.Params {
		arg, ok := bound[i]
		if !ok {
			continue
		}
		want := types.Substitute(p.Type, bindings)
		if ok, trail := types.ExplainAssignable(e.table, arg, want); !ok {
			ds = append(ds, diag.New(diag.NewIncompatibleArgument{
				Positioner: pos,
				Callee:     name,
				Param:      p.Name,
				Got:        arg.String(),
				Want:       want.String(),
				Trail:      trail,
			}))
		}
	}
	if len(ds) > 0 {
		return types.AnyType, ds
	}
	return types.Substitute(fresh.Return, bindings), nil
}

// CheckAssign checks a plain assignment of a value type to a target type.
func (e *Engine) CheckAssign(check *decl.AssignCheck, pos decl.Positioner) {
	if ok, trail := types.ExplainAssignable(e.table, check.Value, check.Target); !ok {
		e.report(diag.New(diag.NewIncompatibleAssignment{
			Positioner: pos,
			Got:        check.Value.String(),
			Want:       check.Target.String(),
			Trail:      trail,
		}))
	}
}

// CheckSetAttr checks an attribute assignment: the field must exist, must
// not be read-only, and the value must fit the field's type as seen from the
// object's instantiation.
func (e *Engine) CheckSetAttr(check *decl.SetAttrCheck, pos decl.Positioner) {
	if types.IsAny(check.Object) {
		return
	}
	obj, ok := check.Object.(types.Class)
	if !ok {
		e.report(diag.New(diag.NewUndefinedName{
			Positioner: pos, Name: check.Object.String() + "." + check.Field,
		}))
		return
	}
	field, owner, ok := e.table.LookupField(obj.Name, check.Field)
	if !ok {
		e.report(diag.New(diag.NewUndefinedName{
			Positioner: pos, Name: obj.Name + "." + check.Field,
		}))
		return
	}
	if field.ReadOnly {
		e.report(diag.New(diag.NewReadOnlyAssignment{
			Positioner: pos, Class: owner.QName, Field: check.Field,
		}))
		return
	}
	if check.Value == nil {
		return
	}
	want := field.Type
	if mapped, ok := types.MapToSupertype(e.table, obj, owner.QName); ok {
		bindings := make(types.Bindings, len(owner.Params))
		for i, p := range owner.Params {
			if i < len(mapped.Args) {
				bindings[p.ID] = mapped.Args[i]
			}
		}
		want = types.Substitute(want, bindings)
	}
	if ok, trail := types.ExplainAssignable(e.table, check.Value, want); !ok {
		e.report(diag.New(diag.NewIncompatibleAssignment{
			Positioner: pos,
			Got:        check.Value.String(),
			Want:       want.String(),
			Trail:      trail,
		}))
	}
}
