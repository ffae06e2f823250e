// Package checker drives a whole checking pass: it loads a declaration
// document into a symbol table and runs every module's checks against the
// inference engine, in import order.
package checker

import (
	"fmt"
	"log/slog"

	"github.com/stilt-dev/stilt/frontend/decl"
	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/frontend/infer"
	"github.com/stilt-dev/stilt/frontend/match"
	"github.com/stilt-dev/stilt/frontend/types"
	"github.com/stilt-dev/stilt/internal/config"
	"github.com/stilt-dev/stilt/internal/log"
)

// CheckFile loads the declaration document at path and checks it. The error
// is fatal (unreadable document or cyclic imports); everything else comes
// back as diagnostics.
func CheckFile(path string, cfg config.Config) (*diag.Errors, error) {
	doc, err := decl.LoadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return Check(doc, cfg)
}

func Check(doc *decl.Document, cfg config.Config) (*diag.Errors, error) {
	table, errs, err := decl.Load(doc, cfg)
	if err != nil {
		return errs, err
	}
	c := New(table, cfg)
	return errs.Merge(c.Run()), nil
}

// Checker runs the checks of every loaded module.
type Checker struct {
	table  *decl.Table
	cfg    config.Config
	engine *infer.Engine
	errs   *diag.Errors
	logger *slog.Logger
}

func New(table *decl.Table, cfg config.Config) *Checker {
	return &Checker{
		table:  table,
		cfg:    cfg,
		engine: infer.NewEngine(table, cfg),
		errs:   &diag.Errors{},
		logger: log.DefaultLogger.With("section", "narrow"),
	}
}

func (c *Checker) report(d diag.Diagnostic) {
	c.errs = c.errs.With(d)
}

// Run executes every check in every module, in topological import order.
// Names bound by match patterns stay in scope for the module's later checks.
func (c *Checker) Run() *diag.Errors {
	for _, m := range c.table.Modules() {
		scope := match.NewBindings()
		for i := range m.Checks {
			scope = c.runCheck(&m.Checks[i], scope)
		}
	}
	return c.errs.Merge(c.engine.Errors())
}

func (c *Checker) runCheck(check *decl.Check, scope match.Bindings) match.Bindings {
	switch check.Kind {
	case decl.CheckCall:
		result := c.engine.CheckCall(check.Call, check)
		if check.Call.Expect != nil && !types.Equivalent(c.table, result, check.Call.Expect) {
			c.report(diag.New(diag.Unclassified{
				Positioner: check,
				From: fmt.Errorf("call to '%s' has type '%s', expected '%s'",
					check.Call.Callee, result, check.Call.Expect),
			}))
		}
	case decl.CheckAssign:
		c.engine.CheckAssign(check.Assign, check)
	case decl.CheckSetAttr:
		c.engine.CheckSetAttr(check.SetAttr, check)
	case decl.CheckMatch:
		return c.checkMatch(check.Match, scope, check)
	case decl.CheckNarrow:
		return c.checkNarrow(check.Narrow, scope, check)
	}
	return scope
}

// checkNarrow splits the subject at an isinstance test: the then branch
// sees the narrowed type, the else branch the residual, and the two join
// back together after the statement.
func (c *Checker) checkNarrow(nc *decl.NarrowCheck, scope match.Bindings, pos decl.Positioner) match.Bindings {
	subject := nc.Subject
	if nc.Name != "" {
		if bound, ok := scope.Get(nc.Name); ok {
			subject = bound
		} else if subject == nil {
			c.report(diag.New(diag.NewUndefinedName{Positioner: pos, Name: nc.Name}))
			return scope
		}
	}
	if subject == nil {
		c.report(diag.New(diag.Unclassified{
			Positioner: pos,
			From:       fmt.Errorf("narrow check names no subject"),
		}))
		return scope
	}

	result := match.Match(c.table, subject, match.Value{Type: nc.To})
	thenType, elseType := result.Matched, result.Residual
	if nc.ThenAssign != nil {
		thenType = nc.ThenAssign
	}
	if nc.ElseAssign != nil {
		elseType = nc.ElseAssign
	}
	joined := types.Join(c.table, thenType, elseType)
	c.logger.Debug("isinstance split",
		"subject", subject.String(),
		"then", thenType.String(),
		"else", elseType.String(),
		"join", joined.String())

	for _, expect := range []struct {
		label string
		got   types.Type
		want  types.Type
	}{
		{"then branch", thenType, nc.ExpectThen},
		{"else branch", elseType, nc.ExpectElse},
		{"join", joined, nc.ExpectJoin},
	} {
		if expect.want != nil && !types.Equivalent(c.table, expect.got, expect.want) {
			c.report(diag.New(diag.Unclassified{
				Positioner: pos,
				From: fmt.Errorf("%s has type '%s', expected '%s'",
					expect.label, expect.got, expect.want),
			}))
		}
	}
	if nc.Name != "" {
		scope = scope.Set(nc.Name, joined)
	}
	return scope
}

// checkMatch narrows the subject arm by arm. Pattern bindings resolve before
// the arm's guard and leak into the enclosing scope whether or not the arm
// could run. A guarded arm does not narrow the residual, because its guard
// may reject at runtime.
func (c *Checker) checkMatch(mc *decl.MatchCheck, scope match.Bindings, pos decl.Positioner) match.Bindings {
	subject := mc.Subject
	for _, arm := range mc.Arms {
		result := match.Match(c.table, subject, arm.Pattern)
		c.logger.Debug("arm matched",
			"pattern", arm.Pattern.String(),
			"matched", result.Matched.String(),
			"residual", result.Residual.String())
		for itr := result.Bindings.Iterator(); !itr.Done(); {
			name, t, _ := itr.Next()
			scope = scope.Set(name, t)
		}
		for _, ref := range arm.GuardRefs {
			if _, ok := scope.Get(ref); !ok {
				c.report(diag.New(diag.NewGuardBeforeBinding{Positioner: pos, Name: ref}))
			}
		}
		if len(arm.GuardRefs) == 0 {
			subject = result.Residual
		}
	}

	for _, expect := range mc.ExpectBindings {
		got, ok := scope.Get(expect.Fst)
		switch {
		case !ok:
			c.report(diag.New(diag.Unclassified{
				Positioner: pos,
				From:       fmt.Errorf("match leaves no binding for '%s'", expect.Fst),
			}))
		case !types.Equivalent(c.table, got, expect.Snd):
			c.report(diag.New(diag.Unclassified{
				Positioner: pos,
				From: fmt.Errorf("match binds '%s' to '%s', expected '%s'",
					expect.Fst, got, expect.Snd),
			}))
		}
	}
	if mc.ExpectResidual != nil && !types.Equivalent(c.table, subject, mc.ExpectResidual) {
		c.report(diag.New(diag.Unclassified{
			Positioner: pos,
			From:       fmt.Errorf("match leaves residual '%s', expected '%s'", subject, mc.ExpectResidual),
		}))
	}
	return scope
}
