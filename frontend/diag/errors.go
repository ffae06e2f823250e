package diag

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes diagnostics include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None          ErrCode = iota
	CyclicImport  ErrCode = iota
	UndefinedName
	ArgumentArity
	TooManyPositional
	MissingRequiredArgument
	UnknownKeyword
	ConstraintViolation
	NonLiteralFlag
	UnrecognizedParameter
	ReadOnlyAssignment
	GuardBeforeBinding
	IncompatibleArgument
	IncompatibleAssignment
	NotCallable
)

type Diagnostic interface {
	Error() string
	Code() ErrCode
	Positioner

	withStack([]byte) Diagnostic
	getStack() []byte
}

// Noter is implemented by diagnostics which carry secondary notes,
// reported at severity note rather than error.
type Noter interface {
	Notes() []string
}

func FormatWithCode(e Diagnostic) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E Diagnostic](err E) Diagnostic {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

// NewCyclicImport is the only fatal diagnostic: the symbol table cannot be
// built at all, so the whole pass aborts.
type NewCyclicImport struct {
	Positioner
	Chain []string
	stack []byte
}

func (e NewCyclicImport) Error() string {
	return fmt.Sprintf("cyclic module imports: %s", strings.Join(e.Chain, " -> "))
}
func (e NewCyclicImport) Code() ErrCode    { return CyclicImport }
func (e NewCyclicImport) getStack() []byte { return e.stack }
func (e NewCyclicImport) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewUndefinedName struct {
	Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedName) Error() string {
	return fmt.Sprintf("name '%s' is not defined", e.Name)
}
func (e NewUndefinedName) Code() ErrCode    { return UndefinedName }
func (e NewUndefinedName) getStack() []byte { return e.stack }
func (e NewUndefinedName) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewArgumentArity struct {
	Positioner
	Callee string
	Want   int
	Got    int
	stack  []byte
}

func (e NewArgumentArity) Error() string {
	return fmt.Sprintf("'%s' takes %d arguments but %d were given", e.Callee, e.Want, e.Got)
}
func (e NewArgumentArity) Code() ErrCode    { return ArgumentArity }
func (e NewArgumentArity) getStack() []byte { return e.stack }
func (e NewArgumentArity) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewTooManyPositional struct {
	Positioner
	Callee string
	Want   int
	Got    int
	stack  []byte
}

func (e NewTooManyPositional) Error() string {
	return fmt.Sprintf("'%s' takes at most %d positional arguments but %d were given", e.Callee, e.Want, e.Got)
}
func (e NewTooManyPositional) Code() ErrCode    { return TooManyPositional }
func (e NewTooManyPositional) getStack() []byte { return e.stack }
func (e NewTooManyPositional) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewMissingRequiredArgument struct {
	Positioner
	Callee string
	Param  string
	stack  []byte
}

func (e NewMissingRequiredArgument) Error() string {
	return fmt.Sprintf("missing required argument '%s' in call to '%s'", e.Param, e.Callee)
}
func (e NewMissingRequiredArgument) Code() ErrCode    { return MissingRequiredArgument }
func (e NewMissingRequiredArgument) getStack() []byte { return e.stack }
func (e NewMissingRequiredArgument) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewUnknownKeyword struct {
	Positioner
	Callee  string
	Keyword string
	stack   []byte
}

func (e NewUnknownKeyword) Error() string {
	return fmt.Sprintf("unexpected keyword argument '%s' in call to '%s'", e.Keyword, e.Callee)
}
func (e NewUnknownKeyword) Code() ErrCode    { return UnknownKeyword }
func (e NewUnknownKeyword) getStack() []byte { return e.stack }
func (e NewUnknownKeyword) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

// NewConstraintViolation reports a type variable binding which does not fit
// its bound or restriction set. First and Second are rendered types; Trail
// carries the assignability reason trail as notes.
type NewConstraintViolation struct {
	Positioner
	TypeVar string
	First   string
	Second  string
	Trail   []string
	stack   []byte
}

func (e NewConstraintViolation) Error() string {
	return fmt.Sprintf("cannot bind type variable '%s': inferred '%s' does not satisfy '%s'", e.TypeVar, e.First, e.Second)
}
func (e NewConstraintViolation) Code() ErrCode    { return ConstraintViolation }
func (e NewConstraintViolation) Notes() []string  { return e.Trail }
func (e NewConstraintViolation) getStack() []byte { return e.stack }
func (e NewConstraintViolation) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewNonLiteralFlag struct {
	Positioner
	Flag   string
	Callee string
	stack  []byte
}

func (e NewNonLiteralFlag) Error() string {
	return fmt.Sprintf("'%s' argument to '%s' must be a literal", e.Flag, e.Callee)
}
func (e NewNonLiteralFlag) Code() ErrCode    { return NonLiteralFlag }
func (e NewNonLiteralFlag) getStack() []byte { return e.stack }
func (e NewNonLiteralFlag) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewUnrecognizedParameter struct {
	Positioner
	Param  string
	Marker string
	stack  []byte
}

func (e NewUnrecognizedParameter) Error() string {
	return fmt.Sprintf("unrecognized parameter '%s' for '%s'", e.Param, e.Marker)
}
func (e NewUnrecognizedParameter) Code() ErrCode    { return UnrecognizedParameter }
func (e NewUnrecognizedParameter) getStack() []byte { return e.stack }
func (e NewUnrecognizedParameter) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewReadOnlyAssignment struct {
	Positioner
	Class string
	Field string
	stack []byte
}

func (e NewReadOnlyAssignment) Error() string {
	return fmt.Sprintf("cannot assign to field '%s' of frozen class '%s'", e.Field, e.Class)
}
func (e NewReadOnlyAssignment) Code() ErrCode    { return ReadOnlyAssignment }
func (e NewReadOnlyAssignment) getStack() []byte { return e.stack }
func (e NewReadOnlyAssignment) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

// NewIncompatibleArgument reports an argument whose type does not fit its
// parameter. Got and Want are rendered types; Trail carries the
// assignability reason trail as notes.
type NewIncompatibleArgument struct {
	Positioner
	Callee string
	Param  string
	Got    string
	Want   string
	Trail  []string
	stack  []byte
}

func (e NewIncompatibleArgument) Error() string {
	return fmt.Sprintf("argument '%s' to '%s' has incompatible type '%s'; expected '%s'", e.Param, e.Callee, e.Got, e.Want)
}
func (e NewIncompatibleArgument) Code() ErrCode    { return IncompatibleArgument }
func (e NewIncompatibleArgument) Notes() []string  { return e.Trail }
func (e NewIncompatibleArgument) getStack() []byte { return e.stack }
func (e NewIncompatibleArgument) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewIncompatibleAssignment struct {
	Positioner
	Got   string
	Want  string
	Trail []string
	stack []byte
}

func (e NewIncompatibleAssignment) Error() string {
	return fmt.Sprintf("incompatible assignment: '%s' is not assignable to '%s'", e.Got, e.Want)
}
func (e NewIncompatibleAssignment) Code() ErrCode    { return IncompatibleAssignment }
func (e NewIncompatibleAssignment) Notes() []string  { return e.Trail }
func (e NewIncompatibleAssignment) getStack() []byte { return e.stack }
func (e NewIncompatibleAssignment) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewNotCallable struct {
	Positioner
	Name  string
	stack []byte
}

func (e NewNotCallable) Error() string {
	return fmt.Sprintf("'%s' is not callable", e.Name)
}
func (e NewNotCallable) Code() ErrCode    { return NotCallable }
func (e NewNotCallable) getStack() []byte { return e.stack }
func (e NewNotCallable) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewGuardBeforeBinding struct {
	Positioner
	Name  string
	stack []byte
}

func (e NewGuardBeforeBinding) Error() string {
	return fmt.Sprintf("guard references '%s' before the pattern binds it", e.Name)
}
func (e NewGuardBeforeBinding) Code() ErrCode    { return GuardBeforeBinding }
func (e NewGuardBeforeBinding) getStack() []byte { return e.stack }
func (e NewGuardBeforeBinding) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}
