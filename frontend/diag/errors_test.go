package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCode(t *testing.T) {
	d := New(NewUndefinedName{Positioner: NoPos{}, Name: "zoo.Cat"})
	assert.Equal(t, "(E002) name 'zoo.Cat' is not defined", FormatWithCode(d))
}

func TestErrorsAccumulator(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())

	errs = errs.With(New(NewUndefinedName{Positioner: NoPos{}, Name: "x"}))
	assert.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 1)

	other := (&Errors{}).With(New(NewGuardBeforeBinding{Positioner: NoPos{}, Name: "y"}))
	merged := errs.Merge(other)
	require.Len(t, merged.Errors(), 2)
	assert.Equal(t, UndefinedName, merged.Errors()[0].Code())
	assert.Equal(t, GuardBeforeBinding, merged.Errors()[1].Code())
}

func TestEmitExpandsNotes(t *testing.T) {
	errs := (&Errors{}).With(New(NewConstraintViolation{
		Positioner: NoPos{},
		TypeVar:    "AnyStr",
		First:      "str | bytes",
		Second:     "one of str | bytes",
		Trail:      []string{"member 'bytes' is not assignable to 'str'"},
	}))

	sink := &SliceSink{}
	Emit(errs, sink)
	require.Len(t, sink.Reports, 2)
	assert.Equal(t, SeverityError, sink.Reports[0].Severity)
	assert.Equal(t, SeverityNote, sink.Reports[1].Severity)
	assert.Contains(t, sink.Reports[1].Message, "bytes")
}
