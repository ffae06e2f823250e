package diag

import "go/token"

type Severity int

const (
	SeverityError Severity = iota
	SeverityNote
)

func (s Severity) String() string {
	if s == SeverityNote {
		return "note"
	}
	return "error"
}

// Report is what the reporting sink consumes: a location, a message and a
// severity. Notes always follow the error they belong to.
type Report struct {
	Pos      token.Pos
	End      token.Pos
	Message  string
	Severity Severity
}

type Sink interface {
	Report(Report)
}

// Emit flattens accumulated diagnostics into the sink, expanding secondary
// notes after their parent error.
func Emit(errs *Errors, sink Sink) {
	for _, d := range errs.Errors() {
		sink.Report(Report{
			Pos:      d.Pos(),
			End:      d.End(),
			Message:  FormatWithCode(d),
			Severity: SeverityError,
		})
		if noter, ok := d.(Noter); ok {
			for _, note := range noter.Notes() {
				sink.Report(Report{
					Pos:      d.Pos(),
					End:      d.End(),
					Message:  note,
					Severity: SeverityNote,
				})
			}
		}
	}
}

// SliceSink collects reports in order, mostly for tests.
type SliceSink struct {
	Reports []Report
}

func (s *SliceSink) Report(r Report) {
	s.Reports = append(s.Reports, r)
}
