package decl

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original declaration
// document. The easiest way to be a Positioner is to embed a Range
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range locates a declaration in its document. Declaration documents are
// line-oriented, so positions count lines rather than byte offsets.
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }
func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("line %v", r.PosStart)
	}
	return fmt.Sprintf("lines %v-%v", r.PosStart, r.PosEnd)
}

func RangeOf(p Positioner) Range {
	return Range{PosStart: p.Pos(), PosEnd: p.End()}
}

func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

func lineRange(line int) Range {
	return Range{PosStart: token.Pos(line), PosEnd: token.Pos(line)}
}
