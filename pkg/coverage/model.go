// Package coverage maps recorded probe vectors onto the structure of
// compiled classes and aggregates the outcome into a queryable per-class,
// per-line coverage model.
package coverage

import (
	"errors"
	"sort"
)

// ErrSealedBuilder reports an Add on a builder whose result was already
// finalized.
var ErrSealedBuilder = errors.New("coverage builder is sealed")

// LineStatus is the tri-state coverage classification of one source line.
type LineStatus uint8

const (
	// StatusNotCovered means the line has instrumentation points and
	// none were reached.
	StatusNotCovered LineStatus = iota
	// StatusPartlyCovered means some but not all points were reached.
	StatusPartlyCovered
	// StatusFullyCovered means every point on the line was reached.
	StatusFullyCovered
)

func (s LineStatus) String() string {
	switch s {
	case StatusNotCovered:
		return "not covered"
	case StatusPartlyCovered:
		return "partly covered"
	case StatusFullyCovered:
		return "fully covered"
	default:
		return "unknown"
	}
}

// Counter is a covered/missed pair.
type Counter struct {
	Covered int
	Missed  int
}

func (c Counter) Total() int {
	return c.Covered + c.Missed
}

func (c Counter) add(other Counter) Counter {
	return Counter{
		Covered: c.Covered + other.Covered,
		Missed:  c.Missed + other.Missed,
	}
}

// LineCoverage is the analysis outcome for a single source line. Lines
// without instrumentation points never appear in a result.
type LineCoverage struct {
	Status LineStatus

	// Probes counts the instrumentation points mapping to the line.
	Probes Counter

	// Branches counts the branch outcomes on the line. Zero total when
	// the line's control flow has no conditional branches.
	Branches Counter
}

// UnitCoverage is the coverage of one compiled class.
type UnitCoverage struct {
	// ID is the content-derived class identity.
	ID uint64

	// Name is the VM name of the class.
	Name string

	// Path identifies the input the class bytes came from. Empty for
	// in-memory buffers.
	Path string

	// Lines maps source line numbers to their coverage.
	Lines map[int]LineCoverage
}

// LineNumbers returns the covered-model line numbers in ascending order.
func (u *UnitCoverage) LineNumbers() []int {
	lines := make([]int, 0, len(u.Lines))
	for line := range u.Lines {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// LineCounter sums lines: a line counts as covered when at least one of its
// points was reached.
func (u *UnitCoverage) LineCounter() Counter {
	var c Counter
	for _, line := range u.Lines {
		if line.Status == StatusNotCovered {
			c.Missed++
		} else {
			c.Covered++
		}
	}
	return c
}

// BranchCounter sums branch outcomes over all lines.
func (u *UnitCoverage) BranchCounter() Counter {
	var c Counter
	for _, line := range u.Lines {
		c = c.add(line.Branches)
	}
	return c
}

// ProbePoint is one instrumentation point of a compiled unit.
type ProbePoint struct {
	// Line is the source line the point maps to, or -1 when the class
	// carries no debug information for it.
	Line int

	// Branch is the branch group the point is an outcome of, or -1 for
	// points that are not branch outcomes. Points sharing a group belong
	// to the same conditional instruction.
	Branch int
}

// UnitStructure describes the instrumentation points of one compiled unit in
// the exact order instrumentation assigned them.
type UnitStructure struct {
	// ID is the content-derived identity used to look up the recorded
	// probe vector.
	ID uint64

	// Name is the VM name of the unit.
	Name string

	// Points lists the instrumentation points in assignment order.
	Points []ProbePoint
}

// StructureExtractor reconstructs the instrumentation structure of a
// compiled unit from its binary form. Implementations must emit points in
// instrumentation assignment order; the analyzer consumes one recorded probe
// per point.
type StructureExtractor interface {
	Extract(classBytes []byte) (*UnitStructure, error)
}
