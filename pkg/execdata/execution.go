package execdata

import (
	"fmt"
	"time"
)

// ExecutionData is the probe vector recorded for a single class. Probes are
// ordered exactly as the instrumentation assigned them; position i tells
// whether instrumentation point i was reached in at least one session.
type ExecutionData struct {
	// ID is the content-derived identity of the class, a CRC-64 checksum
	// over the class file bytes.
	ID uint64

	// Name is the VM name of the class, e.g. "org/example/Foo".
	Name string

	// Probes holds one flag per instrumentation point.
	Probes []bool
}

// Merge folds other into e by per-position logical OR. Both vectors must
// describe the same class and have equal length.
func (e *ExecutionData) Merge(other *ExecutionData) error {
	if e.Name != other.Name {
		return fmt.Errorf("%w: class name mismatch for id %016x: %q vs %q",
			ErrMalformed, e.ID, e.Name, other.Name)
	}
	if len(e.Probes) != len(other.Probes) {
		return fmt.Errorf("%w: class %s (id %016x) has %d probes, got %d",
			ErrInconsistentProbeCount, e.Name, e.ID, len(e.Probes), len(other.Probes))
	}
	for i, hit := range other.Probes {
		if hit {
			e.Probes[i] = true
		}
	}
	return nil
}

// Hits returns the number of probes that were reached.
func (e *ExecutionData) Hits() int {
	n := 0
	for _, hit := range e.Probes {
		if hit {
			n++
		}
	}
	return n
}

// SessionInfo describes one recorded execution run contributing probe data.
type SessionInfo struct {
	ID    string
	Start time.Time
	Dump  time.Time
}

// ExecutionVisitor receives execution data blocks in stream order.
type ExecutionVisitor interface {
	VisitExecution(data *ExecutionData) error
}

// SessionVisitor receives session info blocks in stream order.
type SessionVisitor interface {
	VisitSession(info SessionInfo) error
}
