package coverage

import (
	"sort"
	"sync"
)

// Builder accumulates per-unit results keyed by class identity. Concurrent
// Add calls are legal; Finalize seals the builder and returns the immutable
// snapshot, idempotently.
type Builder struct {
	mu     sync.Mutex
	units  map[uint64]*UnitCoverage
	result *Result
}

func NewBuilder() *Builder {
	return &Builder{units: make(map[uint64]*UnitCoverage)}
}

// Add records one unit result. A repeated identity replaces the earlier
// entry. Adding to a finalized builder fails with ErrSealedBuilder.
// Thread safe.
func (b *Builder) Add(unit *UnitCoverage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result != nil {
		return ErrSealedBuilder
	}
	b.units[unit.ID] = unit
	return nil
}

// Finalize seals the builder and returns the coverage result. Repeated
// calls return the same snapshot.
// Thread safe.
func (b *Builder) Finalize() *Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result != nil {
		return b.result
	}

	units := make([]*UnitCoverage, 0, len(b.units))
	byID := make(map[uint64]*UnitCoverage, len(b.units))
	for _, unit := range b.units {
		units = append(units, unit)
		byID[unit.ID] = unit
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].Name != units[j].Name {
			return units[i].Name < units[j].Name
		}
		return units[i].ID < units[j].ID
	})

	b.result = &Result{units: units, byID: byID}
	return b.result
}

// Result is the finalized coverage model: all analyzed units, ordered by
// class name. It is immutable.
type Result struct {
	units []*UnitCoverage
	byID  map[uint64]*UnitCoverage
}

// Units returns the analyzed units in class name order.
func (r *Result) Units() []*UnitCoverage {
	return r.units
}

// Unit looks up one unit by class identity.
func (r *Result) Unit(id uint64) (*UnitCoverage, bool) {
	unit, ok := r.byID[id]
	return unit, ok
}

// LineCounter sums line coverage over all units.
func (r *Result) LineCounter() Counter {
	var c Counter
	for _, unit := range r.units {
		c = c.add(unit.LineCounter())
	}
	return c
}

// BranchCounter sums branch coverage over all units.
func (r *Result) BranchCounter() Counter {
	var c Counter
	for _, unit := range r.units {
		c = c.add(unit.BranchCounter())
	}
	return c
}
