package coverage

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jvmcov/jvmcov/pkg/execdata"
)

// Analyzer projects the probe vectors of a populated execution data store
// onto the structure of compiled classes. The store must be fully populated
// before analysis starts; the analyzer only reads it, so one analyzer may
// serve many concurrent analysis calls.
type Analyzer struct {
	store     *execdata.Store
	extractor StructureExtractor
	logger    *zap.Logger
}

func NewAnalyzer(store *execdata.Store, extractor StructureExtractor, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// AnalyzeClass computes the line and branch coverage of one compiled class
// supplied as raw bytes. A class with no recorded probe data gets zero
// coverage: it was never instrumented or never executed, which is a normal
// outcome. A recorded vector whose length disagrees with the class
// structure fails with ErrInconsistentProbeCount.
// Thread safe.
func (a *Analyzer) AnalyzeClass(classBytes []byte, path string) (*UnitCoverage, error) {
	structure, err := a.extractor.Extract(classBytes)
	if err != nil {
		return nil, err
	}

	var probes []bool
	if data, ok := a.store.Get(structure.ID); ok {
		if len(data.Probes) != len(structure.Points) {
			return nil, fmt.Errorf(
				"%w: class %s (id %016x) declares %d instrumentation points, report has %d probes",
				execdata.ErrInconsistentProbeCount,
				structure.Name, structure.ID, len(structure.Points), len(data.Probes))
		}
		probes = data.Probes
	}

	unit := &UnitCoverage{
		ID:    structure.ID,
		Name:  structure.Name,
		Path:  path,
		Lines: make(map[int]LineCoverage),
	}

	for i, point := range structure.Points {
		hit := probes != nil && probes[i]
		if point.Line < 0 {
			// No debug information: the probe is consumed but cannot
			// be mapped to a line.
			continue
		}
		line := unit.Lines[point.Line]
		if hit {
			line.Probes.Covered++
		} else {
			line.Probes.Missed++
		}
		if point.Branch >= 0 {
			if hit {
				line.Branches.Covered++
			} else {
				line.Branches.Missed++
			}
		}
		unit.Lines[point.Line] = line
	}

	for number, line := range unit.Lines {
		switch {
		case line.Probes.Covered == 0:
			line.Status = StatusNotCovered
		case line.Probes.Missed == 0:
			line.Status = StatusFullyCovered
		default:
			line.Status = StatusPartlyCovered
		}
		unit.Lines[number] = line
	}

	a.logger.Debug("Analyzed class",
		zap.String("name", structure.Name),
		zap.Int("points", len(structure.Points)),
		zap.Bool("executed", probes != nil),
	)
	return unit, nil
}

// AnalyzeFile reads one class file and analyzes it.
// Thread safe.
func (a *Analyzer) AnalyzeFile(path string) (*UnitCoverage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w: %w", path, execdata.ErrUnreadable, err)
	}
	return a.AnalyzeClass(b, path)
}
