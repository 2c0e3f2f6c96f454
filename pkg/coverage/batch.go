package coverage

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jvmcov/jvmcov/pkg/execdata"
)

// Warning reports one compiled unit that could not be analyzed. Warnings do
// not abort a batch; the caller decides whether they escalate to failure.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// BatchResult is the outcome of analyzing a collection of class files:
// the finalized coverage model of the units that analyzed cleanly, plus one
// warning per unit that did not.
type BatchResult struct {
	Result   *Result
	Warnings []Warning
}

// AnalyzeAll analyzes the class files at the given paths against the shared
// store using up to jobs workers (GOMAXPROCS when jobs <= 0). Unparseable
// or unreadable class files become warnings; an inconsistent probe count is
// fatal and aborts the batch, because it means the report was recorded
// against different class files than the ones supplied.
func (a *Analyzer) AnalyzeAll(ctx context.Context, paths []string, jobs int) (*BatchResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Per-index slots, so workers never share state beyond the read-only
	// store.
	units := make([]*UnitCoverage, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := a.AnalyzeFile(path)
			if err != nil {
				if errors.Is(err, execdata.ErrInconsistentProbeCount) {
					return err
				}
				failures[i] = err
				return nil
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := NewBuilder()
	batch := &BatchResult{}
	for i, path := range paths {
		if failures[i] != nil {
			a.logger.Warn("Skipping class file",
				zap.String("path", path),
				zap.Error(failures[i]),
			)
			batch.Warnings = append(batch.Warnings, Warning{Path: path, Err: failures[i]})
			continue
		}
		if err := builder.Add(units[i]); err != nil {
			return nil, err
		}
	}
	batch.Result = builder.Finalize()
	return batch, nil
}
