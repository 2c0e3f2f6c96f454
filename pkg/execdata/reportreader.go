package execdata

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// ReportReader reads a single coverage report file through caller-supplied
// visitors. An empty path is the valid "no coverage recorded for this run"
// state: construction and Read both succeed trivially.
type ReportReader struct {
	path   string
	logger *zap.Logger
}

// NewReportReader verifies the report format eagerly, before any full read
// is attempted, so an incompatible or corrupt file fails at construction.
// A path that does not exist means no coverage was recorded for this run and
// degrades to the empty-path state.
func NewReportReader(path string, logger *zap.Logger) (*ReportReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No coverage report found", zap.String("path", path))
			path = ""
		} else if err := ValidateFile(path); err != nil {
			return nil, err
		}
	}
	return &ReportReader{path: path, logger: logger}, nil
}

// Read streams the report into the visitors. Either visitor may be nil.
func (r *ReportReader) Read(exec ExecutionVisitor, sess SessionVisitor) error {
	if r.path == "" {
		return nil
	}

	r.logger.Info("Analysing coverage report", zap.String("path", r.path))

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w: %w", r.path, ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	reader := NewReader(bufio.NewReader(f))
	reader.SetExecutionVisitor(exec)
	reader.SetSessionVisitor(sess)
	if err := reader.Read(); err != nil {
		return fmt.Errorf("%s: %w", r.path, err)
	}
	return nil
}
