package execdata

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Loader reads one or more report files into a shared execution data store
// and session store. Loading several files merges their probe vectors, so a
// loader models "all coverage recorded for this build" regardless of how
// many dumps produced it.
type Loader struct {
	logger   *zap.Logger
	store    *Store
	sessions *SessionStore
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger:   logger,
		store:    NewStore(),
		sessions: NewSessionStore(),
	}
}

// Load reads the report at path into the loader's stores. The file handle is
// released on all paths.
func (l *Loader) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w: %w", path, ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	l.logger.Debug("Loading execution data", zap.String("path", path))

	reader := NewReader(bufio.NewReader(f))
	reader.SetExecutionVisitor(l.store)
	reader.SetSessionVisitor(l.sessions)
	if err := reader.Read(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (l *Loader) Store() *Store {
	return l.store
}

func (l *Loader) Sessions() *SessionStore {
	return l.sessions
}

// Save writes the merged contents of the loader to w as a fresh container:
// header, then sessions, then execution data.
func (l *Loader) Save(w *Writer) error {
	if err := l.sessions.Accept(w); err != nil {
		return err
	}
	return l.store.Accept(w)
}
