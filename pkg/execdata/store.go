package execdata

import (
	"sort"
	"sync"
)

// Store accumulates execution data keyed by class identity. It is populated
// by a single decode pass and is safe for concurrent lookups afterwards, so
// one populated store can back many parallel analysis calls.
type Store struct {
	mu      sync.RWMutex
	entries map[uint64]*ExecutionData
}

var _ ExecutionVisitor = (*Store)(nil)

func NewStore() *Store {
	return &Store{entries: make(map[uint64]*ExecutionData)}
}

// Record stores the vector on first occurrence of an identity and merges by
// per-position logical OR on repeats. Merging vectors of different lengths
// fails with ErrInconsistentProbeCount.
// Thread safe.
func (s *Store) Record(data *ExecutionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.entries[data.ID]; cur != nil {
		return cur.Merge(data)
	}
	s.entries[data.ID] = data
	return nil
}

// VisitExecution makes Store the execution sink of a Reader.
func (s *Store) VisitExecution(data *ExecutionData) error {
	return s.Record(data)
}

// Get returns the merged probe vector for a class identity. A missing entry
// is a normal outcome: the class was never instrumented or never executed.
// Thread safe.
func (s *Store) Get(id uint64) (*ExecutionData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[id]
	return data, ok
}

// Len returns the number of distinct classes observed.
// Thread safe.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Contents returns all entries ordered by class name, then identity.
// Thread safe.
func (s *Store) Contents() []*ExecutionData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*ExecutionData, 0, len(s.entries))
	for _, data := range s.entries {
		entries = append(entries, data)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Accept replays the store contents into a visitor in Contents order.
// Thread safe.
func (s *Store) Accept(visitor ExecutionVisitor) error {
	for _, data := range s.Contents() {
		if err := visitor.VisitExecution(data); err != nil {
			return err
		}
	}
	return nil
}

// SessionStore accumulates session descriptors in stream order.
type SessionStore struct {
	mu       sync.RWMutex
	sessions []SessionInfo
}

var _ SessionVisitor = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// VisitSession makes SessionStore the session sink of a Reader.
// Thread safe.
func (s *SessionStore) VisitSession(info SessionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, info)
	return nil
}

// Sessions returns the recorded sessions in observation order.
// Thread safe.
func (s *SessionStore) Sessions() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionInfo, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Accept replays the recorded sessions into a visitor.
// Thread safe.
func (s *SessionStore) Accept(visitor SessionVisitor) error {
	for _, info := range s.Sessions() {
		if err := visitor.VisitSession(info); err != nil {
			return err
		}
	}
	return nil
}
