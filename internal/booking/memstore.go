package booking

import (
	"context"
	"sync"

	"github.com/caretrain/session-booking/internal/model"
)

// MemStore is an in-memory Store.  Each session carries its own mutex,
// so updates to one session are serialized while different sessions
// proceed in parallel, matching the ordering guarantees of the SQL
// store.  It backs the engine tests, including the concurrency ones.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[uint64]*memSession
}

type memSession struct {
	mu        sync.Mutex
	session   model.Session
	attendees map[uint64]model.Attendee // keyed by user id
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: map[uint64]*memSession{}}
}

// PutSession inserts or replaces a session.  Existing attendee rows are
// preserved on replace.
func (m *MemStore) PutSession(sess model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.sessions[sess.ID]; ok {
		ms.mu.Lock()
		ms.session = sess
		ms.mu.Unlock()
		return
	}
	m.sessions[sess.ID] = &memSession{session: sess, attendees: map[uint64]model.Attendee{}}
}

// PutAttendee seeds an attendee row directly, bypassing the engine.
// Intended for test fixtures only.
func (m *MemStore) PutAttendee(a model.Attendee) {
	m.mu.RLock()
	ms := m.sessions[a.SessionID]
	m.mu.RUnlock()
	if ms == nil {
		return
	}
	ms.mu.Lock()
	ms.attendees[a.UserID] = a
	ms.mu.Unlock()
}

func (m *MemStore) lookup(sessionID uint64) (*memSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return ms, nil
}

// View implements Store.
func (m *MemStore) View(ctx context.Context, sessionID uint64) (*Snapshot, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.snapshot(), nil
}

// Update implements Store.  The per-session mutex is the critical
// section; fn sees a private copy of the rows and its returned rows are
// written back under the same lock, so no interleaving can observe a
// partially applied operation.
func (m *MemStore) Update(ctx context.Context, sessionID uint64, fn func(snap *Snapshot) ([]model.Attendee, error)) error {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	changed, err := fn(ms.snapshot())
	if err != nil {
		return err
	}
	for _, a := range changed {
		ms.attendees[a.UserID] = a
	}
	return nil
}

// snapshot copies the session and rows so fn cannot mutate shared state
// behind the store's back.  Caller must hold ms.mu.
func (ms *memSession) snapshot() *Snapshot {
	snap := &Snapshot{
		Session:   ms.session,
		Attendees: make([]model.Attendee, 0, len(ms.attendees)),
	}
	for _, a := range ms.attendees {
		snap.Attendees = append(snap.Attendees, a)
	}
	return snap
}
