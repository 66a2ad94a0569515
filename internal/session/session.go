package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/koperasichain/backend/internal/domain/member"
	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
)

// Session pins one connected identity and owns its snapshot. Refreshes are
// tagged with a generation token; only the newest started refresh may
// commit, so a slow stale load can never overwrite a newer snapshot.
type Session struct {
	ID      uuid.UUID
	Address string

	mu       sync.Mutex
	gen      uint64
	snapshot *member.Snapshot
}

// Begin starts a refresh and returns its generation token.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Commit installs a snapshot if token still belongs to the newest refresh.
// Superseded results are discarded and Commit reports false.
func (s *Session) Commit(token uint64, snap *member.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		return false
	}
	s.snapshot = snap
	return true
}

// Snapshot returns the last committed snapshot, nil before the first
// successful refresh.
func (s *Session) Snapshot() *member.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Registry owns session lifecycle: created on connect, dropped on
// disconnect or identity change.
type Registry struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{byID: map[uuid.UUID]*Session{}}
}

// Connect creates a session for the identity. When previous is a known
// session it is invalidated first; in-flight refreshes for it can no longer
// commit anywhere visible.
func (r *Registry) Connect(address string, previous uuid.UUID) (*Session, error) {
	if !ledger.ValidAddress(address) {
		return nil, &fault.ValidationError{Field: "address", Reason: "malformed ledger address"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if previous != uuid.Nil {
		delete(r.byID, previous)
	}
	s := &Session{
		ID:      uuid.New(),
		Address: ledger.NormalizeAddress(address),
	}
	r.byID[s.ID] = s
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) Drop(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// ByAddress returns every live session for an identity.
func (r *Registry) ByAddress(address string) []*Session {
	address = ledger.NormalizeAddress(address)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, 1)
	for _, s := range r.byID {
		if s.Address == address {
			out = append(out, s)
		}
	}
	return out
}
