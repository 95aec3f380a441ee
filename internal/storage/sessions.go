package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nebulagames/story-relay/pkg/story"
)

// ErrSessionNotFound is returned when a choice arrives for a player
// with no session, e.g. an out-of-order or replayed webhook. Callers
// must not fabricate a session in response.
var ErrSessionNotFound = errors.New("player session not found")

// SessionStore owns per-player narrative state. All mutation goes
// through Update, which holds a per-player lock so concurrent webhook
// handlers for the same player cannot interleave read-modify-write
// sequences. No ordering is guaranteed across different players.
type SessionStore interface {
	// Get returns a copy of the player's session, or ErrSessionNotFound.
	Get(ctx context.Context, playerID string) (*story.Session, error)

	// GetOrCreate returns the existing session or creates one at the
	// starting scene. The bool reports whether a session was created.
	GetOrCreate(ctx context.Context, playerID, startScene string) (*story.Session, bool, error)

	// Update applies fn to the player's session under the per-player
	// lock and persists the result. Returns ErrSessionNotFound if the
	// player has no session. The returned session is a copy of the
	// stored state after the update.
	Update(ctx context.Context, playerID string, fn func(*story.Session) error) (*story.Session, error)

	Ping(ctx context.Context) error
	Close() error
}

// MemorySessionStore keeps sessions in process memory. Sessions live
// for the lifetime of the process; there is no eviction.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*story.Session
	locks    map[string]*sync.Mutex
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*story.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// playerLock returns the mutex serializing access to one player's
// session, creating it on first use.
func (m *MemorySessionStore) playerLock(playerID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[playerID] = l
	}
	return l
}

func (m *MemorySessionStore) Get(ctx context.Context, playerID string) (*story.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[playerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) GetOrCreate(ctx context.Context, playerID, startScene string) (*story.Session, bool, error) {
	l := m.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[playerID]; ok {
		return s.Clone(), false, nil
	}
	s := story.NewSession(playerID, startScene)
	m.sessions[playerID] = s
	return s.Clone(), true, nil
}

func (m *MemorySessionStore) Update(ctx context.Context, playerID string, fn func(*story.Session) error) (*story.Session, error) {
	l := m.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	owned, ok := m.sessions[playerID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	// fn runs against a copy; the copy only replaces the owned state
	// if fn succeeds.
	updated := owned.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()

	m.mu.Lock()
	m.sessions[playerID] = updated
	m.mu.Unlock()

	return updated.Clone(), nil
}

func (m *MemorySessionStore) Ping(ctx context.Context) error { return nil }

func (m *MemorySessionStore) Close() error { return nil }
