// Package session keeps live interview sessions in memory.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultSize    = 256
	DefaultIdleTTL = 2 * time.Hour
)

var (
	// ErrSessionNotFound is returned for unknown, removed or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when a session id is registered twice.
	ErrSessionExists = errors.New("session already exists")
)

type entry struct {
	mu      sync.Mutex
	session *interview.Session
	removed atomic.Bool
}

// Store is a bounded registry of sessions. Entries idle for longer than the
// TTL, or pushed out by the size cap, are dropped.
type Store struct {
	// mu serializes TTL refreshes with lookups so a dead entry is never re-added.
	mu     sync.Mutex
	lru    *expirable.LRU[string, *entry]
	logger *zap.Logger
}

// NewStore creates a store holding at most size sessions. A non-positive ttl
// disables idle expiry.
func NewStore(size int, ttl time.Duration, log *zap.Logger) *Store {
	if size <= 0 {
		size = DefaultSize
	}

	s := &Store{logger: logger.OrNop(log)}
	s.lru = expirable.NewLRU[string, *entry](size, s.evicted, ttl)

	return s
}

// evicted runs for expiry, capacity eviction and explicit removal alike.
func (s *Store) evicted(id string, e *entry) {
	if e.removed.Swap(true) {
		return
	}
	s.logger.Debug("session dropped from store", zap.String(logger.FieldSession, id))
}

// Create registers a new session.
func (s *Store) Create(sess *interview.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru.Contains(sess.ID) {
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.ID)
	}
	s.lru.Add(sess.ID, &entry{session: sess})

	return nil
}

// Acquire locks the session for one turn. The lease must be released.
// Acquire blocks while another turn of the same session is in flight.
func (s *Store) Acquire(id string) (*Lease, error) {
	s.mu.Lock()
	e, ok := s.lru.Get(id)
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.mu.Lock()
	if e.removed.Load() {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(id, e)

	return &Lease{store: s, id: id, entry: e}, nil
}

// touch refreshes the idle TTL of a live entry.
func (s *Store) touch(id string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.removed.Load() {
		return
	}
	if current, ok := s.lru.Peek(id); !ok || current != e {
		return
	}
	s.lru.Add(id, e)
}

// Remove drops the session. In-flight leases observe the removal through Alive.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lru.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.lru.Len()
}

// Lease grants exclusive access to one session until Release.
type Lease struct {
	store *Store
	id    string
	entry *entry
	once  sync.Once
}

func (l *Lease) Session() *interview.Session {
	return l.entry.session
}

// Alive reports whether the session is still registered. Callers check it
// after every blocking call before mutating the session.
func (l *Lease) Alive() bool {
	return !l.entry.removed.Load()
}

// Release refreshes the idle TTL and unlocks the session. It is safe to call
// more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.store.touch(l.id, l.entry)
		l.entry.mu.Unlock()
	})
}
