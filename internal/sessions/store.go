// Package sessions keeps the live dashboard sessions of connected browsers
// in memory, keyed by a random id, and expires the idle ones.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kartoza/spores-explorer/internal/dashboard"
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Entry is one live session
type Entry struct {
	ID        string
	Session   *dashboard.Session
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time the session was last used
func (e *Entry) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

// Store handles session lifetime
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	dash    *dashboard.Dashboard
	ttl     time.Duration
	now     func() time.Time
	onSize  func(n int)
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithSizeObserver is called with the session count after every change
func WithSizeObserver(fn func(n int)) Option {
	return func(s *Store) {
		s.onSize = fn
	}
}

// NewStore creates a session store. Sessions idle for longer than ttl are
// removed by Sweep; a zero ttl keeps them forever.
func NewStore(dash *dashboard.Dashboard, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		dash:    dash,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session whose controls are seeded from href
func (s *Store) Create(href string) (*Entry, error) {
	sess, err := s.dash.NewSession(href)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	now := s.now()
	e := &Entry{
		ID:        uuid.New().String(),
		Session:   sess,
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.entries[e.ID] = e
	n := len(s.entries)
	s.mu.Unlock()

	s.sized(n)
	return e, nil
}

// Get returns the session with id and marks it as used
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.touch(s.now())
	return e, nil
}

// Delete removes the session with id
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	n := len(s.entries)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sized(n)
	return nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the live session ids, oldest first
func (s *Store) IDs() []string {
	s.mu.RLock()
	entries := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// Sweep removes every session idle for longer than the ttl and returns
// how many it removed
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if e.LastSeen().Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.sized(n)
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Expired %d idle sessions", n)
			}
		}
	}
}

func (s *Store) sized(n int) {
	if s.onSize != nil {
		s.onSize(n)
	}
}
