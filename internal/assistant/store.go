package assistant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is a thread-safe in-memory registry of page views with TTL eviction.
type Store struct {
	mu      sync.Mutex
	views   map[string]*View
	ttl     time.Duration
	backend Backend
	timeout time.Duration
	log     *slog.Logger
}

func NewStore(b Backend, timeout, ttl time.Duration, log *slog.Logger) *Store {
	return &Store{
		views:   make(map[string]*View),
		ttl:     ttl,
		backend: b,
		timeout: timeout,
		log:     log,
	}
}

// New creates and registers a fresh view.
func (s *Store) New() *View {
	v := NewView(uuid.NewString(), s.backend, s.timeout, s.log)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.ID] = v
	return v
}

// Get returns the view or nil.
func (s *Store) Get(id string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[id]
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Cleanup removes views idle for longer than the TTL. Views with a request
// in flight are kept.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, v := range s.views {
		v.mu.Lock()
		idle := now.Sub(v.updatedAt) > s.ttl && !v.intakeInFlight && !v.chatInFlight
		v.mu.Unlock()
		if idle {
			delete(s.views, id)
			removed++
		}
	}
	return removed
}

// Run evicts idle views every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				s.log.Info("evicted idle views", "count", n, "remaining", s.Len())
			}
		}
	}
}
