// sessions.go — Per-client editors keyed by UUID, reaped when idle.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// session wraps one editor. The editor itself is single-writer, so every
// access goes through mu.
type session struct {
	mu      sync.Mutex
	id      string
	editor  *overlay.Editor
	photoID string
	touched time.Time
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
	logger   *zap.Logger
}

func newSessionStore(logger *zap.Logger) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		now:      time.Now,
		logger:   logger,
	}
}

// newID returns a fresh session id.
func newID() string { return uuid.NewString() }

func (st *sessionStore) create(id string, e *overlay.Editor) *session {
	s := &session{id: id, editor: e, touched: st.now()}
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// get returns the session and marks it as used.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.touched = st.now()
	s.mu.Unlock()
	return s, true
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// reap drops sessions idle for longer than ttl and returns how many it removed.
func (st *sessionStore) reap(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.logger.Info("reaped idle sessions", zap.Int("removed", n), zap.Int("remaining", len(st.sessions)))
	}
	return n
}

// startReaper schedules reap every sweep on a cron runner. Stop the returned
// runner on shutdown.
func (st *sessionStore) startReaper(sweep, ttl time.Duration) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", sweep), func() { st.reap(ttl) }); err != nil {
		return nil, fmt.Errorf("schedule session reaper: %w", err)
	}
	c.Start()
	return c, nil
}
