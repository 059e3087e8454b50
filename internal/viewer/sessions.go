package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ehabterra/apidocs/internal/metrics"
	"github.com/google/uuid"
	"github.com/projectdiscovery/gologger"
)

var ErrSessionNotFound = errors.New("session not found")

// DefaultIdleTimeout is how long a session may go unused before it is closed.
const DefaultIdleTimeout = 30 * time.Minute

// minSweepInterval bounds how often Expire scans the registry.
const minSweepInterval = time.Second

// Sessions is the set of open sessions keyed by id.
type Sessions struct {
	loader  Loader
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions(loader Loader, m *metrics.Metrics) *Sessions {
	return &Sessions{
		loader:   loader,
		metrics:  m,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session with a fresh random id.
func (ss *Sessions) Open() *Session {
	s := NewSession(uuid.NewString(), ss.loader, ss.metrics)

	ss.mu.Lock()
	ss.sessions[s.ID] = s
	ss.mu.Unlock()

	ss.metrics.SessionOpened()
	return s
}

// Get returns the session and marks it as used.
func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.RLock()
	s, ok := ss.sessions[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(time.Now())
	return s, nil
}

// Close removes and closes the session.
func (ss *Sessions) Close(id string) error {
	ss.mu.Lock()
	s, ok := ss.sessions[id]
	delete(ss.sessions, id)
	ss.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	ss.metrics.SessionClosed()
	return nil
}

// CloseAll closes every session, used on shutdown.
func (ss *Sessions) CloseAll() {
	ss.mu.Lock()
	all := ss.sessions
	ss.sessions = make(map[string]*Session)
	ss.mu.Unlock()

	for _, s := range all {
		s.Close()
		ss.metrics.SessionClosed()
	}
}

// Sweep closes sessions that have not been used for longer than idle and
// returns how many were closed.
func (ss *Sessions) Sweep(idle time.Duration, now time.Time) int {
	var expired []*Session
	ss.mu.Lock()
	for id, s := range ss.sessions {
		if now.Sub(s.idleSince(now)) > idle {
			expired = append(expired, s)
			delete(ss.sessions, id)
		}
	}
	ss.mu.Unlock()

	for _, s := range expired {
		s.Close()
		ss.metrics.SessionClosed()
		gologger.Verbose().Str("session", s.ID).Msgf("closed idle session")
	}
	return len(expired)
}

// Expire sweeps idle sessions until ctx is done. A non-positive idle
// disables expiry.
func (ss *Sessions) Expire(ctx context.Context, idle time.Duration) error {
	if idle <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(max(idle/2, minSweepInterval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			ss.Sweep(idle, now)
		}
	}
}

func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
