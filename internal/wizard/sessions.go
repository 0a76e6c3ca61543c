package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions holds one wizard per session id. Idle wizards expire.
type Sessions struct {
	sessions map[string]*Wizard
	mu       sync.RWMutex
	timeout  time.Duration
	deps     Deps
}

func NewSessions(deps Deps, timeout time.Duration) *Sessions {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Sessions{
		sessions: make(map[string]*Wizard),
		timeout:  timeout,
		deps:     deps,
	}
}

// Create starts a new wizard and returns its id.
func (ss *Sessions) Create() (string, *Wizard) {
	id := uuid.NewString()
	w := New(ss.deps)

	ss.mu.Lock()
	ss.sessions[id] = w
	ss.mu.Unlock()
	return id, w
}

// Get returns the wizard for id. Expired wizards are dropped.
func (ss *Sessions) Get(id string) (*Wizard, bool) {
	ss.mu.RLock()
	w, ok := ss.sessions[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if w.IsExpired(ss.timeout) {
		ss.Delete(id)
		return nil, false
	}
	return w, true
}

// Delete removes a session.
func (ss *Sessions) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// Cleanup removes expired sessions.
func (ss *Sessions) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, w := range ss.sessions {
		if w.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}

// Start runs Cleanup every interval until ctx is done.
func (ss *Sessions) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = ss.timeout / 2
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := ss.Cleanup(); n > 0 && ss.deps.Logger != nil {
					ss.deps.Logger.Debug().Int("removed", n).Msg("expired wizard sessions removed")
				}
			}
		}
	}()
}
