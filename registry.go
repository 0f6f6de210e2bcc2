package sheetquiz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRegistry keeps learner sessions in memory, keyed by an opaque id.
// Sessions idle for longer than the TTL are dropped.
type SessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

type registryEntry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// NewSessionRegistry creates a registry whose sessions expire after ttl of inactivity
func NewSessionRegistry(ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Acquire returns the session for id, locked for exclusive use until release
// is called. An empty, unknown or expired id gets a fresh session under a new
// id, which the caller must hand back to the learner.
func (r *SessionRegistry) Acquire(id string) (string, *Session, func()) {
	r.mu.Lock()
	now := r.now()
	entry, ok := r.entries[id]
	if ok && r.expired(entry, now) {
		delete(r.entries, id)
		ok = false
		r.logger.Debug("session expired on lookup", zap.String("session", id))
	}
	if !ok {
		id = uuid.NewString()
		entry = &registryEntry{session: NewSession()}
		r.entries[id] = entry
		r.logger.Debug("session created", zap.String("session", id))
	}
	entry.lastSeen = now
	r.mu.Unlock()

	entry.mu.Lock()
	return id, entry.session, entry.mu.Unlock
}

// Remove forgets the session for id
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep drops every expired session and returns how many were dropped
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dropped := 0
	for id, entry := range r.entries {
		if r.expired(entry, now) {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps expired sessions every interval until ctx is done
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("swept expired sessions", zap.Int("dropped", n), zap.Int("active", r.Len()))
			}
		}
	}
}

// Len returns the number of sessions currently held
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *SessionRegistry) expired(entry *registryEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(entry.lastSeen) > r.ttl
}
