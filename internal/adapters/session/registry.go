package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

// Session is one conversation: a message store plus bookkeeping.
// Exchanges on a session are serialized with Lock/Unlock so it keeps a single writer.
type Session struct {
	ID        string
	Store     *Store
	CreatedAt time.Time

	turn     sync.Mutex
	mu       sync.Mutex
	lastUsed time.Time
}

// Lock serializes exchanges on the session.
func (s *Session) Lock() { s.turn.Lock() }

// Unlock releases the exchange lock.
func (s *Session) Unlock() { s.turn.Unlock() }

// LastUsed returns when the session was last touched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
}

// Registry creates, finds and evicts sessions.
type Registry struct {
	greeting string
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	cron     *cron.Cron
}

// NewRegistry creates a registry. New sessions start with greeting as an assistant message
// when it is non-empty. Sessions idle longer than ttl are evicted by Sweep.
func NewRegistry(greeting string, ttl time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		greeting: greeting,
		ttl:      ttl,
		logger:   logger.With().Str("component", "sessions").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (r *Registry) Create() (*Session, error) {
	now := r.now()
	s := &Session{
		ID:        uuid.New().String(),
		Store:     NewStore(),
		CreatedAt: now,
		lastUsed:  now,
	}
	if r.greeting != "" {
		if err := s.Store.Append(entities.Message{Role: entities.RoleAssistant, Content: r.greeting}); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug().Str("session", s.ID).Msg("session created")
	return s, nil
}

// Get returns the session with id and marks it used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// GetOrCreate returns the session with id, or a new one when id is unknown.
func (r *Registry) GetOrCreate(id string) (*Session, bool, error) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false, nil
		}
	}
	s, err := r.Create()
	return s, true, err
}

// Remove ends the session with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info().Int("evicted", removed).Int("remaining", len(r.sessions)).Msg("evicted idle sessions")
	}
	return removed
}

// StartEviction runs Sweep on the cron schedule spec (e.g. "@every 5m").
func (r *Registry) StartEviction(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { r.Sweep() }); err != nil {
		return err
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	r.logger.Debug().Str("spec", spec).Dur("ttl", r.ttl).Msg("session eviction scheduled")
	return nil
}

// Close stops eviction and drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
