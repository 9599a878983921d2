// Package session keeps chat histories for the front ends.
package session

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

// Store implements ports.ChatSessionStore in memory.
// Messages are append-only; IDs and timestamps are assigned on append when missing.
type Store struct {
	mu       sync.RWMutex
	messages []entities.Message
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Append records msg at the end of the history.
func (s *Store) Append(msg entities.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("invalid role %q", msg.Role)
	}
	if msg.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating message id: %w", err)
		}
		msg.ID = id
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// All returns a copy of the history in insertion order.
func (s *Store) All() []entities.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
