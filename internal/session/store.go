package session

import (
	"sync"
	"time"

	"docuchat/backend/internal/model"
)

// Store holds the transcript of one active session. The message sequence is
// append-only; the only other transition is a wholesale reset. Nothing is
// persisted: when the Store is dropped the conversation is gone.
type Store struct {
	mu       sync.Mutex
	messages []model.Message
	lastUsed time.Time
}

func newStore() *Store {
	return &Store{lastUsed: time.Now()}
}

// Append adds a message to the end of the transcript. Prior entries are
// never mutated.
func (s *Store) Append(role model.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, model.Message{Role: role, Content: content})
	s.lastUsed = time.Now()
}

// Reset clears the transcript so a fresh conversation can start. Safe to
// call at any time, any number of times.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.lastUsed = time.Now()
}

// Snapshot returns a copy of the transcript. Callers may hold it across a
// streaming turn without observing concurrent appends.
func (s *Store) Snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Store) idleSince(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed) > ttl
}
