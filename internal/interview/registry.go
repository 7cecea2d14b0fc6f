package interview

import (
	"sync"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/relay"
)

// Session owns all mutable interview state for one user: plan cursor, topic
// evaluator, relay gate and the last question asked. All access goes through
// the session mutex, so concurrent interviews in one process are safe.
type Session struct {
	UserID string
	Gate   *relay.Gate

	mu           sync.Mutex
	ready        bool
	role         string
	experience   string
	cursor       *Cursor
	evaluator    *Evaluator
	lastQuestion string
}

// Registry hands out sessions keyed by user id, creating them lazily under a
// single lock. The gate exists from first access so the audio relay can bind
// before the first turn.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Get returns the session for the user, creating an empty one on first use.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := &Session{UserID: userID, Gate: relay.NewGate()}
	r.sessions[userID] = s
	return s
}
