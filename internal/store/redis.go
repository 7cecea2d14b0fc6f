package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL is the retention window for intake payloads.
const SessionTTL = 24 * time.Hour

// SessionPayload is the durable per-user record written at intake and read
// at every turn. Plan keeps the raw JSON form so the interview package can
// decode it with key order preserved.
type SessionPayload struct {
	Plan          json.RawMessage `json:"question"`
	Role          string          `json:"role"`
	Experience    string          `json:"experience"`
	CandidateName string          `json:"candidateName"`
}

// Store wraps Redis access for session payloads and asked-question logs.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// NewWithClient is used by tests and callers that manage the client.
func NewWithClient(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// SaveSession writes the payload under the user id with the retention TTL.
func (s *Store) SaveSession(ctx context.Context, userID string, payload *SessionPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, userID, data, SessionTTL).Err()
}

// LoadSession returns nil without error when no payload exists.
func (s *Store) LoadSession(ctx context.Context, userID string) (*SessionPayload, error) {
	data, err := s.rdb.Get(ctx, userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var payload SessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("corrupt session payload for %s: %w", userID, err)
	}
	return &payload, nil
}

// AskedQuestions returns the ordered questions already asked for a topic.
func (s *Store) AskedQuestions(ctx context.Context, userID, topic string) ([]string, error) {
	return s.rdb.LRange(ctx, askedKey(userID, topic), 0, -1).Result()
}

// RecordAskedQuestion appends a question to the topic's history.
func (s *Store) RecordAskedQuestion(ctx context.Context, userID, topic, question string) error {
	return s.rdb.RPush(ctx, askedKey(userID, topic), question).Err()
}

func askedKey(userID, topic string) string {
	return fmt.Sprintf("asked_questions:%s:%s", userID, topic)
}
