package interview

import (
	"context"
	"strings"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/vector"
)

// ChatLLM generates one completion for a system/user prompt pair.
type ChatLLM interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SummaryIndex is the similarity store for Q&A and topic-summary embeddings.
type SummaryIndex interface {
	Upsert(ctx context.Context, id string, values []float32, metadata map[string]any) error
	Query(ctx context.Context, values []float32, topK int, filter map[string]any) ([]vector.Match, error)
}

// QuestionLog records and recalls questions already asked per (user, topic).
type QuestionLog interface {
	AskedQuestions(ctx context.Context, userID, topic string) ([]string, error)
	RecordAskedQuestion(ctx context.Context, userID, topic, question string) error
}

// SessionLoader reads the durable intake payload for a user.
type SessionLoader interface {
	LoadSession(ctx context.Context, userID string) (*store.SessionPayload, error)
}

// extractJSON locates the outermost JSON object in free LLM text. The model
// is asked for strict JSON but may wrap it in prose or code fences.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// clip bounds metadata strings stored alongside embeddings.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
