package interview

import (
	"context"
	"sync"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/tts"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/vector"
)

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "generated question", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	mu      sync.Mutex
	upserts map[string]map[string]any
	matches []vector.Match
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: map[string]map[string]any{}}
}

func (f *fakeIndex) Upsert(ctx context.Context, id string, values []float32, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts[id] = metadata
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, values []float32, topK int, filter map[string]any) ([]vector.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeQuestionLog struct {
	mu    sync.Mutex
	asked map[string][]string
}

func newFakeQuestionLog() *fakeQuestionLog {
	return &fakeQuestionLog{asked: map[string][]string{}}
}

func (f *fakeQuestionLog) AskedQuestions(ctx context.Context, userID, topic string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.asked[userID+":"+topic]...), nil
}

func (f *fakeQuestionLog) RecordAskedQuestion(ctx context.Context, userID, topic, question string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + ":" + topic
	f.asked[key] = append(f.asked[key], question)
	return nil
}

type fakeSessions struct {
	payloads map[string]*store.SessionPayload
}

func (f *fakeSessions) LoadSession(ctx context.Context, userID string) (*store.SessionPayload, error) {
	return f.payloads[userID], nil
}

type fakeSynth struct {
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (tts.Speech, error) {
	if f.err != nil {
		return tts.Speech{}, f.err
	}
	return tts.Speech{Audio: []byte("pcm-bytes"), Duration: 1.5}, nil
}
