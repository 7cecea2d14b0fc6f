package interview

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
)

func sessionWith(plan string) *fakeSessions {
	return &fakeSessions{payloads: map[string]*store.SessionPayload{
		"u1": {
			Plan:          json.RawMessage(plan),
			Role:          "Java Developer",
			Experience:    "2 years",
			CandidateName: "Sam",
		},
	}}
}

func TestTurn_SessionNotFound(t *testing.T) {
	c := NewCoordinator(&fakeSessions{payloads: map[string]*store.SessionPayload{}},
		newFakeQuestionLog(), &fakeLLM{}, &fakeEmbedder{}, newFakeIndex(), &fakeSynth{}, 2)
	if _, err := c.Turn(context.Background(), "ghost", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTurn_ProducesSpeechAndClosesGate(t *testing.T) {
	sessions := sessionWith(`{"Java":{"Collections":["Definition-based","Scenario-based"]}}`)
	llm := &fakeLLM{responses: []string{"What is a HashMap?"}}
	c := NewCoordinator(sessions, newFakeQuestionLog(), llm, &fakeEmbedder{}, newFakeIndex(), &fakeSynth{}, 2)

	if !c.Gate("u1").Open() {
		t.Fatalf("gate must start open")
	}

	res, err := c.Turn(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Domain != "Java" || res.Topic != "Collections" || res.Pattern != "Definition-based" {
		t.Fatalf("unexpected position %+v", res)
	}
	if res.Question != "What is a HashMap?" {
		t.Fatalf("unexpected question %q", res.Question)
	}
	if res.Audio != base64.StdEncoding.EncodeToString([]byte("pcm-bytes")) {
		t.Fatalf("unexpected audio payload %q", res.Audio)
	}
	if res.Duration != 1.5 || len(res.Blend) == 0 {
		t.Fatalf("expected duration and blend timeline, got %+v", res)
	}

	if c.Gate("u1").Open() {
		t.Fatalf("gate must be closed after a turn")
	}
	c.Reconnect("u1")
	if !c.Gate("u1").Open() {
		t.Fatalf("reconnect must reopen the gate")
	}
}

func TestTurn_WalksPlanToCompletion(t *testing.T) {
	sessions := sessionWith(`{"Java":{"Collections":["Definition-based"],"Streams":["Scenario-based"]}}`)
	c := NewCoordinator(sessions, newFakeQuestionLog(), &fakeLLM{}, &fakeEmbedder{}, newFakeIndex(), &fakeSynth{}, 1)
	ctx := context.Background()

	first, err := c.Turn(ctx, "u1", "")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if first.Topic != "Collections" {
		t.Fatalf("turn 1 topic = %q", first.Topic)
	}

	second, err := c.Turn(ctx, "u1", "answer to the first question")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if second.Topic != "Streams" {
		t.Fatalf("turn 2 topic = %q", second.Topic)
	}

	third, err := c.Turn(ctx, "u1", "answer to the second question")
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}
	if third.Question != CompletedSentinel {
		t.Fatalf("expected completion sentinel, got %q", third.Question)
	}
	if third.Audio != "" || third.Topic != "" {
		t.Fatalf("terminal turn must carry only the sentinel, got %+v", third)
	}

	// The terminal state is absorbing.
	again, err := c.Turn(ctx, "u1", "anything else")
	if err != nil {
		t.Fatalf("turn 4: %v", err)
	}
	if again.Question != CompletedSentinel {
		t.Fatalf("expected sentinel on repeat, got %q", again.Question)
	}
}

func TestTurn_DegradesOnProviderFailures(t *testing.T) {
	sessions := sessionWith(`{"Java":{"Collections":["Definition-based"]}}`)
	llm := &fakeLLM{err: errors.New("llm down")}
	c := NewCoordinator(sessions, newFakeQuestionLog(), llm, &fakeEmbedder{}, newFakeIndex(),
		&fakeSynth{err: errors.New("tts down")}, 2)

	res, err := c.Turn(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("provider failures must not fail the turn: %v", err)
	}
	if res.Question != "Tell me what you know about Collections." {
		t.Fatalf("expected placeholder question, got %q", res.Question)
	}
	if res.Audio != "" || res.Duration != 0 || len(res.Blend) != 0 {
		t.Fatalf("expected silent result on synthesis failure, got %+v", res)
	}
	if c.Gate("u1").Open() {
		t.Fatalf("gate must still close on a degraded turn")
	}
}

func TestTurn_FeedsAnswerToEvaluator(t *testing.T) {
	sessions := sessionWith(`{"Java":{"Collections":["Definition-based"]}}`)
	idx := newFakeIndex()
	c := NewCoordinator(sessions, newFakeQuestionLog(), &fakeLLM{}, &fakeEmbedder{}, idx, &fakeSynth{}, 2)
	ctx := context.Background()

	if _, err := c.Turn(ctx, "u1", ""); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if len(idx.upserts) != 0 {
		t.Fatalf("no embedding expected before any answer, got %d", len(idx.upserts))
	}
	if _, err := c.Turn(ctx, "u1", "A HashMap stores key-value pairs."); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if len(idx.upserts) != 1 {
		t.Fatalf("expected the answer embedded once, got %d", len(idx.upserts))
	}
}

func TestFinish_BeforeFirstTurn(t *testing.T) {
	c := NewCoordinator(&fakeSessions{payloads: map[string]*store.SessionPayload{}},
		newFakeQuestionLog(), &fakeLLM{}, &fakeEmbedder{}, newFakeIndex(), &fakeSynth{}, 2)
	if evals := c.Finish(context.Background(), "u1"); len(evals) != 0 {
		t.Fatalf("expected no evaluations, got %v", evals)
	}
}
