package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/vector"
)

var testPos = Position{Domain: "Java", Topic: "Collections", Pattern: "Definition-based"}

func TestGeneratorNext_RecordsQuestion(t *testing.T) {
	llm := &fakeLLM{responses: []string{"What is an ArrayList?"}}
	qlog := newFakeQuestionLog()
	g := NewGenerator(llm, &fakeEmbedder{}, newFakeIndex(), qlog, 0)

	q, err := g.Next(context.Background(), "u1", "Java Developer", "2 years", testPos, "")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if q != "What is an ArrayList?" {
		t.Fatalf("unexpected question %q", q)
	}
	asked, _ := qlog.AskedQuestions(context.Background(), "u1", "Collections")
	if len(asked) != 1 || asked[0] != q {
		t.Fatalf("expected question recorded once, got %v", asked)
	}
}

func TestGeneratorNext_DuplicateRetriesThenAccepts(t *testing.T) {
	llm := &fakeLLM{responses: []string{"Explain HashMap."}}
	qlog := newFakeQuestionLog()
	_ = qlog.RecordAskedQuestion(context.Background(), "u1", "Collections", "Explain HashMap.")
	g := NewGenerator(llm, &fakeEmbedder{}, newFakeIndex(), qlog, 3)

	q, err := g.Next(context.Background(), "u1", "Java Developer", "2 years", testPos, "")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := llm.callCount(); got != 3 {
		t.Fatalf("expected 3 generation attempts, got %d", got)
	}
	// The duplicate is kept after the final attempt rather than failing the turn.
	if q != "Explain HashMap." {
		t.Fatalf("expected last attempt accepted, got %q", q)
	}
}

func TestGeneratorNext_LLMError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	g := NewGenerator(llm, &fakeEmbedder{}, newFakeIndex(), newFakeQuestionLog(), 3)
	if _, err := g.Next(context.Background(), "u1", "Dev", "1 year", testPos, ""); err == nil {
		t.Fatalf("expected generation error to surface")
	}
}

func TestGeneratorNext_UsesSummaryAndFollowUp(t *testing.T) {
	idx := newFakeIndex()
	idx.matches = []vector.Match{{
		ID:    "u1-Collections-summary",
		Score: 0.93,
		Metadata: map[string]any{
			"type":       "summary",
			"summary":    "Solid basics, shaky on concurrency.",
			"weak_areas": []any{"ConcurrentHashMap", "iterators"},
		},
	}}
	llm := &fakeLLM{responses: []string{"Follow-up question?"}}
	g := NewGenerator(llm, &fakeEmbedder{}, idx, newFakeQuestionLog(), 3)

	if _, err := g.Next(context.Background(), "u1", "Java Developer", "2 years", testPos, "I used ArrayList for buffering"); err != nil {
		t.Fatalf("next: %v", err)
	}
	prompt := llm.calls[0]
	if !strings.Contains(prompt, "Solid basics, shaky on concurrency.") {
		t.Errorf("prompt missing retrieved summary:\n%s", prompt)
	}
	if !strings.Contains(prompt, "ConcurrentHashMap, iterators") {
		t.Errorf("prompt missing weak areas:\n%s", prompt)
	}
	if !strings.Contains(prompt, "I used ArrayList for buffering") {
		t.Errorf("prompt missing previous answer:\n%s", prompt)
	}
}

func TestGeneratorNext_RetrievalFailureDegrades(t *testing.T) {
	idx := newFakeIndex()
	idx.err = errors.New("index offline")
	llm := &fakeLLM{responses: []string{"Fresh question?"}}
	g := NewGenerator(llm, &fakeEmbedder{err: errors.New("embed down")}, idx, newFakeQuestionLog(), 3)

	q, err := g.Next(context.Background(), "u1", "Dev", "1 year", testPos, "")
	if err != nil {
		t.Fatalf("retrieval failure should not fail generation: %v", err)
	}
	if q != "Fresh question?" {
		t.Fatalf("unexpected question %q", q)
	}
	if strings.Contains(llm.calls[0], "previous performance summary") {
		t.Errorf("prompt should omit summary context when retrieval fails")
	}
}
