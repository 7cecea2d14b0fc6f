package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"sync"
)

// QnA is one question/answer exchange buffered for the in-flight topic.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TopicEvaluation is the scored judgment produced once per topic. Created
// once, immutable after creation.
type TopicEvaluation struct {
	Topic     string   `json:"topic"`
	Score     int      `json:"score"`
	Summary   string   `json:"summary"`
	NextStage string   `json:"next_stage"`
	WeakAreas []string `json:"weak_areas,omitempty"`
	NextFocus string   `json:"next_focus,omitempty"`
}

// Evaluator buffers Q&A pairs for the topic in flight and produces a scored
// summary when the topic changes or the interview ends. Every exchange is
// also embedded and persisted for later similarity retrieval, independent of
// the evaluation flow.
type Evaluator struct {
	llm      ChatLLM
	embedder Embedder
	index    SummaryIndex

	role       string
	experience string

	mu           sync.Mutex
	currentTopic string
	pending      []QnA
	topics       map[string]TopicEvaluation
}

func NewEvaluator(llm ChatLLM, embedder Embedder, index SummaryIndex, role, experience string) *Evaluator {
	return &Evaluator{
		llm:        llm,
		embedder:   embedder,
		index:      index,
		role:       role,
		experience: experience,
		topics:     map[string]TopicEvaluation{},
	}
}

// AddAnswer records one exchange under the given topic. An empty question or
// answer (after trimming) is skipped silently. If the topic differs from the
// in-flight one (case-insensitive), the in-flight topic is evaluated and
// closed out first.
func (e *Evaluator) AddAnswer(ctx context.Context, userID, topic, question, answer string) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		log.Println("evaluator: skipping empty question or answer")
		return
	}

	e.saveQnAEmbedding(ctx, userID, topic, question, answer)

	e.mu.Lock()
	if e.currentTopic != "" && !strings.EqualFold(strings.TrimSpace(topic), strings.TrimSpace(e.currentTopic)) {
		closing := e.currentTopic
		qna := e.pending
		e.pending = nil
		e.mu.Unlock()
		e.evaluateTopic(ctx, userID, closing, qna)
		e.mu.Lock()
	}
	e.currentTopic = topic
	e.pending = append(e.pending, QnA{Question: question, Answer: answer})
	e.mu.Unlock()
}

// Finalize evaluates any in-flight topic and returns all evaluations. It is
// the only teardown hook and must run when the interview ends.
func (e *Evaluator) Finalize(ctx context.Context, userID string) map[string]TopicEvaluation {
	e.mu.Lock()
	topic := e.currentTopic
	qna := e.pending
	e.pending = nil
	e.currentTopic = ""
	e.mu.Unlock()
	if topic != "" && len(qna) > 0 {
		e.evaluateTopic(ctx, userID, topic, qna)
	}
	return e.Evaluations()
}

// Evaluations returns a copy of the per-topic results so far.
func (e *Evaluator) Evaluations() map[string]TopicEvaluation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]TopicEvaluation, len(e.topics))
	for k, v := range e.topics {
		out[k] = v
	}
	return out
}

// CurrentTopic returns the topic currently in flight, or "" when none is.
func (e *Evaluator) CurrentTopic() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTopic
}

// PendingCount reports how many exchanges are buffered for the in-flight topic.
func (e *Evaluator) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Evaluator) saveQnAEmbedding(ctx context.Context, userID, topic, question, answer string) {
	text := fmt.Sprintf("Topic: %s\nQuestion: %s\nAnswer: %s", topic, question, answer)
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("evaluator: embedding error: %v", err)
		return
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(question))
	id := fmt.Sprintf("%s-%s-%x", userID, topic, h.Sum64())
	meta := map[string]any{
		"user_id":  userID,
		"topic":    topic,
		"question": clip(question, 200),
		"answer":   clip(answer, 200),
	}
	if err := e.index.Upsert(ctx, id, vec, meta); err != nil {
		log.Printf("evaluator: error saving Q&A embedding: %v", err)
		return
	}
	log.Printf("evaluator: stored Q&A embedding (topic=%q, id=%s)", topic, id)
}

// evaluateTopic asks the LLM for a structured judgment over the topic's full
// transcript. Parse failure degrades to {score 0, raw summary, basic}; the
// whole operation never fails the turn.
func (e *Evaluator) evaluateTopic(ctx context.Context, userID, topic string, qna []QnA) {
	var b strings.Builder
	for _, x := range qna {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", x.Question, x.Answer)
	}

	userPrompt := fmt.Sprintf(`You are a senior AI interviewer evaluating a candidate for the role of %s with %s experience.

You are currently assessing their understanding under the topic "%s".

Here are all the questions and answers so far:
%s
Your task:
1. Evaluate the candidate's understanding level analytically.
2. Determine if they are ready to move to deeper (twisted or advanced) questions.
3. Suggest the appropriate next interview stage.

Return a strict JSON object with the following keys:
- score (0-100): numerical score reflecting their grasp of this topic.
- summary (3-5 lines): a professional summary describing overall performance, confidence, and clarity.
- next_stage: one of ["basic", "intermediate", "advanced"].
- weak_areas: a concise list (array) of subtopics or concepts that need improvement.
- next_focus: short guidance (1-2 lines) for what type of next question should be asked.

Be analytical and precise. Avoid repeating the question text. Focus only on knowledge depth, accuracy, and readiness for the next level.`,
		e.role, e.experience, topic, b.String())

	raw, err := e.llm.Generate(ctx, "You are an expert interviewer evaluating the candidate's understanding.", userPrompt, 0.3)
	if err != nil {
		log.Printf("evaluator: error evaluating topic %q: %v", topic, err)
		return
	}

	eval := parseEvaluation(topic, raw)

	e.mu.Lock()
	e.topics[topic] = eval
	e.mu.Unlock()
	log.Printf("evaluator: topic %q evaluated: score=%d stage=%s", topic, eval.Score, eval.NextStage)

	e.storeTopicSummary(ctx, userID, topic, eval)
}

func parseEvaluation(topic, raw string) TopicEvaluation {
	fallback := TopicEvaluation{Topic: topic, Score: 0, Summary: raw, NextStage: "basic"}
	obj, ok := extractJSON(raw)
	if !ok {
		return fallback
	}
	var parsed struct {
		Score     float64  `json:"score"`
		Summary   string   `json:"summary"`
		NextStage string   `json:"next_stage"`
		WeakAreas []string `json:"weak_areas"`
		NextFocus string   `json:"next_focus"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		log.Printf("evaluator: evaluation decode failed for topic %q: %v", topic, err)
		return fallback
	}
	return TopicEvaluation{
		Topic:     topic,
		Score:     int(parsed.Score),
		Summary:   parsed.Summary,
		NextStage: parsed.NextStage,
		WeakAreas: parsed.WeakAreas,
		NextFocus: parsed.NextFocus,
	}
}

func (e *Evaluator) storeTopicSummary(ctx context.Context, userID, topic string, eval TopicEvaluation) {
	summaryText := fmt.Sprintf("Topic: %s\nScore: %d\nSummary: %s\nStage: %s",
		topic, eval.Score, eval.Summary, eval.NextStage)
	vec, err := e.embedder.Embed(ctx, summaryText)
	if err != nil {
		log.Printf("evaluator: summary embedding error: %v", err)
		return
	}
	id := fmt.Sprintf("%s-%s-summary", userID, topic)
	meta := map[string]any{
		"type":       "summary",
		"user_id":    userID,
		"topic":      topic,
		"score":      eval.Score,
		"summary":    eval.Summary,
		"next_stage": eval.NextStage,
		"weak_areas": eval.WeakAreas,
	}
	if err := e.index.Upsert(ctx, id, vec, meta); err != nil {
		log.Printf("evaluator: error storing topic summary: %v", err)
		return
	}
	log.Printf("evaluator: topic summary stored for %q (user=%s)", topic, userID)
}
