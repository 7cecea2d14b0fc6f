package interview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/phoneme"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/relay"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/tts"
)

// ErrSessionNotFound is returned when a turn arrives for a user with no
// stored intake payload.
var ErrSessionNotFound = errors.New("no session payload for user")

// Synthesizer produces speech for a question.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (tts.Speech, error)
}

// TurnResult is the payload returned to the client for one turn.
type TurnResult struct {
	Domain   string          `json:"domain,omitempty"`
	Topic    string          `json:"topic,omitempty"`
	Pattern  string          `json:"pattern,omitempty"`
	Question string          `json:"question"`
	Audio    string          `json:"audioSource,omitempty"`
	Blend    []phoneme.Frame `json:"blendData,omitempty"`
	Duration float64         `json:"duration,omitempty"`
}

// Coordinator sequences one interview turn: evaluate the previous answer,
// advance the plan cursor, generate the next question, synthesize speech and
// close the relay gate until the client reconnects.
type Coordinator struct {
	sessions SessionLoader
	llm      ChatLLM
	embedder Embedder
	index    SummaryIndex
	tts      Synthesizer
	gen      *Generator

	registry          *Registry
	questionsPerTopic int
}

func NewCoordinator(sessions SessionLoader, qlog QuestionLog, llm ChatLLM, embedder Embedder, index SummaryIndex, synth Synthesizer, questionsPerTopic int) *Coordinator {
	return &Coordinator{
		sessions:          sessions,
		llm:               llm,
		embedder:          embedder,
		index:             index,
		tts:               synth,
		gen:               NewGenerator(llm, embedder, index, qlog, DefaultMaxAttempts),
		registry:          NewRegistry(),
		questionsPerTopic: questionsPerTopic,
	}
}

// Gate exposes the relay gate for a user so the audio relay can bind to it.
func (c *Coordinator) Gate(userID string) *relay.Gate {
	return c.registry.Get(userID).Gate
}

// Reconnect reopens the relay gate after the client finished playing the
// question audio.
func (c *Coordinator) Reconnect(userID string) {
	c.registry.Get(userID).Gate.Set(true)
}

// Turn runs one complete turn for the user's answer. External-call failures
// degrade the result (placeholder question, silent audio) but the turn
// always completes; the only client-visible error is a missing session.
func (c *Coordinator) Turn(ctx context.Context, userID, answer string) (*TurnResult, error) {
	sess := c.registry.Get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := c.ensureReady(ctx, sess); err != nil {
		return nil, err
	}

	if sess.cursor.Done() {
		// Capture the final answer against the last in-flight topic, then
		// hold the terminal sentinel without further cursor movement.
		if sess.lastQuestion != "" && strings.TrimSpace(answer) != "" {
			sess.evaluator.AddAnswer(ctx, userID, sess.evaluator.CurrentTopic(), sess.lastQuestion, answer)
			sess.lastQuestion = ""
		}
		return &TurnResult{Question: CompletedSentinel}, nil
	}

	domain, topic, pattern, _ := sess.cursor.Current()

	if sess.lastQuestion != "" {
		sess.evaluator.AddAnswer(ctx, userID, topic, sess.lastQuestion, answer)
	}

	// A follow-up hint only makes sense after the first question of a topic.
	previousAnswer := ""
	if sess.cursor.CountInTopic() > 0 {
		previousAnswer = answer
	}

	question, err := c.gen.Next(ctx, userID, sess.role, sess.experience, Position{Domain: domain, Topic: topic, Pattern: pattern}, previousAnswer)
	if err != nil {
		log.Printf("coordinator: question generation failed for %s/%s: %v", domain, topic, err)
		question = fmt.Sprintf("Tell me what you know about %s.", topic)
	}

	sess.cursor.RecordQuestionAsked()
	sess.lastQuestion = question

	result := &TurnResult{Domain: domain, Topic: topic, Pattern: pattern, Question: question}
	speech, err := c.tts.Synthesize(ctx, question)
	if err != nil {
		log.Printf("coordinator: speech synthesis failed: %v", err)
	} else {
		result.Audio = base64.StdEncoding.EncodeToString(speech.Audio)
		result.Duration = speech.Duration
		result.Blend = phoneme.Timeline(question, speech.Duration)
	}

	// Stop forwarding audio until the client explicitly reconnects, so the
	// transcription provider does not hear the question playback.
	sess.Gate.Set(false)

	return result, nil
}

// Finish evaluates any in-flight topic and returns all topic evaluations.
func (c *Coordinator) Finish(ctx context.Context, userID string) map[string]TopicEvaluation {
	sess := c.registry.Get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.ready {
		return map[string]TopicEvaluation{}
	}
	return sess.evaluator.Finalize(ctx, userID)
}

// ensureReady lazily builds the cursor and evaluator from the stored intake
// payload on the session's first turn.
func (c *Coordinator) ensureReady(ctx context.Context, sess *Session) error {
	if sess.ready {
		return nil
	}
	payload, err := c.sessions.LoadSession(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sess.UserID, err)
	}
	if payload == nil {
		return ErrSessionNotFound
	}
	plan, err := ParsePlan(payload.Plan)
	if err != nil {
		return fmt.Errorf("session %s: %w", sess.UserID, err)
	}
	sess.role = payload.Role
	sess.experience = payload.Experience
	sess.cursor = NewCursor(plan, c.questionsPerTopic)
	sess.evaluator = NewEvaluator(c.llm, c.embedder, c.index, payload.Role, payload.Experience)
	sess.ready = true
	return nil
}
