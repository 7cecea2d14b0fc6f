package interview

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// DefaultMaxAttempts bounds the duplicate-avoidance retry loop. After the
// last attempt the generated question is accepted even if it duplicates an
// earlier one, so generation never blocks the interview.
const DefaultMaxAttempts = 3

// Position is the cursor location a question is generated for.
type Position struct {
	Domain  string
	Topic   string
	Pattern string
}

// Generator wraps the LLM with weak-area retrieval and duplicate avoidance.
type Generator struct {
	llm      ChatLLM
	embedder Embedder
	index    SummaryIndex
	log      QuestionLog

	maxAttempts int
}

func NewGenerator(llm ChatLLM, embedder Embedder, index SummaryIndex, qlog QuestionLog, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{llm: llm, embedder: embedder, index: index, log: qlog, maxAttempts: maxAttempts}
}

// Next generates one question for the position. previousAnswer, when
// non-empty, asks for a follow-up grounded in that answer. The result is
// checked against the topic's asked-question history; exact duplicates are
// retried up to the attempt cap and then accepted anyway.
func (g *Generator) Next(ctx context.Context, userID, role, experience string, pos Position, previousAnswer string) (string, error) {
	summary, weakAreas := g.retrieveTopicSummary(ctx, pos.Topic)

	asked, err := g.log.AskedQuestions(ctx, userID, pos.Topic)
	if err != nil {
		log.Printf("generator: asked-question lookup failed: %v", err)
		asked = nil
	}

	prompt := buildQuestionPrompt(role, experience, pos, summary, weakAreas, previousAnswer)

	var question string
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		question, err = g.llm.Generate(ctx, "You are a strict technical interviewer.", prompt, 0.7)
		if err != nil {
			return "", err
		}
		if !containsExact(asked, question) {
			break
		}
		log.Printf("generator: duplicate question on attempt %d for topic %q", attempt+1, pos.Topic)
	}

	if err := g.log.RecordAskedQuestion(ctx, userID, pos.Topic, question); err != nil {
		log.Printf("generator: failed to record asked question: %v", err)
	}
	return question, nil
}

// retrieveTopicSummary looks up the candidate's prior performance summary for
// the topic by similarity. Failures degrade to an empty context.
func (g *Generator) retrieveTopicSummary(ctx context.Context, topic string) (summary string, weakAreas []string) {
	vec, err := g.embedder.Embed(ctx, topic)
	if err != nil {
		log.Printf("generator: topic embedding error: %v", err)
		return "", nil
	}
	matches, err := g.index.Query(ctx, vec, 1, map[string]any{"type": "summary"})
	if err != nil {
		log.Printf("generator: summary retrieval error: %v", err)
		return "", nil
	}
	if len(matches) == 0 {
		log.Printf("generator: no summary found for topic %q", topic)
		return "", nil
	}
	meta := matches[0].Metadata
	if s, ok := meta["summary"].(string); ok {
		summary = s
	}
	switch w := meta["weak_areas"].(type) {
	case []string:
		weakAreas = w
	case []any:
		for _, v := range w {
			if s, ok := v.(string); ok {
				weakAreas = append(weakAreas, s)
			}
		}
	}
	return summary, weakAreas
}

func buildQuestionPrompt(role, experience string, pos Position, summary string, weakAreas []string, previousAnswer string) string {
	var summaryContext string
	if summary != "" || len(weakAreas) > 0 {
		weaknessText := "N/A"
		if len(weakAreas) > 0 {
			weaknessText = strings.Join(weakAreas, ", ")
		}
		summaryContext = fmt.Sprintf("\nCandidate's previous performance summary on this topic:\n%q\n\nFocus areas for improvement: %s\n", summary, weaknessText)
	}

	var dynamicHint string
	if previousAnswer != "" {
		dynamicHint = fmt.Sprintf("\nThe candidate previously answered: %q.\nGenerate a follow-up or related question to explore deeper understanding.\n", previousAnswer)
	}

	return fmt.Sprintf(`You are a professional interviewer for the role of %s.
Generate one %s interview question for a candidate with %s experience.
Topic: %q under %s.
%s%s
Focus the question specifically on weak or unclear areas to help assess improvement.
Return only the question - no explanations or answers.`,
		role, pos.Pattern, experience, pos.Topic, pos.Domain, summaryContext, dynamicHint)
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
