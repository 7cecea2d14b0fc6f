// Package planner runs the intake flow: it turns a candidate's skills and
// experience into the interview plan stored for the session.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/interview"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
)

// ChatLLM is the completion surface the planner needs.
type ChatLLM interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// SessionSaver persists the intake payload.
type SessionSaver interface {
	SaveSession(ctx context.Context, userID string, payload *store.SessionPayload) error
}

// IntakeRequest is the client-supplied candidate profile.
type IntakeRequest struct {
	UserID        string   `json:"userId"`
	CandidateName string   `json:"candidateName"`
	Skills        []string `json:"skills"`
	Experience    string   `json:"experience"`
	Role          string   `json:"role,omitempty"`
}

// Planner builds and persists interview plans.
type Planner struct {
	llm      ChatLLM
	sessions SessionSaver
}

func New(llm ChatLLM, sessions SessionSaver) *Planner {
	return &Planner{llm: llm, sessions: sessions}
}

// BuildPlan generates topics for the candidate's skills, derives question
// patterns per topic, validates the result and stores the session payload.
// The returned raw plan is the exact JSON persisted for the session.
func (p *Planner) BuildPlan(ctx context.Context, req IntakeRequest) (*store.SessionPayload, json.RawMessage, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, nil, errors.New("userId is required")
	}
	if len(req.Skills) == 0 {
		return nil, nil, errors.New("at least one skill is required")
	}
	if strings.TrimSpace(req.Experience) == "" {
		return nil, nil, errors.New("experience is required")
	}

	topicsJSON, err := p.generateTopics(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	rawPlan, err := p.generatePatterns(ctx, topicsJSON, req.Experience)
	if err != nil {
		return nil, nil, err
	}
	if _, err := interview.ParsePlan(rawPlan); err != nil {
		return nil, nil, fmt.Errorf("generated plan rejected: %w", err)
	}

	payload := &store.SessionPayload{
		Plan:          rawPlan,
		Role:          inferRole(req),
		Experience:    normalizeExperience(req.Experience),
		CandidateName: req.CandidateName,
	}
	if err := p.sessions.SaveSession(ctx, req.UserID, payload); err != nil {
		return nil, nil, fmt.Errorf("error storing session payload: %w", err)
	}
	log.Printf("planner: plan stored for user %s (%d skills)", req.UserID, len(req.Skills))
	return payload, rawPlan, nil
}

// generateTopics asks for the per-skill topics to evaluate, banded by
// experience level, and returns the topicsToEvaluate object verbatim so key
// order survives into the pattern stage.
func (p *Planner) generateTopics(ctx context.Context, req IntakeRequest) (json.RawMessage, error) {
	prompt := fmt.Sprintf(`You are an expert technical mentor.

The user provides:
- Candidate name: %s
- User ID: %s
- Skills: %s
- Experience (in years): %s

Your task:
Based on the provided skills and experience, list all important technical topics that the candidate should prepare for interviews.

Rules:
- For Fresher -> Include all beginner-level fundamentals for each skill.
- For 1 year -> Include beginner + intermediate practical topics.
- For 2-4 years -> Include intermediate + some advanced topics.
- For 5+ years -> Include advanced + architecture-level concepts.
- Return only valid JSON (no explanations, no questions).

JSON Format:
{
  "candidateName": "%s",
  "experienceYears": %q,
  "userId": "%s",
  "skills": [%s],
  "topicsToEvaluate": {
    "<skill>": ["<topic1>", "<topic2>", "<topic3>", ...]
  }
}`,
		req.CandidateName, req.UserID, strings.Join(req.Skills, ", "), req.Experience,
		req.CandidateName, req.Experience, req.UserID, quoteJoin(req.Skills))

	raw, err := p.llm.Generate(ctx, "You are a senior technical trainer and interview mentor.", prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("error generating topics: %w", err)
	}
	obj, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("topics response contains no JSON object: %s", clip(raw, 200))
	}
	var parsed struct {
		TopicsToEvaluate json.RawMessage `json:"topicsToEvaluate"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("error decoding topics response: %w", err)
	}
	if len(parsed.TopicsToEvaluate) == 0 {
		return nil, errors.New("topics response missing topicsToEvaluate")
	}
	return parsed.TopicsToEvaluate, nil
}

// generatePatterns maps every topic to an ordered pattern list. The model is
// instructed to lead every list with Definition-based.
func (p *Planner) generatePatterns(ctx context.Context, topicsJSON json.RawMessage, experience string) (json.RawMessage, error) {
	prompt := fmt.Sprintf(`You are a professional interview pattern designer.

You are given a list of skills and topics, and the candidate's experience.

For each topic, suggest 2-4 types of *question patterns* that an interviewer can use later
to generate real questions dynamically.

Examples of question patterns:
- Definition-based
- Comparison-based
- Scenario-based
- Code-based
- Configuration-based
- Optimization-based
- Troubleshooting-based
- Real-world usage-based
- Security-based

Rules:
1. For every topic, always include "Definition-based" as the first pattern.
2. For the remaining patterns, analyze the topic name and generate 1-2 additional relevant question patterns.
3. Adjust patterns to match the candidate's experience level:
 - 0-1 years: Conceptual & basic understanding patterns.
 - 1-2 years: Scenario-based and applied patterns.
 - 3+ years: Design, optimization, and troubleshooting patterns.

Return valid JSON like this:

{
  "questionPatterns": {
    "<skill>": {
      "<topic>": ["<pattern1>", "<pattern2>", "<pattern3>"]
    }
  }
}

Topics:
%s

Experience: %s`, string(topicsJSON), experience)

	raw, err := p.llm.Generate(ctx, "You are a professional AI interviewer assistant.", prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("error generating question patterns: %w", err)
	}
	obj, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("pattern response contains no JSON object: %s", clip(raw, 200))
	}
	var parsed struct {
		QuestionPatterns json.RawMessage `json:"questionPatterns"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("error decoding pattern response: %w", err)
	}
	if len(parsed.QuestionPatterns) == 0 {
		return nil, errors.New("pattern response missing questionPatterns")
	}
	return parsed.QuestionPatterns, nil
}

var yearsPattern = regexp.MustCompile(`\d+`)

// normalizeExperience reduces free-form experience text to "<n> years" when a
// number is present, otherwise keeps the text as given.
func normalizeExperience(v string) string {
	if m := yearsPattern.FindString(v); m != "" {
		return m + " years"
	}
	return strings.TrimSpace(v)
}

// inferRole falls back to "<first skill> Developer" when no role was given.
func inferRole(req IntakeRequest) string {
	if strings.TrimSpace(req.Role) != "" {
		return req.Role
	}
	if len(req.Skills) > 0 && strings.TrimSpace(req.Skills[0]) != "" {
		return req.Skills[0] + " Developer"
	}
	return "Developer"
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
