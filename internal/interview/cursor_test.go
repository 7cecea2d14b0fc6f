package interview

import "testing"

func planFixture() Plan {
	return Plan{
		{Name: "Java", Topics: []Topic{
			{Name: "Collections", Patterns: []string{"Definition-based", "Scenario-based"}},
			{Name: "Streams", Patterns: []string{"Definition-based", "Code-based", "Optimization-based"}},
		}},
		{Name: "Spring Boot", Topics: []Topic{
			{Name: "Dependency Injection", Patterns: []string{"Definition-based"}},
		}},
	}
}

func TestCursor_WalksEveryTopicThenTerminates(t *testing.T) {
	plan := planFixture()
	c := NewCursor(plan, 2)

	totalTopics := 0
	for _, d := range plan {
		totalTopics += len(d.Topics)
	}

	asked := 0
	for !c.Done() {
		_, _, _, done := c.Current()
		if done {
			t.Fatalf("Current reported done while Done() is false")
		}
		c.RecordQuestionAsked()
		asked++
		if asked > 100 {
			t.Fatalf("cursor never terminated")
		}
	}
	if asked != totalTopics*2 {
		t.Fatalf("expected %d questions before terminal, got %d", totalTopics*2, asked)
	}

	// terminal state is absorbing
	for i := 0; i < 3; i++ {
		if _, _, _, done := c.Current(); !done {
			t.Fatalf("expected terminal state to persist")
		}
		c.RecordQuestionAsked()
	}
}

func TestCursor_QuotaTriggersExactlyOneTopicAdvance(t *testing.T) {
	c := NewCursor(planFixture(), 2)
	_, topic0, _, _ := c.Current()
	c.RecordQuestionAsked()
	_, topic1, _, _ := c.Current()
	if topic1 != topic0 {
		t.Fatalf("topic advanced before quota: %q -> %q", topic0, topic1)
	}
	c.RecordQuestionAsked()
	_, topic2, _, _ := c.Current()
	if topic2 == topic0 {
		t.Fatalf("expected topic advance after quota")
	}
	if topic2 != "Streams" {
		t.Fatalf("expected next topic in order, got %q", topic2)
	}
}

func TestCursor_PatternsCycle(t *testing.T) {
	// quota larger than the pattern list so the cycle wraps
	plan := Plan{{Name: "Java", Topics: []Topic{
		{Name: "Collections", Patterns: []string{"A", "B"}},
	}}}
	c := NewCursor(plan, 5)
	want := []string{"A", "B", "A", "B", "A"}
	for i, w := range want {
		_, _, pattern, done := c.Current()
		if done {
			t.Fatalf("unexpected terminal at step %d", i)
		}
		if pattern != w {
			t.Fatalf("step %d: expected pattern %q, got %q", i, w, pattern)
		}
		c.RecordQuestionAsked()
	}
}

func TestCursor_DomainAdvance(t *testing.T) {
	c := NewCursor(planFixture(), 1)
	var seen []string
	for !c.Done() {
		domain, topic, _, _ := c.Current()
		seen = append(seen, domain+"/"+topic)
		c.RecordQuestionAsked()
	}
	want := []string{"Java/Collections", "Java/Streams", "Spring Boot/Dependency Injection"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestCursor_SingleTopicScenario(t *testing.T) {
	raw := []byte(`{"Java": {"Collections": ["Definition-based","Scenario-based"]}}`)
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := NewCursor(plan, 2)

	_, topic, pattern, _ := c.Current()
	if topic != "Collections" || pattern != "Definition-based" {
		t.Fatalf("first question mismatch: %s %s", topic, pattern)
	}
	c.RecordQuestionAsked()
	_, topic, pattern, done := c.Current()
	if done || topic != "Collections" || pattern != "Scenario-based" {
		t.Fatalf("second question mismatch: %s %s done=%v", topic, pattern, done)
	}
	c.RecordQuestionAsked()
	if _, _, _, done := c.Current(); !done {
		t.Fatalf("expected terminal after quota on the only topic")
	}
}
