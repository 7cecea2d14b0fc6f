package interview

// DefaultQuestionsPerTopic is the per-topic question quota before the cursor
// moves to the next topic.
const DefaultQuestionsPerTopic = 2

// CompletedSentinel is returned for every question request once the plan is
// exhausted.
const CompletedSentinel = "All topics completed."

// Cursor walks the interview plan deterministically: patterns cycle within a
// topic, topics advance after the question quota, domains advance after their
// topics. The terminal state is absorbing.
type Cursor struct {
	plan Plan

	domainIndex   int
	topicIndex    int
	patternIndex  int
	questionCount int
	maxPerTopic   int
	done          bool
}

// NewCursor starts at the first domain with all indices zero. The plan must
// have been validated by ParsePlan. questionsPerTopic <= 0 selects the
// default quota.
func NewCursor(plan Plan, questionsPerTopic int) *Cursor {
	if questionsPerTopic <= 0 {
		questionsPerTopic = DefaultQuestionsPerTopic
	}
	return &Cursor{plan: plan, maxPerTopic: questionsPerTopic, done: len(plan) == 0}
}

// Done reports whether all domains are exhausted.
func (c *Cursor) Done() bool { return c.done }

// Current returns the position the next question should target. done is true
// in the terminal state, in which case the other values are empty.
func (c *Cursor) Current() (domain, topic, pattern string, done bool) {
	if c.done {
		return "", "", "", true
	}
	d := c.plan[c.domainIndex]
	t := d.Topics[c.topicIndex]
	return d.Name, t.Name, t.Patterns[c.patternIndex%len(t.Patterns)], false
}

// CountInTopic returns how many questions have been asked in the current
// topic so far.
func (c *Cursor) CountInTopic() int { return c.questionCount }

// RecordQuestionAsked advances the pattern cycle and, once the topic quota is
// reached, moves to the next topic. In the terminal state it is a no-op.
func (c *Cursor) RecordQuestionAsked() {
	if c.done {
		return
	}
	c.questionCount++
	c.patternIndex++
	if c.questionCount >= c.maxPerTopic {
		c.advanceTopic()
	}
}

func (c *Cursor) advanceTopic() {
	c.patternIndex = 0
	c.questionCount = 0
	c.topicIndex++
	if c.topicIndex >= len(c.plan[c.domainIndex].Topics) {
		c.topicIndex = 0
		c.domainIndex++
		if c.domainIndex >= len(c.plan) {
			c.done = true
		}
	}
}
