package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Topic is a subject within a domain with its own pattern cycle.
type Topic struct {
	Name     string
	Patterns []string
}

// Domain is a top-level skill grouping in the interview plan.
type Domain struct {
	Name   string
	Topics []Topic
}

// Plan is the ordered domain -> topic -> patterns structure an interview
// walks. It is immutable once loaded for a session.
type Plan []Domain

// ParsePlan decodes the JSON object form {"domain":{"topic":["pattern",...]}}
// into a Plan. Key order in the JSON is preserved, which is why this uses a
// token stream instead of a map. Malformed plans are rejected here so the
// cursor never sees one.
func ParsePlan(raw []byte) (Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("invalid plan: expected object, got %v", tok)
	}
	plan, err := parseDomains(dec)
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("invalid plan: no domains")
	}
	return plan, nil
}

func parseDomains(dec *json.Decoder) (Plan, error) {
	var plan Plan
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid plan: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid plan: bad domain key %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid plan: %w", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("invalid plan: domain %q must map to an object", name)
		}
		var topics []Topic
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid plan: %w", err)
			}
			topicName, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("invalid plan: bad topic key %v", tok)
			}
			var patterns []string
			if err := dec.Decode(&patterns); err != nil {
				return nil, fmt.Errorf("invalid plan: topic %q patterns: %w", topicName, err)
			}
			if len(patterns) == 0 {
				return nil, fmt.Errorf("invalid plan: topic %q has no patterns", topicName)
			}
			for _, p := range patterns {
				if p == "" {
					return nil, fmt.Errorf("invalid plan: topic %q has an empty pattern", topicName)
				}
			}
			topics = append(topics, Topic{Name: topicName, Patterns: patterns})
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, fmt.Errorf("invalid plan: %w", err)
		}
		if len(topics) == 0 {
			return nil, fmt.Errorf("invalid plan: domain %q has no topics", name)
		}
		plan = append(plan, Domain{Name: name, Topics: topics})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return plan, nil
}

// MarshalJSON renders the plan back into the stored object form with domain
// and topic order intact.
func (p Plan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(d.Name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteByte('{')
		for j, t := range d.Topics {
			if j > 0 {
				buf.WriteByte(',')
			}
			tkey, _ := json.Marshal(t.Name)
			buf.Write(tkey)
			buf.WriteByte(':')
			pats, err := json.Marshal(t.Patterns)
			if err != nil {
				return nil, err
			}
			buf.Write(pats)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
