package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// Filler texts for padded propositions and the forced-true correction.
// The quiz invariant "exactly five propositions, at least one true" is
// worth more to a self-assessment tool than factual fidelity of a filler
// entry, so the normalizer repairs rather than rejects short payloads.
const (
	fillerStatement   = "Proposition supplémentaire"
	fillerExplanation = "Proposition générée automatiquement"
	forcedTrueNotice  = "Correction automatique: Au moins une réponse doit être vraie."
)

// rawQuestion tolerates the key variants the model is known to emit.
type rawQuestion struct {
	ID           string           `json:"id"`
	Topic        string           `json:"topic"`
	TopicAlt     string           `json:"Topic"`
	Rationale    string           `json:"rationale"`
	RationaleAlt string           `json:"Rationale"`
	Propositions []rawProposition `json:"propositions"`
	PropsAlt     []rawProposition `json:"Propositions"`
}

type rawProposition struct {
	Statement      string          `json:"statement"`
	StatementAlt   string          `json:"Statement"`
	Text           string          `json:"text"`
	IsTrue         json.RawMessage `json:"isTrue"`
	IsTrueAlt      json.RawMessage `json:"IsTrue"`
	Truth          json.RawMessage `json:"truth"`
	Explanation    string          `json:"explanation"`
	ExplanationAlt string          `json:"Explanation"`
	Justification  string          `json:"justification"`
}

// NormalizeQuestion validates and repairs raw model output into a canonical
// question. id is assigned only when the payload did not supply one.
//
// Repair policy (padding variant): proposition lists longer than five are
// truncated, shorter ones are padded with marked synthetic fillers, and if
// no proposition ends up true the first is forced true with a corrective
// explanation. Returns domain.ErrInvalidPayload when the topic is empty or
// the payload supplied no usable propositions at all.
func NormalizeQuestion(raw json.RawMessage, id string) (*domain.GeneratedQuestion, error) {
	var rq rawQuestion
	if err := json.Unmarshal(raw, &rq); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	topic := strings.TrimSpace(firstOf(rq.Topic, rq.TopicAlt))
	if topic == "" {
		return nil, fmt.Errorf("%w: missing topic", domain.ErrInvalidPayload)
	}

	rawProps := rq.Propositions
	if len(rawProps) == 0 {
		rawProps = rq.PropsAlt
	}

	props := make([]domain.Proposition, 0, domain.PropositionCount)
	for _, rp := range rawProps {
		if len(props) == domain.PropositionCount {
			break
		}
		statement := strings.TrimSpace(firstOf(rp.Statement, rp.StatementAlt, rp.Text))
		if statement == "" {
			continue
		}
		props = append(props, domain.Proposition{
			Statement:   statement,
			IsTrue:      coerceBool(rp.IsTrue, rp.IsTrueAlt, rp.Truth),
			Explanation: strings.TrimSpace(firstOf(rp.Explanation, rp.ExplanationAlt, rp.Justification)),
		})
	}

	if len(props) == 0 {
		return nil, fmt.Errorf("%w: no usable propositions", domain.ErrInvalidPayload)
	}

	for len(props) < domain.PropositionCount {
		props = append(props, domain.Proposition{
			Statement:   fillerStatement,
			IsTrue:      false,
			Explanation: fillerExplanation,
		})
	}

	question := &domain.GeneratedQuestion{
		ID:           strings.TrimSpace(rq.ID),
		Topic:        topic,
		Rationale:    strings.TrimSpace(firstOf(rq.Rationale, rq.RationaleAlt)),
		Propositions: props,
	}
	if question.ID == "" {
		question.ID = id
	}

	if !question.HasTrueProposition() {
		question.Propositions[0].IsTrue = true
		question.Propositions[0].Explanation = forcedTrueNotice
	}

	return question, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// coerceBool accepts JSON booleans, the strings "true"/"vrai", and nonzero
// numbers across the known key variants.
func coerceBool(candidates ...json.RawMessage) bool {
	for _, c := range candidates {
		if len(c) == 0 {
			continue
		}
		var b bool
		if err := json.Unmarshal(c, &b); err == nil {
			return b
		}
		var s string
		if err := json.Unmarshal(c, &s); err == nil {
			s = strings.ToLower(strings.TrimSpace(s))
			return s == "true" || s == "vrai"
		}
		var n float64
		if err := json.Unmarshal(c, &n); err == nil {
			return n != 0
		}
	}
	return false
}
