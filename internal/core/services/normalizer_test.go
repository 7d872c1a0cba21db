package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

func TestNormalizeQuestion_ValidPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"topic": "La membrane plasmique",
		"rationale": "Notion centrale du chapitre",
		"propositions": [
			{"statement": "Elle est composée d'une bicouche lipidique", "isTrue": true, "explanation": "Exact."},
			{"statement": "Elle est totalement imperméable", "isTrue": false, "explanation": "Faux, perméabilité sélective."},
			{"statement": "Elle contient des protéines", "isTrue": true, "explanation": "Exact."},
			{"statement": "Elle est rigide", "isTrue": false, "explanation": "Faux, elle est fluide."},
			{"statement": "Elle délimite la cellule", "isTrue": true, "explanation": "Exact."}
		]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "qcm_test_0" {
		t.Errorf("expected assigned id, got %q", q.ID)
	}
	if q.Topic != "La membrane plasmique" {
		t.Errorf("unexpected topic %q", q.Topic)
	}
	if q.Rationale == "" {
		t.Error("expected rationale preserved")
	}
	if len(q.Propositions) != domain.PropositionCount {
		t.Fatalf("expected %d propositions, got %d", domain.PropositionCount, len(q.Propositions))
	}
	if !q.Propositions[0].IsTrue || q.Propositions[1].IsTrue {
		t.Error("truth values not preserved")
	}
}

func TestNormalizeQuestion_KeepsPayloadID(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "qcm_custom",
		"topic": "Sujet",
		"propositions": [{"statement": "Affirmation", "isTrue": true}]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "qcm_custom" {
		t.Errorf("expected payload id kept, got %q", q.ID)
	}
}

func TestNormalizeQuestion_PadsShortList(t *testing.T) {
	raw := json.RawMessage(`{
		"topic": "Sujet court",
		"propositions": [
			{"statement": "Seule affirmation", "isTrue": true, "explanation": "Exact."}
		]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Propositions) != domain.PropositionCount {
		t.Fatalf("expected padding to %d, got %d", domain.PropositionCount, len(q.Propositions))
	}
	for i := 1; i < domain.PropositionCount; i++ {
		p := q.Propositions[i]
		if p.Statement != fillerStatement || p.IsTrue || p.Explanation != fillerExplanation {
			t.Errorf("proposition %d is not a marked filler: %+v", i, p)
		}
	}
}

func TestNormalizeQuestion_TruncatesLongList(t *testing.T) {
	props := make([]map[string]any, 8)
	for i := range props {
		props[i] = map[string]any{"statement": "Affirmation", "isTrue": i == 0}
	}
	raw, _ := json.Marshal(map[string]any{"topic": "Sujet", "propositions": props})

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Propositions) != domain.PropositionCount {
		t.Fatalf("expected truncation to %d, got %d", domain.PropositionCount, len(q.Propositions))
	}
}

func TestNormalizeQuestion_ForcesOneTrue(t *testing.T) {
	raw := json.RawMessage(`{
		"topic": "Sujet",
		"propositions": [
			{"statement": "Fausse 1", "isTrue": false, "explanation": "Faux."},
			{"statement": "Fausse 2", "isTrue": false, "explanation": "Faux."}
		]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Propositions[0].IsTrue {
		t.Fatal("expected first proposition forced true")
	}
	if q.Propositions[0].Explanation != forcedTrueNotice {
		t.Errorf("expected corrective notice, got %q", q.Propositions[0].Explanation)
	}
	if !q.HasTrueProposition() {
		t.Error("invariant violated: no true proposition")
	}
}

func TestNormalizeQuestion_KeySynonyms(t *testing.T) {
	raw := json.RawMessage(`{
		"Topic": "Sujet alternatif",
		"Propositions": [
			{"text": "Affirmation via text", "truth": "vrai", "justification": "Exact."},
			{"Statement": "Affirmation capitalisee", "IsTrue": 1, "Explanation": "Exact."}
		]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Topic != "Sujet alternatif" {
		t.Errorf("capitalized topic key not honored: %q", q.Topic)
	}
	if q.Propositions[0].Statement != "Affirmation via text" || !q.Propositions[0].IsTrue {
		t.Errorf("text/truth synonyms not honored: %+v", q.Propositions[0])
	}
	if q.Propositions[0].Explanation != "Exact." {
		t.Errorf("justification synonym not honored: %+v", q.Propositions[0])
	}
	if q.Propositions[1].Statement != "Affirmation capitalisee" || !q.Propositions[1].IsTrue {
		t.Errorf("capitalized proposition keys not honored: %+v", q.Propositions[1])
	}
}

func TestNormalizeQuestion_SkipsEmptyStatements(t *testing.T) {
	raw := json.RawMessage(`{
		"topic": "Sujet",
		"propositions": [
			{"statement": "   ", "isTrue": true},
			{"statement": "Affirmation valide", "isTrue": true, "explanation": "Exact."}
		]
	}`)

	q, err := NormalizeQuestion(raw, "qcm_test_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Propositions[0].Statement != "Affirmation valide" {
		t.Errorf("expected blank statement skipped, got %q", q.Propositions[0].Statement)
	}
}

func TestNormalizeQuestion_InvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `pas du json du tout`},
		{"missing topic", `{"propositions": [{"statement": "Affirmation", "isTrue": true}]}`},
		{"blank topic", `{"topic": "  ", "propositions": [{"statement": "Affirmation", "isTrue": true}]}`},
		{"no propositions", `{"topic": "Sujet", "propositions": []}`},
		{"only blank statements", `{"topic": "Sujet", "propositions": [{"statement": ""}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeQuestion(json.RawMessage(tc.raw), "qcm_test_0")
			if !errors.Is(err, domain.ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}
