package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

func TestChunkDocument_HeadingStructure(t *testing.T) {
	text := strings.Join([]string{
		"Introduction au module avec quelques lignes de contexte general",
		"pour donner du corps au premier fragment du document.",
		"1. Anatomie du coeur",
		"Le coeur est un organe musculaire creux situe dans le mediastin.",
		"Il comporte quatre cavites et assure la circulation sanguine.",
		"2. Physiologie cardiaque",
		"Le cycle cardiaque alterne systole et diastole sous controle nerveux.",
		"Le debit cardiaque depend de la frequence et du volume d'ejection.",
		"Chapitre 3 Pathologies",
		"L'insuffisance cardiaque est une incapacite de la pompe cardiaque.",
		"Elle se manifeste par une dyspnee et des oedemes peripheriques.",
	}, "\n")

	chunker := NewChunker(DefaultChunkerConfig())
	chunks, err := chunker.ChunkDocument(text, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	if chunks[0].Heading != "Introduction" {
		t.Errorf("expected default heading for preamble, got %q", chunks[0].Heading)
	}
	if chunks[1].Heading != "1. Anatomie du coeur" {
		t.Errorf("unexpected heading %q", chunks[1].Heading)
	}
	if chunks[3].Heading != "Chapitre 3 Pathologies" {
		t.Errorf("unexpected heading %q", chunks[3].Heading)
	}
	for i, ch := range chunks {
		if ch.ID == "" {
			t.Errorf("chunk %d missing id", i)
		}
		if ch.PageRange == "" || ch.StartPage < 1 || ch.EndPage < ch.StartPage {
			t.Errorf("chunk %d has bad page data: %+v", i, ch)
		}
	}
}

// Heading lines stay inside chunk bodies, so joining all chunk contents
// must preserve every non-blank source line.
func TestChunkDocument_PreservesSourceLines(t *testing.T) {
	text := strings.Join([]string{
		"1. Premiere partie du cours",
		"Un contenu suffisamment long pour constituer un fragment valide du texte.",
		"2. Deuxieme partie du cours",
		"Encore un contenu suffisamment long pour constituer un fragment valide.",
		"3. Troisieme partie du cours",
		"Un dernier contenu suffisamment long pour constituer un fragment valide.",
	}, "\n")

	chunker := NewChunker(DefaultChunkerConfig())
	chunks, err := chunker.ChunkDocument(text, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var joined strings.Builder
	for _, ch := range chunks {
		joined.WriteString(ch.Content)
		joined.WriteString("\n")
	}
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(joined.String(), line) {
			t.Errorf("source line lost during chunking: %q", line)
		}
	}
}

func TestChunkDocument_FixedSizeFallback(t *testing.T) {
	// No heading markers at all: a long run of prose
	word := "cardiologie "
	text := strings.Repeat(word, 1000)

	chunker := NewChunker(DefaultChunkerConfig())
	chunks, err := chunker.ChunkDocument(text, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple fixed-size chunks, got %d", len(chunks))
	}
	maxChars := 400 * 4
	for i, ch := range chunks {
		if !strings.HasPrefix(ch.Heading, "Partie ") {
			t.Errorf("chunk %d heading %q does not look like a fallback label", i, ch.Heading)
		}
		if len(ch.Content) > maxChars+len(word) {
			t.Errorf("chunk %d exceeds the size budget: %d chars", i, len(ch.Content))
		}
	}
}

func TestChunkDocument_TooFewHeadingsFallsBack(t *testing.T) {
	// A single heading is below the structural threshold
	text := "1. Seul titre du document\n" + strings.Repeat("contenu sans structure particuliere ", 200)

	chunker := NewChunker(DefaultChunkerConfig())
	chunks, err := chunker.ChunkDocument(text, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, ch := range chunks {
		if !strings.HasPrefix(ch.Heading, "Partie ") {
			t.Errorf("chunk %d: expected fixed-size fallback headings, got %q", i, ch.Heading)
		}
	}
}

func TestChunkDocument_EmptyDocument(t *testing.T) {
	chunker := NewChunker(DefaultChunkerConfig())

	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		if _, err := chunker.ChunkDocument(text, 1); !errors.Is(err, domain.ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument for %q, got %v", text, err)
		}
	}
}

func TestChunkDocument_PageEstimation(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		b.WriteString("Section ")
		b.WriteString(strings.Repeat("i", 1))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("du texte reparti de maniere uniforme sur le document ", 20))
		b.WriteString("\n")
	}

	chunker := NewChunker(DefaultChunkerConfig())
	chunks, err := chunker.ChunkDocument(b.String(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].StartPage != 1 {
		t.Errorf("expected first chunk to start at page 1, got %d", chunks[0].StartPage)
	}
	last := chunks[len(chunks)-1]
	if last.EndPage > 8 {
		t.Errorf("end page beyond document: %d", last.EndPage)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartPage < chunks[i-1].StartPage {
			t.Errorf("page estimates not monotonic at chunk %d", i)
		}
	}
}

func TestIsHeading(t *testing.T) {
	headings := []string{
		"1. Introduction",
		"2.3 Sous-section",
		"IV. Quatrieme partie",
		"Item 42",
		"ITEM 108 - Confusion",
		"Chapitre 2 La cellule",
		"Section A organisation",
		"LES GRANDES FONCTIONS",
	}
	for _, h := range headings {
		if !isHeading(h) {
			t.Errorf("expected %q to be a heading", h)
		}
	}

	notHeadings := []string{
		"",
		"une phrase ordinaire du document",
		"1,5 mg par jour en moyenne",
		strings.Repeat("A", 130),
	}
	for _, h := range notHeadings {
		if isHeading(h) {
			t.Errorf("expected %q not to be a heading", h)
		}
	}
}
