package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// maxContentChars caps the chunk excerpt included in the prompt so a
// single oversized chunk cannot blow the context window.
const maxContentChars = 3000

const systemPrompt = `Tu es un générateur de questions de révision pour étudiants.
À partir d'un extrait de cours, tu produis UNE question de type vrai/faux composée d'un sujet et d'exactement 5 propositions.
Réponds UNIQUEMENT avec un objet JSON de la forme:
{"topic": "...", "rationale": "...", "propositions": [{"statement": "...", "isTrue": true, "explanation": "..."}]}
Contraintes:
- exactement 5 propositions
- au moins une proposition vraie et au moins une fausse
- chaque proposition porte sur le contenu de l'extrait, jamais sur sa forme
- les explications justifient brièvement pourquoi la proposition est vraie ou fausse`

// strictSystemPrompt is used for the recovery attempt after an invalid
// JSON response.
const strictSystemPrompt = systemPrompt + `
IMPORTANT: ta réponse précédente n'était pas du JSON valide. Réponds avec un unique objet JSON, sans texte avant ou après, sans balises de code.`

var toneInstructions = map[string]string{
	"concis":   "Style: propositions courtes et directes, une phrase chacune.",
	"detaille": "Style: propositions développées avec des explications complètes.",
	"humour":   "Style: ton léger avec une pointe d'humour, sans sacrifier l'exactitude.",
}

// buildUserPrompt assembles the per-chunk instruction message.
func buildUserPrompt(prompt driven.QuestionPrompt) string {
	content := prompt.Content
	if len(content) > maxContentChars {
		// Back up to a rune boundary so accented text is never cut
		// mid-sequence.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Section du cours: %s\n\n", prompt.Heading)
	fmt.Fprintf(&b, "Extrait:\n%s\n\n", content)

	if instruction, ok := toneInstructions[strings.ToLower(prompt.Tone)]; ok {
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	if prompt.Reuse {
		b.WriteString("Cette section a déjà servi pour une question précédente: choisis un angle DIFFÉRENT et ne répète pas les mêmes propositions.\n")
	}
	b.WriteString("Génère la question maintenant.")
	return b.String()
}
