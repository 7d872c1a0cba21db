package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/oppie/internal/core/domain"
)

// ChunkerConfig configures document chunking behavior.
type ChunkerConfig struct {
	// MaxTokensPerChunk bounds the fixed-size fallback chunk size
	MaxTokensPerChunk int

	// AvgCharsPerToken converts the token budget into characters
	AvgCharsPerToken int

	// MinChunkChars filters out chunks with too little content
	MinChunkChars int

	// MinHeadingChunks is the minimum chunk count for the heading pass
	// to be considered successful
	MinHeadingChunks int
}

// DefaultChunkerConfig returns sensible defaults.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokensPerChunk: 400,
		AvgCharsPerToken:  4,
		MinChunkChars:     50,
		MinHeadingChunks:  3,
	}
}

// headingRules are tried in priority order against each trimmed line.
var headingRules = []*regexp.Regexp{
	// Numbered sections: "1.", "2.3", "IV.", "1)"
	regexp.MustCompile(`^(\d+(\.\d+)*|[IVXLC]+)[.)]\s+\S`),
	// Knowledge item markers: "Item 42", "ITEM 108 -"
	regexp.MustCompile(`(?i)^item\s+\d+`),
	// Chapter/section keywords, French and English
	regexp.MustCompile(`(?i)^(chapitre|chapter|section|partie|part)\s+\S`),
	// ALL-CAPS lines of reasonable heading length
	regexp.MustCompile(`^[A-Z0-9ÀÂÇÉÈÊËÎÏÔÛÜ][A-Z0-9ÀÂÇÉÈÊËÎÏÔÛÜ '\-:,]{3,79}$`),
}

// Chunker splits extracted document text into labeled content chunks.
// It prefers structural heading detection and falls back to fixed-size
// slicing when the document has no usable heading structure.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker with the given config.
func NewChunker(config ChunkerConfig) *Chunker {
	if config.MaxTokensPerChunk <= 0 {
		config.MaxTokensPerChunk = 400
	}
	if config.AvgCharsPerToken <= 0 {
		config.AvgCharsPerToken = 4
	}
	if config.MinHeadingChunks <= 0 {
		config.MinHeadingChunks = 3
	}
	return &Chunker{config: config}
}

// ChunkDocument splits text into a non-empty ordered chunk sequence.
// Returns domain.ErrEmptyDocument when the text has no usable content;
// it never returns zero chunks without an error.
func (c *Chunker) ChunkDocument(text string, pageCount int) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	if pageCount < 1 {
		pageCount = 1
	}

	chunks := c.headingPass(text)
	if len(chunks) < c.config.MinHeadingChunks {
		chunks = c.fixedSizePass(text)
	}

	chunks = c.filterShort(chunks)
	if len(chunks) < 2 {
		chunks = c.filterShort(c.fixedSizePass(text))
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	c.assignPages(chunks, len(text), pageCount)
	return chunks, nil
}

// headingPass scans lines for heading-like markers and starts a new chunk
// at each heading once the current chunk has non-trivial content. Heading
// lines stay in the chunk body so concatenating all chunks reconstructs
// the source text.
func (c *Chunker) headingPass(text string) []domain.Chunk {
	lines := strings.Split(text, "\n")

	var chunks []domain.Chunk
	heading := "Introduction"
	var body []string
	bodyLen := 0

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			chunks = append(chunks, domain.Chunk{
				ID:      uuid.NewString(),
				Heading: heading,
				Content: content,
			})
		}
		body = body[:0]
		bodyLen = 0
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeading(trimmed) {
			if bodyLen >= c.config.MinChunkChars {
				flush()
			}
			heading = trimmed
		}
		body = append(body, line)
		if !isHeading(trimmed) {
			bodyLen += len(trimmed)
		}
	}
	flush()

	return chunks
}

func isHeading(line string) bool {
	if line == "" || len(line) > 120 {
		return false
	}
	for _, rule := range headingRules {
		if rule.MatchString(line) {
			return true
		}
	}
	return false
}

// fixedSizePass partitions the full text into roughly equal word-aligned
// slices sized by the token budget.
func (c *Chunker) fixedSizePass(text string) []domain.Chunk {
	maxChars := c.config.MaxTokensPerChunk * c.config.AvgCharsPerToken
	words := strings.Fields(text)

	var chunks []domain.Chunk
	var current []string
	currentLen := 0
	part := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:      uuid.NewString(),
			Heading: fmt.Sprintf("Partie %d", part),
			Content: strings.Join(current, " "),
		})
		part++
		current = current[:0]
		currentLen = 0
	}

	for _, word := range words {
		if currentLen+len(word)+1 > maxChars && len(current) > 0 {
			flush()
		}
		current = append(current, word)
		currentLen += len(word) + 1
	}
	flush()

	return chunks
}

func (c *Chunker) filterShort(chunks []domain.Chunk) []domain.Chunk {
	out := chunks[:0:0]
	for _, ch := range chunks {
		if len(strings.TrimSpace(ch.Content)) >= c.config.MinChunkChars {
			out = append(out, ch)
		}
	}
	return out
}

// assignPages estimates each chunk's page range from its share of the
// document's characters. Extraction flattens page boundaries, so this is
// an approximation for display purposes only.
func (c *Chunker) assignPages(chunks []domain.Chunk, totalChars, pageCount int) {
	if totalChars == 0 {
		totalChars = 1
	}
	offset := 0
	for i := range chunks {
		start := 1 + offset*pageCount/totalChars
		offset += len(chunks[i].Content)
		end := 1 + (offset-1)*pageCount/totalChars
		if start > pageCount {
			start = pageCount
		}
		if end > pageCount {
			end = pageCount
		}
		if end < start {
			end = start
		}
		chunks[i].StartPage = start
		chunks[i].EndPage = end
		if start == end {
			chunks[i].PageRange = fmt.Sprintf("p. %d", start)
		} else {
			chunks[i].PageRange = fmt.Sprintf("p. %d-%d", start, end)
		}
	}
}
