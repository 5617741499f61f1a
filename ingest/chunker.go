package ingest

import (
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultChunkSize = 500
	defaultOverlap   = 100
)

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences cuts text after terminal punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		end := loc[0]
		for end < loc[1] && !isSpace(text[end]) {
			end++
		}
		sentences = append(sentences, strings.TrimSpace(text[last:end]))
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ChunkText splits text into chunks of roughly chunkSize characters on
// sentence boundaries, carrying a tail of up to overlap characters into the
// next chunk so no sentence loses its surrounding context.
func ChunkText(text string, chunkSize, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	current := ""
	for _, sentence := range splitSentences(text) {
		if current != "" && len(current)+len(sentence)+1 > chunkSize {
			chunks = append(chunks, strings.TrimSpace(current))
			current = overlapTail(current, overlap) + " " + sentence
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// overlapTail keeps the last few words of a chunk, capped at overlap
// characters.
func overlapTail(chunk string, overlap int) string {
	words := strings.Fields(chunk)
	keep := overlap / 5
	tail := chunk
	if len(words) > keep {
		tail = strings.Join(words[len(words)-keep:], " ")
	}
	if len(tail) > overlap {
		tail = tail[len(tail)-overlap:]
	}
	return strings.TrimSpace(tail)
}

// Truncator caps text at the embedding model's token window.
type Truncator struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

func NewTruncator(encoding string, maxTokens int) (*Truncator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &Truncator{enc: enc, maxTokens: maxTokens}, nil
}

func (t *Truncator) Truncate(text string) string {
	ids := t.enc.Encode(text, nil, nil)
	if len(ids) <= t.maxTokens {
		return text
	}
	return t.enc.Decode(ids[:t.maxTokens])
}
