// Package chunker splits raw document text into overlapping, size-bounded
// chunks along sentence boundaries.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"quizrag/internal/domain"
)

// sentenceBoundary matches sentence-terminal punctuation followed by
// whitespace. The punctuation stays with the sentence it ends, so strings
// like "3.14" never split.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// TextChunker accumulates sentences into chunks of roughly chunkSize
// characters, seeding each new chunk with up to chunkOverlap characters of
// trailing sentences from the previous one. The size bound is soft: a single
// sentence longer than chunkSize still becomes one whole chunk.
type TextChunker struct {
	chunkSize    int
	chunkOverlap int
}

func New(chunkSize, chunkOverlap int) (*TextChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", chunkOverlap)
	}
	return &TextChunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits text into ordered chunks with sequential 0-based IDs.
// Empty or whitespace-only input yields no chunks.
func (c *TextChunker) Chunk(text string) []domain.Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen+sentenceLen <= c.chunkSize {
			current = append(current, sentence)
			currentLen += sentenceLen + 1 // +1 for the joining space
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, buildChunk(current, len(chunks)))
		}
		current = append(c.overlapTail(current), sentence)
		currentLen = len(current) // one separator slot per sentence
		for _, s := range current {
			currentLen += utf8.RuneCountInString(s)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, buildChunk(current, len(chunks)))
	}
	return chunks
}

// overlapTail returns the longest run of trailing whole sentences whose
// combined length stays within chunkOverlap, in original order.
func (c *TextChunker) overlapTail(sentences []string) []string {
	var tail []string
	chars := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(sentences[i])
		if chars+n > c.chunkOverlap {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		chars += n
	}
	return tail
}

func buildChunk(sentences []string, id int) domain.Chunk {
	text := strings.Join(sentences, " ")
	return domain.Chunk{
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
		ChunkID:   id,
	}
}

// SplitSentences splits text on sentence-terminal punctuation followed by
// whitespace. Fragments are trimmed and blanks discarded; a trailing
// fragment without terminal punctuation is kept as its own sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
