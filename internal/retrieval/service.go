// Package retrieval orchestrates chunking and indexing per document and
// exposes query-time context retrieval for downstream consumers.
package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"quizrag/internal/chunker"
	"quizrag/internal/domain"
	"quizrag/internal/index"
)

const (
	// contextSeparator delimits retrieved passages so a downstream consumer
	// can split the context string back into individual chunks.
	contextSeparator = "\n\n---\n\n"

	// fallbackContextChars bounds the corpus prefix returned when a query
	// produces no results.
	fallbackContextChars = 3000
)

// Service deduplicates whole documents by content hash, feeds new documents
// through the chunker into the index, and formats retrieved chunks into
// context strings. Documents are immutable once added; the only way to
// remove anything is Clear.
type Service struct {
	mu      sync.RWMutex
	chunker *chunker.TextChunker
	index   *index.TFIDFIndex
	seen    map[string]struct{}
}

func NewService(chunkSize, chunkOverlap int) (*Service, error) {
	c, err := chunker.New(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Service{
		chunker: c,
		index:   index.New(),
		seen:    make(map[string]struct{}),
	}, nil
}

// AddDocument ingests one document and returns the number of chunks created.
// A document whose exact content was seen before is skipped and returns 0,
// with no side effects. An empty document also returns 0; that is not an
// error.
func (s *Service) AddDocument(text, documentID string) int {
	digest := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(digest[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[hash]; dup {
		return 0
	}
	s.seen[hash] = struct{}{}

	chunks := s.chunker.Chunk(text)
	s.index.Add(chunks, documentID)
	return len(chunks)
}

// Search returns the topK most relevant chunks for the query.
func (s *Service) Search(query string, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Search(query, topK)
}

// GetRelevantContext retrieves the topK chunks for the query and joins their
// text with a visible separator, preserving ranking order. When the search
// yields nothing (empty index) it degrades to a bounded prefix of the full
// corpus instead of failing.
func (s *Service) GetRelevantContext(query string, topK int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.index.Search(query, topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return truncateRunes(s.fullContextLocked(), fallbackContextChars), nil
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}
	return strings.Join(parts, contextSeparator), nil
}

// GetFullContext concatenates every stored chunk in insertion order.
func (s *Service) GetFullContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullContextLocked()
}

func (s *Service) fullContextLocked() string {
	return strings.Join(s.index.Texts(), "\n\n")
}

// Stats reports chunk and document counts. Duplicate submissions are not
// counted as documents.
func (s *Service) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Stats{
		TotalChunks:     s.index.TotalChunks(),
		UniqueDocuments: len(s.seen),
	}
}

// Clear empties the index and the dedup set together; no caller observes
// one cleared without the other.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Clear()
	s.seen = make(map[string]struct{})
}

func truncateRunes(s string, n int) string {
	if utf8Len := len([]rune(s)); utf8Len <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var _ domain.Retriever = (*Service)(nil)
