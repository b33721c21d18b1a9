// Package index implements an in-memory TF-IDF scored chunk store.
//
// Chunks are kept in insertion order, which doubles as the tie-break order
// for equally scored search results. Per-term document frequency counts how
// many chunks contain the term at least once.
package index

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"quizrag/internal/domain"
)

// entry pairs a stored chunk with its term-frequency map. The map never
// leaves the index; search results expose only the public chunk fields.
type entry struct {
	chunk domain.Chunk
	tf    map[string]float64
}

// TFIDFIndex holds all chunks from all documents and scores them against
// queries with tf * ln(N/df). A single RWMutex guards ingest and clear
// against concurrent searches.
type TFIDFIndex struct {
	mu      sync.RWMutex
	entries []entry
	docFreq map[string]int
}

func New() *TFIDFIndex {
	return &TFIDFIndex{docFreq: make(map[string]int)}
}

// Add ingests chunks under the given document ID. For each chunk the text is
// tokenized, its TF map computed, and the document frequency of every
// distinct term incremented by exactly one. Chunks with no tokens are still
// stored; they simply score zero against every query.
func (ix *TFIDFIndex) Add(chunks []domain.Chunk, documentID string) {
	if len(chunks) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, ch := range chunks {
		ch.DocumentID = documentID
		tokens := Tokenize(ch.Text)
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			ix.docFreq[t]++
		}
		ix.entries = append(ix.entries, entry{chunk: ch, tf: termFrequencies(tokens)})
	}
}

// Search returns the topK best-scoring chunks for the query, highest first,
// ties broken by insertion order. An empty index yields an empty result; a
// query with no usable tokens yields the first topK chunks unscored.
func (ix *TFIDFIndex) Search(query string, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("top_k must be at least 1, got %d", topK)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil, nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		k := min(topK, len(ix.entries))
		results := make([]domain.SearchResult, 0, k)
		for i := 0; i < k; i++ {
			results = append(results, domain.SearchResult{Chunk: ix.entries[i].chunk})
		}
		return results, nil
	}

	total := float64(len(ix.entries))
	scores := make([]float64, len(ix.entries))
	order := make([]int, len(ix.entries))
	for i, e := range ix.entries {
		score := 0.0
		for _, t := range terms {
			tf, ok := e.tf[t]
			if !ok {
				continue
			}
			if df := ix.docFreq[t]; df > 0 {
				score += tf * math.Log(total/float64(df))
			}
		}
		scores[i] = score
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k := min(topK, len(order))
	results := make([]domain.SearchResult, 0, k)
	for _, j := range order[:k] {
		results = append(results, domain.SearchResult{Chunk: ix.entries[j].chunk, Score: scores[j]})
	}
	return results, nil
}

// Texts returns the text of every stored chunk in insertion order.
func (ix *TFIDFIndex) Texts() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	texts := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		texts[i] = e.chunk.Text
	}
	return texts
}

// TotalChunks reports how many chunks are stored.
func (ix *TFIDFIndex) TotalChunks() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// DocumentFrequency reports how many chunks contain the given term.
func (ix *TFIDFIndex) DocumentFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docFreq[term]
}

// Clear resets the index to empty. Idempotent.
func (ix *TFIDFIndex) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.docFreq = make(map[string]int)
}

// Tokenize lower-cases text and extracts maximal runs of letters and digits,
// discarding tokens of one or two characters.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	for _, t := range tokens {
		tf[t]++
	}
	total := float64(len(tokens))
	for t := range tf {
		tf[t] /= total
	}
	return tf
}
