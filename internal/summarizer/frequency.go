// Package summarizer produces short extractive summaries of ingested
// documents for display in the terminal UI.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"quizrag/internal/chunker"
	"quizrag/internal/index"
)

// FrequencySummarizer ranks sentences by normalized token frequency
// (stopwords filtered) and keeps the top ones in original order.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Summarize returns up to maxSentences sentences of text, chosen by
// frequency score and joined in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := chunker.SplitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range index.Tokenize(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		tokens := index.Tokenize(sent)
		score := 0.0
		for _, tok := range tokens {
			if v, ok := freq[tok]; ok {
				score += v
			}
		}
		// Length normalization so long sentences do not dominate.
		if l := float64(len(tokens)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"the", "and", "but", "for", "are", "was", "were", "been", "being",
		"this", "that", "these", "those", "from", "down", "over", "under",
		"again", "further", "than", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just", "now",
		"les", "des", "une", "est", "dans", "pour", "que", "qui", "sur",
		"avec", "par", "pas", "plus", "ses", "son", "aux", "ont", "mais",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
