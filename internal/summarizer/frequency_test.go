package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_PicksFrequentTopicSentences(t *testing.T) {
	text := "Falcons dive at great speed. Falcons hunt falcons and other falcons. " +
		"Unrelated filler sentence here. Falcons falcons falcons everywhere."

	s := NewFrequencySummarizer()
	summary := s.Summarize(text, 2)

	assert.Contains(t, summary, "Falcons")
	assert.NotContains(t, summary, "Unrelated filler")
}

func TestSummarize_KeepsOriginalSentenceOrder(t *testing.T) {
	text := "Rivers carve rivers through rivers. Middle sentence mentions nothing. Rivers flood rivers near rivers."

	s := NewFrequencySummarizer()
	summary := s.Summarize(text, 2)

	first := strings.Index(summary, "Rivers carve")
	second := strings.Index(summary, "Rivers flood")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}

func TestSummarize_ShortTextReturnedWhole(t *testing.T) {
	s := NewFrequencySummarizer()
	assert.Equal(t, "One sentence only.", s.Summarize("One sentence only.", 5))
	assert.Equal(t, "no terminator at all", s.Summarize("  no terminator at all  ", 5))
}

func TestSummarize_NonPositiveLimitDefaults(t *testing.T) {
	text := "First. Second. Third. Fourth. Fifth. Sixth. Seventh."
	s := NewFrequencySummarizer()
	summary := s.Summarize(text, 0)
	assert.Len(t, strings.Split(summary, ". "), 5)
}
