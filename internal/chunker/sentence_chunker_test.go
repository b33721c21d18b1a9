package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)

	_, err = New(-10, 0)
	require.Error(t, err)

	_, err = New(100, 100)
	require.Error(t, err)

	_, err = New(100, -1)
	require.Error(t, err)

	_, err = New(100, 99)
	require.NoError(t, err)
}

func TestChunk_EmptyAndWhitespaceInput(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n\t  "))
}

func TestChunk_SingleSmallText(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	chunks := c.Chunk("A cat sat. A dog ran.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A cat sat. A dog ran.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, len("A cat sat. A dog ran."), chunks[0].CharCount)
}

func TestChunk_SplitsAtSizeBound(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	chunks := c.Chunk("A cat sat. A dog ran far away today. A bird flew high.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "A cat sat. A dog ran far away today.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, 1, chunks[1].ChunkID)
	assert.Contains(t, chunks[1].Text, "A bird flew high.")
}

func TestChunk_OverlapSeedsNextChunk(t *testing.T) {
	// The closed chunk ends with a sentence short enough to fit the overlap
	// window, so the next chunk must start with it.
	c, err := New(35, 10)
	require.NoError(t, err)

	chunks := c.Chunk("Alpha beta gamma delta. Tiny one. Third sentence arrives now.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha beta gamma delta. Tiny one.", chunks[0].Text)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "Tiny one."),
		"second chunk should begin with the overlap sentence, got %q", chunks[1].Text)
}

func TestChunk_OverlapNeverExceedsLimit(t *testing.T) {
	c, err := New(60, 20)
	require.NoError(t, err)

	text := "One short line here. Another short line here. A third short line here. " +
		"A fourth short line goes here. And then a fifth line arrives. Finally a sixth one."
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// Every sentence that opens chunk i+1 before the splitting sentence must
	// come from the tail of chunk i, and their combined length must stay
	// within the overlap limit.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		overlapChars := 0
		for _, s := range SplitSentences(chunks[i].Text) {
			if !strings.Contains(prev, s) {
				break
			}
			overlapChars += len(s)
		}
		assert.LessOrEqual(t, overlapChars, 20, "chunk %d overlap too large", i)
	}
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	c, err := New(20, 5)
	require.NoError(t, err)

	long := "This single sentence is far longer than the configured chunk size bound."
	chunks := c.Chunk(long + " Tail.")
	require.Len(t, chunks, 2)
	assert.Equal(t, long, chunks[0].Text, "oversized sentence must not be truncated")
	assert.Equal(t, "Tail.", chunks[1].Text)
}

func TestChunk_CoversEverySentenceInOrder(t *testing.T) {
	c, err := New(40, 10)
	require.NoError(t, err)

	text := "The sun rose early. Birds began to sing. A river ran through the valley. " +
		"Children walked to school. The market opened at nine. Everyone met in the square."
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	joined := ""
	for _, ch := range chunks {
		joined += ch.Text + " "
	}
	last := -1
	for _, sentence := range SplitSentences(text) {
		idx := strings.Index(joined, sentence)
		require.GreaterOrEqual(t, idx, 0, "sentence %q missing from chunks", sentence)
		assert.Greater(t, idx, last, "sentence %q out of order", sentence)
		last = idx
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(45, 15)
	require.NoError(t, err)

	text := "First sentence here. Second one follows. Third one too! Fourth asks a question? Fifth closes."
	a := c.Chunk(text)
	b := c.Chunk(text)
	assert.Equal(t, a, b)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two! Three? Four without terminator")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four without terminator"}, got)

	// A decimal point is not followed by whitespace, so it never splits.
	got = SplitSentences("Pi is 3.14 exactly. And that is that.")
	assert.Equal(t, []string{"Pi is 3.14 exactly.", "And that is that."}, got)

	assert.Nil(t, SplitSentences("  "))
}
