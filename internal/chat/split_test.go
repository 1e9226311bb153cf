package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitReplyShortMessage(t *testing.T) {
	chunks := SplitReply("short reply", ReplyLimit)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short reply", chunks[0])
}

func TestSplitReplyPrefersSentenceBoundary(t *testing.T) {
	first := strings.Repeat("a", 1500) + "."
	second := " " + strings.Repeat("b", 600)
	chunks := SplitReply(first+second, ReplyLimit)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestSplitReplyHardCutWithoutPunctuation(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := SplitReply(text, ReplyLimit)

	require.GreaterOrEqual(t, len(chunks), 2)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), ReplyLimit)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitReplyConcatenationIsExact(t *testing.T) {
	text := strings.Repeat("One sentence here. Another one follows! Is that all? ", 100)
	chunks := SplitReply(text, ReplyLimit)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), ReplyLimit)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitReplyNeverBreaksRunes(t *testing.T) {
	text := strings.Repeat("ж", 1500)
	chunks := SplitReply(text, ReplyLimit)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), ReplyLimit)
		assert.True(t, strings.HasPrefix(chunk, "ж"))
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}
