package chat

import (
	"strings"
	"unicode/utf8"
)

// ReplyLimit is the platform ceiling for a single outbound message.
const ReplyLimit = 2000

// SplitReply breaks an oversized reply into consecutive chunks of at
// most limit bytes, preferring sentence boundaries. Concatenating the
// chunks reproduces the original text byte for byte.
func SplitReply(text string, limit int) []string {
	if limit <= 0 {
		limit = ReplyLimit
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := lastSentenceEnd(text[:limit])
		if cut <= 0 {
			// no boundary in range, hard cut on a rune edge
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// lastSentenceEnd returns the index just past the last sentence
// terminator, or 0 when there is none.
func lastSentenceEnd(s string) int {
	idx := strings.LastIndexAny(s, ".!?\n")
	if idx == -1 {
		return 0
	}
	return idx + 1
}
