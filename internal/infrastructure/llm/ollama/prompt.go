package ollama

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxPromptSnippet = 4000

func buildScoringPrompt(text string, candidateLabels []string) string {
	snippet := truncateUTF8(text, maxPromptSnippet)

	return fmt.Sprintf(`You are a document classifier.
Candidate labels: %s.
Return strict JSON object with keys:
labels (array of every candidate label), scores (array of numbers from 0 to 1, same order as labels, summing to 1).
Use "other" when no label fits. No markdown, no extra keys.

Document:
%s`, strings.Join(candidateLabels, ", "), snippet)
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
