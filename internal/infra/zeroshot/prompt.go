// Package zeroshot turns a general chat model into a multi-label
// zero-shot classifier: one independent score per candidate label.
package zeroshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"home-voice/internal/domain"
)

// SystemPrompt asks for a JSON object with one score per label.
func SystemPrompt(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}

	return fmt.Sprintf(`You are a multi-label zero-shot text classifier for a home voice assistant.

For EACH candidate label below, independently estimate how likely it is that the label applies to the user's sentence, as a number between 0 and 1. Scores do not need to sum to 1.

Candidate labels:
%s

IMPORTANT:
- Some labels are rooms, some are actions, some are household devices and one is "question"
- Give "question" a high score only for general questions that are not device commands
- Include every candidate label exactly once

Respond ONLY with valid JSON (no markdown, no backticks) mapping each label to its score:
{"label": 0.95, "other label": 0.02}`, strings.Join(quoted, "\n"))
}

// ParseScores reads the model reply. The result follows the order of
// labels; labels the model omitted score zero and values are clamped to
// [0, 1].
func ParseScores(raw string, labels []string) ([]domain.Score, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var byLabel map[string]float64
	if err := json.Unmarshal([]byte(text), &byLabel); err != nil {
		return nil, fmt.Errorf("parsing scores JSON (%s): %w", text, err)
	}

	scores := make([]domain.Score, len(labels))
	for i, l := range labels {
		s := byLabel[l]
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		scores[i] = domain.Score{Label: l, Score: s}
	}
	return scores, nil
}
