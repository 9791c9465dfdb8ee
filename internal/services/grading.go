package services

import (
	"strconv"
	"strings"

	"smartstudy/internal/models"
)

// Grade checks a submitted answer against a quiz item.
//
// Multiple choice expects the 0-based option index (a bare letter A-D is
// also accepted). Fill-in-the-blank matches case-insensitively in either
// direction, so "resume" passes against "a resume". Short answers pass when
// at least half of the expected answer's keywords appear in the submission.
func Grade(item models.QuizItem, submitted string) bool {
	submitted = strings.TrimSpace(submitted)

	switch item.Type {
	case models.ItemMultipleChoice:
		idx, ok := parseOptionIndex(submitted)
		return ok && idx == item.CorrectIndex
	case models.ItemFillBlank:
		got := strings.ToLower(submitted)
		want := strings.ToLower(strings.TrimSpace(item.Answer))
		if got == "" || want == "" {
			return false
		}
		return strings.Contains(got, want) || strings.Contains(want, got)
	case models.ItemShortAnswer:
		return keywordScore(item.Answer, submitted) >= 0.5
	default:
		return false
	}
}

func parseOptionIndex(submitted string) (int, bool) {
	if idx, err := strconv.Atoi(submitted); err == nil {
		return idx, true
	}
	if len(submitted) == 1 {
		c := submitted[0]
		switch {
		case c >= 'A' && c <= 'Z':
			return int(c - 'A'), true
		case c >= 'a' && c <= 'z':
			return int(c - 'a'), true
		}
	}
	return 0, false
}

// keywordScore is the fraction of expected-answer keywords present in the
// submission, case-insensitively.
func keywordScore(expected, submitted string) float64 {
	keywords := strings.Fields(strings.ToLower(expected))
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(submitted)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}
