package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"smartstudy/internal/models"
)

// quizSchema is the JSON shape both providers are instructed to produce.
type quizSchema struct {
	Questions []questionSchema `json:"questions"`
}

type questionSchema struct {
	Type         string   `json:"type"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correct_index"`
	Hint         string   `json:"hint,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

// extractJSON removes markdown code block formatting if present and extracts the JSON
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			content = content[start:]
		}
	}

	content = strings.TrimSpace(content)

	if startIdx := strings.Index(content, "{"); startIdx != -1 {
		if endIdx := strings.LastIndex(content, "}"); endIdx != -1 && endIdx > startIdx {
			content = content[startIdx : endIdx+1]
		}
	}

	return strings.TrimSpace(content)
}

// parseQuizItems decodes a raw model completion into validated quiz items
// matching the requested shape. Every item gets a fresh stable identifier.
func parseQuizItems(text string, c models.Constraints) ([]models.QuizItem, error) {
	var schema quizSchema
	jsonStr := extractJSON(text)
	if err := json.Unmarshal([]byte(jsonStr), &schema); err != nil {
		return nil, fmt.Errorf("unmarshal quiz json: %w", err)
	}
	if len(schema.Questions) == 0 {
		return nil, fmt.Errorf("quiz response contains no questions")
	}

	items := make([]models.QuizItem, 0, len(schema.Questions))
	for i, q := range schema.Questions {
		item := models.QuizItem{
			ID:           uuid.NewString(),
			Type:         models.ItemType(q.Type),
			Prompt:       strings.TrimSpace(q.Prompt),
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Hint:         strings.TrimSpace(q.Hint),
			Answer:       strings.TrimSpace(q.Answer),
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	if err := checkQuizShape(items, c); err != nil {
		return nil, err
	}
	return items, nil
}

// checkQuizShape verifies the per-type counts match the request constraints.
func checkQuizShape(items []models.QuizItem, c models.Constraints) error {
	counts := map[models.ItemType]int{}
	for _, item := range items {
		counts[item.Type]++
	}
	if counts[models.ItemMultipleChoice] != c.MultipleChoice ||
		counts[models.ItemFillBlank] != c.FillBlank ||
		counts[models.ItemShortAnswer] != c.ShortAnswer {
		return fmt.Errorf("quiz shape mismatch: got %d/%d/%d, want %d/%d/%d",
			counts[models.ItemMultipleChoice], counts[models.ItemFillBlank], counts[models.ItemShortAnswer],
			c.MultipleChoice, c.FillBlank, c.ShortAnswer)
	}
	return nil
}

// templateQuizItems deterministically shapes a raw generation into the
// requested quiz structure. The secondary model is weak at structured
// output, so whatever it produced is treated as source material and
// recomposed into well-formed items; the output contract holds even for
// empty or garbled text.
func templateQuizItems(req models.GenerationRequest, raw string) []models.QuizItem {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = "the study material"
	}
	sentences := splitSentences(collapseText(raw))

	material := func(i int) string {
		if len(sentences) == 0 {
			return fmt.Sprintf("%s is the focus of this study session.", topic)
		}
		return sentences[i%len(sentences)]
	}

	c := req.Constraints
	items := make([]models.QuizItem, 0, c.TotalQuestions())
	next := 0

	for i := 0; i < c.MultipleChoice; i++ {
		correct := truncateRunes(material(next), 160)
		next++
		distractors := []string{
			fmt.Sprintf("%s is not covered by the study material.", topic),
			fmt.Sprintf("The material states the opposite about %s.", topic),
			fmt.Sprintf("No statement about %s can be supported.", topic),
		}
		correctIndex := i % models.MCQOptionCount
		options := make([]string, 0, models.MCQOptionCount)
		d := 0
		for slot := 0; slot < models.MCQOptionCount; slot++ {
			if slot == correctIndex {
				options = append(options, correct)
				continue
			}
			options = append(options, distractors[d])
			d++
		}
		items = append(items, models.QuizItem{
			ID:           uuid.NewString(),
			Type:         models.ItemMultipleChoice,
			Prompt:       fmt.Sprintf("Which of the following statements about %s is accurate?", topic),
			Options:      options,
			CorrectIndex: correctIndex,
		})
	}

	for i := 0; i < c.FillBlank; i++ {
		sentence := material(next)
		next++
		prompt, answer := blankOutKeyword(sentence)
		if answer == "" {
			prompt = "The topic of this study session is ______."
			answer = topic
		}
		items = append(items, models.QuizItem{
			ID:     uuid.NewString(),
			Type:   models.ItemFillBlank,
			Prompt: truncateRunes(prompt, 200),
			Hint:   fmt.Sprintf("starts with %q", string([]rune(answer)[0])),
			Answer: answer,
		})
	}

	for i := 0; i < c.ShortAnswer; i++ {
		expected := truncateRunes(material(next), 240)
		next++
		items = append(items, models.QuizItem{
			ID:     uuid.NewString(),
			Type:   models.ItemShortAnswer,
			Prompt: fmt.Sprintf("In your own words, state one key point about %s.", topic),
			Answer: expected,
		})
	}

	return items
}

// blankOutKeyword replaces the longest word of the sentence with a blank and
// returns the word as the expected answer.
func blankOutKeyword(sentence string) (string, string) {
	words := strings.Fields(sentence)
	longest := -1
	for i, w := range words {
		trimmed := strings.Trim(w, ".,;:!?\"'()")
		if len([]rune(trimmed)) < 4 {
			continue
		}
		if longest == -1 || len(trimmed) > len(strings.Trim(words[longest], ".,;:!?\"'()")) {
			longest = i
		}
	}
	if longest == -1 {
		return "", ""
	}
	answer := strings.Trim(words[longest], ".,;:!?\"'()")
	blanked := make([]string, len(words))
	copy(blanked, words)
	blanked[longest] = "______"
	return strings.Join(blanked, " "), answer
}

// collapseText normalizes whitespace and drops a trailing sentence fragment,
// matching how the secondary model's rambling output is tidied before use.
func collapseText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	sentences := strings.Split(text, ".")
	if len(sentences) > 1 && len(strings.TrimSpace(sentences[len(sentences)-1])) < 10 {
		text = strings.Join(sentences[:len(sentences)-1], ".") + "."
	}
	return strings.TrimSpace(text)
}

func splitSentences(text string) []string {
	parts := strings.Split(text, ".")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len([]rune(part)) < 10 {
			continue
		}
		sentences = append(sentences, part+".")
	}
	return sentences
}

func truncateRunes(input string, limit int) string {
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	if limit > 3 {
		return string(runes[:limit-3]) + "..."
	}
	return string(runes[:limit])
}
