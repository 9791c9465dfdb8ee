package services

import (
	"fmt"
	"strings"

	"smartstudy/internal/models"
)

// Prompt construction for the three request kinds. Providers treat these as
// opaque instruction text; the JSON contract described in the quiz prompt is
// what the adapters parse back out of the completion.

const maxPromptContentRunes = 4000

func buildExplanationPrompt(topic, content string) string {
	var b strings.Builder
	b.WriteString("You are an expert tutor. Explain the following topic in clear, student-friendly language.\n")
	b.WriteString("Start with a simple definition, break complex concepts into simple parts, and include two practical examples.\n\n")
	b.WriteString("Topic: " + strings.TrimSpace(topic) + "\n")
	if c := clipContent(content); c != "" {
		b.WriteString("\nBase the explanation on this material:\n" + c + "\n")
	}
	return b.String()
}

func buildQuizPrompt(topic, content string, c models.Constraints) string {
	var b strings.Builder
	b.WriteString("You are a quiz generator. Create a quiz from the input below.\n\n")
	fmt.Fprintf(&b, "Generate exactly %d multiple_choice questions, %d fill_blank questions, and %d short_answer questions at %s difficulty.\n\n",
		c.MultipleChoice, c.FillBlank, c.ShortAnswer, c.Difficulty)
	b.WriteString(`Strictly respond with a JSON object:
{"questions":[{"type":"multiple_choice","prompt":"","options":["","","",""],"correct_index":0},{"type":"fill_blank","prompt":"a sentence with ______ for the blank","hint":"","answer":""},{"type":"short_answer","prompt":"","answer":"expected answer"}]}
Multiple choice questions must have exactly 4 options. Keep all questions simple and appropriate for students.`)
	b.WriteString("\n\nTopic: " + strings.TrimSpace(topic) + "\n")
	if cl := clipContent(content); cl != "" {
		b.WriteString("\nBase the questions on this material:\n" + cl + "\n")
	}
	return b.String()
}

func buildRevisionPrompt(snapshot *models.ProgressSnapshot, queue []models.ReviewEntry) string {
	var b strings.Builder
	b.WriteString("Based on the student's quiz performance, write a personalized revision plan.\n")
	b.WriteString("Address the weak areas, suggest study strategies and practice exercises, and end with encouragement.\n\n")
	fmt.Fprintf(&b, "Overall average score: %.0f%% across %d attempts.\n", snapshot.AverageScore*100, snapshot.TotalAttempts)
	if len(snapshot.TopicsCovered) > 0 {
		b.WriteString("Topics covered: " + strings.Join(snapshot.TopicsCovered, ", ") + "\n")
	}
	if len(snapshot.WeakTopics) == 0 {
		b.WriteString("Weak areas identified: none yet\n")
	} else {
		b.WriteString("Weak areas identified (weakest first):\n")
		for _, w := range snapshot.WeakTopics {
			fmt.Fprintf(&b, "- %s (%.0f%% over %d attempts)\n", w.Topic, w.Average*100, w.Attempts)
		}
	}
	if len(queue) > 0 {
		b.WriteString("Scheduled reviews (soonest first):\n")
		for _, entry := range queue {
			fmt.Fprintf(&b, "- %s, due %s\n", entry.Topic, entry.Due.Format("2006-01-02"))
		}
	}
	return b.String()
}

// clipContent bounds document text for the prompt, keeping the head and
// tail so context from both ends survives.
func clipContent(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= maxPromptContentRunes {
		return content
	}
	half := maxPromptContentRunes / 2
	return string(runes[:half]) + "\n... [content truncated] ...\n" + string(runes[len(runes)-half:])
}
