package models

import (
	"fmt"
	"time"
)

// RequestKind identifies what a generation request should produce.
type RequestKind string

const (
	KindExplanation  RequestKind = "explanation"
	KindQuiz         RequestKind = "quiz"
	KindRevisionPlan RequestKind = "revision_plan"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Constraints describes the requested quiz shape.
type Constraints struct {
	MultipleChoice int        `json:"multipleChoice"`
	FillBlank      int        `json:"fillBlank"`
	ShortAnswer    int        `json:"shortAnswer"`
	Difficulty     Difficulty `json:"difficulty"`
}

// DefaultConstraints is the 7-question mix the study coach uses when the
// caller does not specify one: 3 multiple choice, 2 fill-in-the-blank,
// 2 short answer.
func DefaultConstraints() Constraints {
	return Constraints{
		MultipleChoice: 3,
		FillBlank:      2,
		ShortAnswer:    2,
		Difficulty:     DifficultyMedium,
	}
}

func (c Constraints) TotalQuestions() int {
	return c.MultipleChoice + c.FillBlank + c.ShortAnswer
}

// GenerationRequest is the immutable contract handed to a provider adapter.
// Prompt carries the exact instruction text supplied by the prompt layer;
// adapters treat it as opaque.
type GenerationRequest struct {
	Kind        RequestKind
	Topic       string
	Content     string
	Prompt      string
	Constraints Constraints
}

// ResultSource records which provider produced a result.
type ResultSource string

const (
	SourcePrimary  ResultSource = "primary"
	SourceFallback ResultSource = "fallback"
)

// GenerationResult is the uniform output contract of both providers.
// Degraded is true exactly when the fallback provider produced the payload;
// consumers must surface that to the end user.
type GenerationResult struct {
	Text     string
	Items    []QuizItem
	Source   ResultSource
	Degraded bool
}

// ItemType discriminates the quiz item variants.
type ItemType string

const (
	ItemMultipleChoice ItemType = "multiple_choice"
	ItemFillBlank      ItemType = "fill_blank"
	ItemShortAnswer    ItemType = "short_answer"
)

// MCQOptionCount is the fixed number of options a multiple-choice item carries.
const MCQOptionCount = 4

// QuizItem is one question. The populated fields depend on Type:
// multiple choice uses Options and CorrectIndex, fill-in-the-blank uses
// Hint and Answer, short answer uses Answer as the expected response.
type QuizItem struct {
	ID           string   `json:"id"`
	Type         ItemType `json:"type"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correctIndex,omitempty"`
	Hint         string   `json:"hint,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

// Validate checks the variant-specific shape of the item.
func (q QuizItem) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("quiz item missing id")
	}
	if q.Prompt == "" {
		return fmt.Errorf("quiz item %s missing prompt", q.ID)
	}
	switch q.Type {
	case ItemMultipleChoice:
		if len(q.Options) != MCQOptionCount {
			return fmt.Errorf("quiz item %s has %d options, want %d", q.ID, len(q.Options), MCQOptionCount)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("quiz item %s correct index %d out of range", q.ID, q.CorrectIndex)
		}
	case ItemFillBlank, ItemShortAnswer:
		if q.Answer == "" {
			return fmt.Errorf("quiz item %s missing expected answer", q.ID)
		}
	default:
		return fmt.Errorf("quiz item %s has unknown type %q", q.ID, q.Type)
	}
	return nil
}

// Quiz is a generated set of items for one topic.
type Quiz struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	Items     []QuizItem   `json:"items"`
	Source    ResultSource `json:"source"`
	Degraded  bool         `json:"degraded"`
	CreatedAt time.Time    `json:"createdAt"`
}

// AttemptRecord is one graded answer to a quiz item. Records are append-only.
type AttemptRecord struct {
	ItemID    string    `json:"itemId"`
	Submitted string    `json:"submitted"`
	IsCorrect bool      `json:"isCorrect"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicEvent is one studied topic. Topics deduplicate on a trimmed,
// case-folded key; re-recording an existing topic replaces the summary and
// timestamp in place.
type TopicEvent struct {
	Topic     string    `json:"topic"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicScore is a topic's average attempt correctness.
type TopicScore struct {
	Topic    string  `json:"topic"`
	Average  float64 `json:"average"`
	Attempts int     `json:"attempts"`
}

// ProgressSnapshot is a derived view over the session's study memory.
// WeakTopics is ordered ascending by average correctness, ties broken by
// which topic was studied first.
type ProgressSnapshot struct {
	TopicsCovered []string     `json:"topicsCovered"`
	TotalAttempts int          `json:"totalAttempts"`
	AverageScore  float64      `json:"averageScore"`
	WeakTopics    []TopicScore `json:"weakTopics"`
	RecentTopics  []string     `json:"recentTopics"`
}

// QuizReport summarizes one graded quiz submission.
type QuizReport struct {
	QuizID   string          `json:"quizId"`
	Topic    string          `json:"topic"`
	Total    int             `json:"total"`
	Correct  int             `json:"correct"`
	Percent  float64         `json:"percent"`
	Attempts []AttemptRecord `json:"attempts"`
}

// ReviewEntry is one topic the revision planner scheduled for review.
type ReviewEntry struct {
	Topic string    `json:"topic"`
	Due   time.Time `json:"due"`
}

// RevisionPlan is the personalized guidance produced from quiz performance.
type RevisionPlan struct {
	Text        string        `json:"text"`
	Degraded    bool          `json:"degraded"`
	WeakTopics  []TopicScore  `json:"weakTopics"`
	ReviewQueue []ReviewEntry `json:"reviewQueue"`
}
