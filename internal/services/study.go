// Package services is the orchestration facade: it turns user actions into
// generation requests, routes them through the provider router, and records
// the resulting learning events in study memory.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartstudy/internal/memory"
	"smartstudy/internal/models"
)

// Generator is the single generation entry point the facade depends on.
// Satisfied by *llm.Router.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

type StudyService struct {
	gen Generator
}

func NewStudyService(gen Generator) *StudyService {
	return &StudyService{gen: gen}
}

// Explain generates an explanation for a topic, optionally grounded in
// extracted document text, and records the topic in study memory.
func (s *StudyService) Explain(ctx context.Context, mem *memory.StudyMemory, topic, content string) (*models.GenerationResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	req := models.GenerationRequest{
		Kind:    models.KindExplanation,
		Topic:   topic,
		Content: content,
		Prompt:  buildExplanationPrompt(topic, content),
	}
	result, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := mem.RecordTopic(ctx, topic, summarize(result.Text)); err != nil {
		return nil, err
	}
	if err := mem.AppendExchange(ctx, "user", "explain: "+topic); err != nil {
		return nil, err
	}
	if err := mem.AppendExchange(ctx, "assistant", summarize(result.Text)); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateQuiz generates a quiz for a topic and registers its items in study
// memory so submitted answers can be graded and joined back to the topic.
func (s *StudyService) CreateQuiz(ctx context.Context, mem *memory.StudyMemory, topic, content string, c models.Constraints) (*models.Quiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if c.TotalQuestions() <= 0 {
		c = models.DefaultConstraints()
	}

	req := models.GenerationRequest{
		Kind:        models.KindQuiz,
		Topic:       topic,
		Content:     content,
		Prompt:      buildQuizPrompt(topic, content, c),
		Constraints: c,
	}
	result, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		ID:        uuid.NewString(),
		Topic:     topic,
		Items:     result.Items,
		Source:    result.Source,
		Degraded:  result.Degraded,
		CreatedAt: time.Now().UTC(),
	}
	if err := mem.RegisterQuiz(ctx, quiz.ID, topic, quiz.Items); err != nil {
		return nil, err
	}
	return quiz, nil
}

// SubmitAnswers grades a full quiz submission, appends one attempt per
// item, and feeds the topic's quiz average into the review scheduler.
// Items with no submitted answer are graded as incorrect. Answer keys that
// do not belong to the quiz are a state error.
func (s *StudyService) SubmitAnswers(ctx context.Context, mem *memory.StudyMemory, sched *TopicScheduler, quizID string, answers map[string]string) (*models.QuizReport, error) {
	topic, items, err := mem.QuizItems(ctx, quizID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}
	for id := range answers {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", memory.ErrUnknownItem, id)
		}
	}

	report := &models.QuizReport{
		QuizID: quizID,
		Topic:  topic,
		Total:  len(items),
	}
	now := time.Now().UTC()
	for _, item := range items {
		submitted := answers[item.ID]
		correct := Grade(item, submitted)
		if err := mem.RecordAttempt(ctx, item.ID, submitted, correct); err != nil {
			return nil, err
		}
		if correct {
			report.Correct++
		}
		report.Attempts = append(report.Attempts, models.AttemptRecord{
			ItemID:    item.ID,
			Submitted: submitted,
			IsCorrect: correct,
			Timestamp: now,
		})
	}
	report.Percent = float64(report.Correct) / float64(report.Total) * 100

	if sched != nil {
		sched.RecordResult(memory.NormalizeTopic(topic), topic, float64(report.Correct)/float64(report.Total), now)
	}

	if err := mem.AppendExchange(ctx, "assistant",
		fmt.Sprintf("quiz %s scored %d/%d on %s", quizID, report.Correct, report.Total, topic)); err != nil {
		return nil, err
	}
	return report, nil
}

// RevisionPlan builds personalized revision guidance from the progress
// snapshot and the review schedule.
func (s *StudyService) RevisionPlan(ctx context.Context, mem *memory.StudyMemory, sched *TopicScheduler) (*models.RevisionPlan, error) {
	snapshot, err := mem.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var queue []models.ReviewEntry
	if sched != nil {
		queue = sched.ReviewQueue()
	}

	req := models.GenerationRequest{
		Kind:   models.KindRevisionPlan,
		Prompt: buildRevisionPrompt(snapshot, queue),
	}
	result, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := mem.AppendExchange(ctx, "assistant", "revision plan: "+summarize(result.Text)); err != nil {
		return nil, err
	}

	return &models.RevisionPlan{
		Text:        result.Text,
		Degraded:    result.Degraded,
		WeakTopics:  snapshot.WeakTopics,
		ReviewQueue: queue,
	}, nil
}

// summarize keeps the first sentence of a generation, bounded, as the
// stored topic summary.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".\n"); idx > 0 {
		text = text[:idx+1]
	}
	runes := []rune(text)
	if len(runes) > 200 {
		text = string(runes[:197]) + "..."
	}
	return strings.TrimSpace(text)
}
