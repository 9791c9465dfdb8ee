package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstudy/internal/models"
)

func newTestMemory(t *testing.T) *StudyMemory {
	t.Helper()
	mem, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	return mem
}

func shortAnswerItem(prompt string) models.QuizItem {
	return models.QuizItem{
		ID:     uuid.NewString(),
		Type:   models.ItemShortAnswer,
		Prompt: prompt,
		Answer: "expected answer",
	}
}

func TestRecordTopicDeduplicates(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	require.NoError(t, mem.RecordTopic(ctx, "Photosynthesis", "first summary"))
	require.NoError(t, mem.RecordTopic(ctx, "  photosynthesis ", "second summary"))

	topics, err := mem.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "second summary", topics[0].Summary)
}

func TestTopicsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	require.NoError(t, mem.RecordTopic(ctx, "Photosynthesis", "s1"))
	require.NoError(t, mem.RecordTopic(ctx, "Mitosis", "s2"))
	require.NoError(t, mem.RecordTopic(ctx, "PHOTOSYNTHESIS", "s3"))

	topics, err := mem.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Photosynthesis", topics[0].Topic)
	assert.Equal(t, "s3", topics[0].Summary)
	assert.Equal(t, "Mitosis", topics[1].Topic)
}

func TestRecordTopicRejectsEmpty(t *testing.T) {
	mem := newTestMemory(t)
	assert.Error(t, mem.RecordTopic(context.Background(), "   ", "summary"))
}

func TestRegisterQuizAndLoadItems(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	items := []models.QuizItem{shortAnswerItem("q1"), shortAnswerItem("q2")}
	quizID := uuid.NewString()
	require.NoError(t, mem.RegisterQuiz(ctx, quizID, "Cell Division", items))

	topic, loaded, err := mem.QuizItems(ctx, quizID)
	require.NoError(t, err)
	assert.Equal(t, "Cell Division", topic)
	require.Len(t, loaded, 2)
	assert.Equal(t, items[0].ID, loaded[0].ID)
	assert.Equal(t, items[1].ID, loaded[1].ID)
}

func TestQuizItemsUnknownQuiz(t *testing.T) {
	mem := newTestMemory(t)
	_, _, err := mem.QuizItems(context.Background(), "no-such-quiz")
	assert.ErrorIs(t, err, ErrUnknownQuiz)
}

func TestRecordAttemptUnknownItem(t *testing.T) {
	mem := newTestMemory(t)
	err := mem.RecordAttempt(context.Background(), "no-such-item", "answer", true)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestSnapshotRanksWeakTopicsAscending(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	strong := []models.QuizItem{shortAnswerItem("s1"), shortAnswerItem("s2")}
	weak := []models.QuizItem{shortAnswerItem("w1"), shortAnswerItem("w2"), shortAnswerItem("w3")}

	require.NoError(t, mem.RegisterQuiz(ctx, uuid.NewString(), "Algebra", strong))
	require.NoError(t, mem.RegisterQuiz(ctx, uuid.NewString(), "Geometry", weak))

	require.NoError(t, mem.RecordAttempt(ctx, strong[0].ID, "a", true))
	require.NoError(t, mem.RecordAttempt(ctx, strong[1].ID, "a", true))
	require.NoError(t, mem.RecordAttempt(ctx, weak[0].ID, "a", true))
	require.NoError(t, mem.RecordAttempt(ctx, weak[1].ID, "a", false))
	require.NoError(t, mem.RecordAttempt(ctx, weak[2].ID, "a", false))

	snapshot, err := mem.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.TotalAttempts)
	assert.InDelta(t, 0.6, snapshot.AverageScore, 1e-9)

	require.Len(t, snapshot.WeakTopics, 2)
	assert.Equal(t, "Geometry", snapshot.WeakTopics[0].Topic)
	assert.InDelta(t, 1.0/3.0, snapshot.WeakTopics[0].Average, 1e-9)
	assert.Equal(t, 3, snapshot.WeakTopics[0].Attempts)
	assert.Equal(t, "Algebra", snapshot.WeakTopics[1].Topic)
	assert.InDelta(t, 1.0, snapshot.WeakTopics[1].Average, 1e-9)
}

func TestSnapshotCoversTopicsWithoutAttempts(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	require.NoError(t, mem.RecordTopic(ctx, "Thermodynamics", "summary"))

	snapshot, err := mem.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Thermodynamics"}, snapshot.TopicsCovered)
	assert.Zero(t, snapshot.TotalAttempts)
	assert.Zero(t, snapshot.AverageScore)
	assert.Empty(t, snapshot.WeakTopics)
	assert.Equal(t, []string{"Thermodynamics"}, snapshot.RecentTopics)
}

func TestRecentExchangesOldestFirst(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	require.NoError(t, mem.AppendExchange(ctx, "user", "explain photosynthesis"))
	require.NoError(t, mem.AppendExchange(ctx, "assistant", "plants convert light into energy"))
	require.NoError(t, mem.AppendExchange(ctx, "user", "quiz me"))

	out, err := mem.RecentExchanges(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "assistant", out[0].Role)
	assert.Equal(t, "quiz me", out[1].Content)
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	items := []models.QuizItem{shortAnswerItem("q")}
	require.NoError(t, mem.RegisterQuiz(ctx, uuid.NewString(), "History", items))
	require.NoError(t, mem.RecordAttempt(ctx, items[0].ID, "a", true))
	require.NoError(t, mem.AppendExchange(ctx, "user", "hello"))

	require.NoError(t, mem.Reset(ctx))

	snapshot, err := mem.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.TopicsCovered)
	assert.Zero(t, snapshot.TotalAttempts)
	assert.Empty(t, snapshot.WeakTopics)

	out, err := mem.RecentExchanges(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClearSessionKeepsScores(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	items := []models.QuizItem{shortAnswerItem("q")}
	require.NoError(t, mem.RegisterQuiz(ctx, uuid.NewString(), "History", items))
	require.NoError(t, mem.RecordAttempt(ctx, items[0].ID, "a", false))
	require.NoError(t, mem.AppendExchange(ctx, "user", "hello"))

	require.NoError(t, mem.ClearSession(ctx))

	out, err := mem.RecentExchanges(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, out)

	snapshot, err := mem.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"History"}, snapshot.TopicsCovered)
	assert.Equal(t, 1, snapshot.TotalAttempts)
	require.Len(t, snapshot.WeakTopics, 1)
	assert.Equal(t, "History", snapshot.WeakTopics[0].Topic)
}

func TestMemoriesAreIsolated(t *testing.T) {
	ctx := context.Background()
	first := newTestMemory(t)
	second := newTestMemory(t)

	require.NoError(t, first.RecordTopic(ctx, "Optics", "lenses"))

	topics, err := second.Topics(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)
}
