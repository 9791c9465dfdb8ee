package services

import (
	"testing"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingForAverage(t *testing.T) {
	tests := []struct {
		average float64
		want    fsrs.Rating
	}{
		{0.0, fsrs.Again},
		{0.39, fsrs.Again},
		{0.4, fsrs.Hard},
		{0.59, fsrs.Hard},
		{0.6, fsrs.Good},
		{0.84, fsrs.Good},
		{0.85, fsrs.Easy},
		{1.0, fsrs.Easy},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ratingForAverage(tt.average), "average %v", tt.average)
	}
}

func TestSchedulerWeakTopicDueSooner(t *testing.T) {
	sched := NewTopicScheduler()
	now := time.Now().UTC()

	sched.RecordResult("geometry", "Geometry", 0.2, now)
	sched.RecordResult("algebra", "Algebra", 1.0, now)

	queue := sched.ReviewQueue()
	require.Len(t, queue, 2)
	assert.Equal(t, "Geometry", queue[0].Topic)
	assert.Equal(t, "Algebra", queue[1].Topic)
	assert.True(t, queue[0].Due.Before(queue[1].Due))
}

func TestSchedulerRepeatedResultsReuseCard(t *testing.T) {
	sched := NewTopicScheduler()
	now := time.Now().UTC()

	sched.RecordResult("algebra", "Algebra", 1.0, now)
	first := sched.ReviewQueue()[0].Due

	sched.RecordResult("algebra", "Algebra", 1.0, first)
	queue := sched.ReviewQueue()
	require.Len(t, queue, 1)
	assert.True(t, queue[0].Due.After(first), "a second good review should push the due date out")
}

func TestSchedulerReset(t *testing.T) {
	sched := NewTopicScheduler()
	sched.RecordResult("algebra", "Algebra", 0.5, time.Now().UTC())
	sched.Reset()
	assert.Empty(t, sched.ReviewQueue())
}

func TestReviewQueueTieBreaksByTopic(t *testing.T) {
	sched := NewTopicScheduler()
	now := time.Now().UTC()

	sched.RecordResult("b-topic", "Biology", 0.9, now)
	sched.RecordResult("a-topic", "Anatomy", 0.9, now)

	queue := sched.ReviewQueue()
	require.Len(t, queue, 2)
	if queue[0].Due.Equal(queue[1].Due) {
		assert.Equal(t, "Anatomy", queue[0].Topic)
	}
}
