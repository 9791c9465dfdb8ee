package services

import (
	"sort"
	"sync"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"smartstudy/internal/models"
)

// TopicScheduler tracks one FSRS card per studied topic and schedules when
// the topic should next be reviewed. Quiz averages map onto review ratings,
// so poorly-scored topics come due again quickly while mastered ones drift
// out. State is session-scoped like the rest of study memory.
type TopicScheduler struct {
	mu     sync.Mutex
	params fsrs.Parameters
	cards  map[string]*topicCard
}

type topicCard struct {
	topic string
	card  fsrs.Card
}

func NewTopicScheduler() *TopicScheduler {
	return &TopicScheduler{
		params: fsrs.DefaultParam(),
		cards:  make(map[string]*topicCard),
	}
}

// ratingForAverage maps a quiz average onto an FSRS review rating.
func ratingForAverage(average float64) fsrs.Rating {
	switch {
	case average < 0.4:
		return fsrs.Again
	case average < 0.6:
		return fsrs.Hard
	case average < 0.85:
		return fsrs.Good
	default:
		return fsrs.Easy
	}
}

// RecordResult folds one quiz outcome for a topic into its schedule.
func (ts *TopicScheduler) RecordResult(topicKey, topic string, average float64, now time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tc, ok := ts.cards[topicKey]
	if !ok {
		tc = &topicCard{topic: topic, card: fsrs.NewCard()}
		ts.cards[topicKey] = tc
	}

	scheduling := ts.params.Repeat(tc.card, now)
	info := scheduling[ratingForAverage(average)]
	tc.card = info.Card
}

// ReviewQueue returns every scheduled topic ordered by due date, soonest
// first.
func (ts *TopicScheduler) ReviewQueue() []models.ReviewEntry {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entries := make([]models.ReviewEntry, 0, len(ts.cards))
	for _, tc := range ts.cards {
		entries = append(entries, models.ReviewEntry{Topic: tc.topic, Due: tc.card.Due})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Due.Equal(entries[j].Due) {
			return entries[i].Topic < entries[j].Topic
		}
		return entries[i].Due.Before(entries[j].Due)
	})
	return entries
}

// Reset drops all scheduled topics.
func (ts *TopicScheduler) Reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.cards = make(map[string]*topicCard)
}
