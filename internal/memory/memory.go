// Package memory holds the per-session record of topics studied, quiz
// items, and graded attempts, and derives the progress views that drive
// revision planning. State is process-lifetime only: each StudyMemory owns
// a private in-memory database discarded when the session ends.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartstudy/internal/db"
	"smartstudy/internal/models"
)

var (
	// ErrUnknownItem indicates an attempt referenced a quiz item that was
	// never registered in this session.
	ErrUnknownItem = errors.New("attempt references unknown quiz item")

	// ErrUnknownQuiz indicates a submission referenced a quiz id that was
	// never registered in this session.
	ErrUnknownQuiz = errors.New("unknown quiz")
)

const recentTopicLimit = 5

// StudyMemory records learning events for one session. It is an explicit
// handle passed into every call site; lifecycle is owned by the session
// manager.
type StudyMemory struct {
	db *sql.DB
}

func New() (*StudyMemory, error) {
	conn, err := db.OpenSession()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &StudyMemory{db: conn}, nil
}

func (m *StudyMemory) Close() error {
	return m.db.Close()
}

// NormalizeTopic produces the dedup key for a topic: trimmed and case-folded.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// RecordTopic stores a studied topic. Recording a topic whose normalized
// key already exists replaces the summary and timestamp in place, keeping
// the original insertion position for every other entry.
func (m *StudyMemory) RecordTopic(ctx context.Context, topic, summary string) error {
	key := NormalizeTopic(topic)
	if key == "" {
		return errors.New("topic cannot be empty")
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO topics (topic_key, topic, summary, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic_key) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at;
	`, key, strings.TrimSpace(topic), summary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record topic %q: %w", topic, err)
	}
	return nil
}

// RegisterQuiz stores the items of a generated quiz tagged with their
// source topic, so later attempts can be joined back to it. The topic is
// upserted without touching an existing summary.
func (m *StudyMemory) RegisterQuiz(ctx context.Context, quizID, topic string, items []models.QuizItem) error {
	key := NormalizeTopic(topic)
	if key == "" {
		return errors.New("topic cannot be empty")
	}
	if quizID == "" {
		return errors.New("quiz id cannot be empty")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO topics (topic_key, topic, summary, updated_at)
		VALUES (?, ?, '', ?)
		ON CONFLICT(topic_key) DO UPDATE SET updated_at = excluded.updated_at;
	`, key, strings.TrimSpace(topic), now); err != nil {
		return fmt.Errorf("upsert quiz topic %q: %w", topic, err)
	}

	for _, item := range items {
		if err = item.Validate(); err != nil {
			return fmt.Errorf("register quiz %s: %w", quizID, err)
		}
		var payload []byte
		payload, err = json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal quiz item %s: %w", item.ID, err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO quiz_items (id, quiz_id, topic_key, payload, created_at)
			VALUES (?, ?, ?, ?, ?);
		`, item.ID, quizID, key, string(payload), now); err != nil {
			return fmt.Errorf("insert quiz item %s: %w", item.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quiz %s: %w", quizID, err)
	}
	return nil
}

// QuizItems returns the registered items of a quiz in registration order.
func (m *StudyMemory) QuizItems(ctx context.Context, quizID string) (string, []models.QuizItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT qi.payload, t.topic
		FROM quiz_items qi
		JOIN topics t ON qi.topic_key = t.topic_key
		WHERE qi.quiz_id = ?
		ORDER BY qi.rowid ASC;
	`, quizID)
	if err != nil {
		return "", nil, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	defer rows.Close()

	var topic string
	var items []models.QuizItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload, &topic); err != nil {
			return "", nil, fmt.Errorf("scan quiz item: %w", err)
		}
		var item models.QuizItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return "", nil, fmt.Errorf("decode quiz item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return "", nil, err
	}
	if len(items) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownQuiz, quizID)
	}
	return topic, items, nil
}

// RecordAttempt appends one graded answer. Prior records are never mutated
// or removed. Referencing an item that was never registered is a state
// error.
func (m *StudyMemory) RecordAttempt(ctx context.Context, itemID, submitted string, isCorrect bool) error {
	var exists int
	err := m.db.QueryRowContext(ctx, `SELECT 1 FROM quiz_items WHERE id = ?;`, itemID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if err != nil {
		return fmt.Errorf("check quiz item %s: %w", itemID, err)
	}

	if _, err := m.db.ExecContext(ctx, `
		INSERT INTO attempts (item_id, submitted, is_correct, created_at)
		VALUES (?, ?, ?, ?);
	`, itemID, submitted, boolToInt(isCorrect), time.Now().UTC()); err != nil {
		return fmt.Errorf("record attempt for %s: %w", itemID, err)
	}
	return nil
}

// Topics returns every studied topic in original insertion order.
func (m *StudyMemory) Topics(ctx context.Context) ([]models.TopicEvent, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT topic, summary, updated_at FROM topics ORDER BY id ASC;
	`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var events []models.TopicEvent
	for rows.Next() {
		var ev models.TopicEvent
		if err := rows.Scan(&ev.Topic, &ev.Summary, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Snapshot derives the progress view: all topics covered, the overall
// average score, and topics ranked ascending by average correctness.
// Topics without attempts are covered but not ranked.
func (m *StudyMemory) Snapshot(ctx context.Context) (*models.ProgressSnapshot, error) {
	snapshot := &models.ProgressSnapshot{}

	topics, err := m.Topics(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		snapshot.TopicsCovered = append(snapshot.TopicsCovered, t.Topic)
	}

	row := m.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(is_correct), 0) FROM attempts;`)
	if err := row.Scan(&snapshot.TotalAttempts, &snapshot.AverageScore); err != nil {
		return nil, fmt.Errorf("aggregate attempts: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT t.topic, AVG(a.is_correct), COUNT(a.id)
		FROM attempts a
		JOIN quiz_items qi ON a.item_id = qi.id
		JOIN topics t ON qi.topic_key = t.topic_key
		GROUP BY t.topic_key
		ORDER BY AVG(a.is_correct) ASC, t.id ASC;
	`)
	if err != nil {
		return nil, fmt.Errorf("rank weak topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var score models.TopicScore
		if err := rows.Scan(&score.Topic, &score.Average, &score.Attempts); err != nil {
			return nil, fmt.Errorf("scan topic score: %w", err)
		}
		snapshot.WeakTopics = append(snapshot.WeakTopics, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recent, err := m.db.QueryContext(ctx, `
		SELECT topic FROM topics ORDER BY updated_at DESC, id DESC LIMIT ?;
	`, recentTopicLimit)
	if err != nil {
		return nil, fmt.Errorf("recent topics: %w", err)
	}
	defer recent.Close()
	for recent.Next() {
		var topic string
		if err := recent.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan recent topic: %w", err)
		}
		snapshot.RecentTopics = append(snapshot.RecentTopics, topic)
	}
	return snapshot, recent.Err()
}

// AppendExchange adds one entry to the conversational buffer.
func (m *StudyMemory) AppendExchange(ctx context.Context, role, content string) error {
	if _, err := m.db.ExecContext(ctx, `
		INSERT INTO exchanges (role, content, created_at) VALUES (?, ?, ?);
	`, role, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}
	return nil
}

// Exchange is one conversational buffer entry.
type Exchange struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentExchanges returns up to limit buffer entries, oldest first.
func (m *StudyMemory) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM exchanges ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.Role, &ex.Content, &ex.Timestamp); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Reset clears all stored events: topics, quiz items, attempts, and the
// conversational buffer.
func (m *StudyMemory) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM attempts;`,
		`DELETE FROM quiz_items;`,
		`DELETE FROM topics;`,
		`DELETE FROM exchanges;`,
	} {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

// ClearSession clears only the conversational buffer. Topics, quiz items,
// and historical scores stay intact; Reset is the operation that removes
// those.
func (m *StudyMemory) ClearSession(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM exchanges;`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
