package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smartstudy/internal/models"
)

func TestGradeMultipleChoice(t *testing.T) {
	item := models.QuizItem{
		ID:           "mcq",
		Type:         models.ItemMultipleChoice,
		Prompt:       "pick one",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 2,
	}

	tests := []struct {
		submitted string
		want      bool
	}{
		{"2", true},
		{"C", true},
		{"c", true},
		{"0", false},
		{"A", false},
		{"", false},
		{"the third one", false},
	}

	for _, tt := range tests {
		t.Run(tt.submitted, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(item, tt.submitted))
		})
	}
}

func TestGradeFillBlank(t *testing.T) {
	item := models.QuizItem{
		ID:     "fb",
		Type:   models.ItemFillBlank,
		Prompt: "a ______ lists your work history",
		Answer: "a resume",
	}

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"exact", "a resume", true},
		{"case insensitive", "A Resume", true},
		{"submission inside expected", "resume", true},
		{"expected inside submission", "it is a resume I think", true},
		{"wrong", "cover letter", false},
		{"empty", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(item, tt.submitted))
		})
	}
}

func TestGradeShortAnswer(t *testing.T) {
	item := models.QuizItem{
		ID:     "sa",
		Type:   models.ItemShortAnswer,
		Prompt: "why do plants need sunlight?",
		Answer: "light energy drives photosynthesis",
	}

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"all keywords", "light energy drives photosynthesis in plants", true},
		{"half keywords", "photosynthesis uses light somehow", true},
		{"one of four keywords", "photosynthesis", false},
		{"unrelated", "plants are green", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(item, tt.submitted))
		})
	}
}

func TestGradeUnknownType(t *testing.T) {
	item := models.QuizItem{ID: "x", Type: "essay", Prompt: "p", Answer: "a"}
	assert.False(t, Grade(item, "a"))
}
