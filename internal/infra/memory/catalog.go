package memory

import (
	"context"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// StaticCatalog serves a fixed question list (useful for tests/demos).
type StaticCatalog struct {
	questions []domain.Question
}

func NewStaticCatalog(questions []domain.Question) *StaticCatalog {
	return &StaticCatalog{questions: questions}
}

func (c *StaticCatalog) Load(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(c.questions))
	copy(out, c.questions)
	return out, nil
}
