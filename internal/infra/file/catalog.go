package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// Catalog reads an ordered JSON array of questions from disk.
type Catalog struct {
	path string
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) Load(_ context.Context) ([]domain.Question, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", c.path, err)
	}
	return questions, nil
}
