package app

import (
	"context"
	"sync"
	"time"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// ProgressStore persists the lifetime progress document. Load returns an empty
// map when nothing usable is stored.
type ProgressStore interface {
	Load(ctx context.Context) (domain.ProgressMap, error)
	Save(ctx context.Context, records domain.ProgressMap) error
}

// ProgressTracker keeps per-question lifetime statistics in memory and writes
// the whole document through on every mutation. Records are created lazily on
// first answer or bookmark toggle and never deleted.
type ProgressTracker struct {
	store ProgressStore
	clock func() time.Time

	mu      sync.Mutex
	records domain.ProgressMap
}

func NewProgressTracker(ctx context.Context, store ProgressStore) (*ProgressTracker, error) {
	return NewProgressTrackerWithClock(ctx, store, time.Now)
}

// NewProgressTrackerWithClock allows deterministic timestamps in tests.
func NewProgressTrackerWithClock(ctx context.Context, store ProgressStore, now func() time.Time) (*ProgressTracker, error) {
	records, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = make(domain.ProgressMap)
	}
	return &ProgressTracker{store: store, clock: now, records: records}, nil
}

// Get returns the record for a question, if one exists yet.
func (t *ProgressTracker) Get(questionID string) (domain.ProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[questionID]
	return record, ok
}

// RecordAnswer bumps the seen counter and the correct or wrong counter and
// stamps the answer time, creating the record if absent.
func (t *ProgressTracker) RecordAnswer(ctx context.Context, questionID string, correct bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.records[questionID]
	record.SeenCount++
	if correct {
		record.CorrectCount++
	} else {
		record.WrongCount++
	}
	now := t.clock()
	record.LastAnsweredAt = &now
	t.records[questionID] = record

	return t.store.Save(ctx, t.records)
}

// ToggleBookmark flips the bookmark flag, creating the record if absent, and
// returns the new state.
func (t *ProgressTracker) ToggleBookmark(ctx context.Context, questionID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.records[questionID]
	record.Bookmark = !record.Bookmark
	t.records[questionID] = record

	if err := t.store.Save(ctx, t.records); err != nil {
		return record.Bookmark, err
	}
	return record.Bookmark, nil
}
