package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/yuyuyu0706/quiz-practice/internal/app"
	"github.com/yuyuyu0706/quiz-practice/internal/infra/memory"
)

func TestRecordAnswerCreatesAndCounts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewProgressStore()
	tracker, err := app.NewProgressTrackerWithClock(ctx, store, func() time.Time { return now })
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}

	if _, ok := tracker.Get("q1"); ok {
		t.Fatalf("no record expected before first answer")
	}

	if err := tracker.RecordAnswer(ctx, "q1", true); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tracker.RecordAnswer(ctx, "q1", false); err != nil {
		t.Fatalf("record: %v", err)
	}

	record, ok := tracker.Get("q1")
	if !ok {
		t.Fatalf("record should exist")
	}
	if record.SeenCount != 2 || record.CorrectCount != 1 || record.WrongCount != 1 {
		t.Fatalf("unexpected counters: %+v", record)
	}
	if record.LastAnsweredAt == nil || !record.LastAnsweredAt.Equal(now) {
		t.Fatalf("lastAnsweredAt not stamped: %+v", record.LastAnsweredAt)
	}
}

func TestToggleBookmarkCreatesLazily(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	tracker, err := app.NewProgressTracker(ctx, store)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}

	on, err := tracker.ToggleBookmark(ctx, "q9")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !on {
		t.Fatalf("first toggle must set the bookmark")
	}
	record, ok := tracker.Get("q9")
	if !ok || !record.Bookmark || record.SeenCount != 0 {
		t.Fatalf("expected zero-count bookmarked record, got %+v", record)
	}

	off, err := tracker.ToggleBookmark(ctx, "q9")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if off {
		t.Fatalf("second toggle must clear the bookmark")
	}
}

func TestProgressPersistsAcrossTrackers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()

	first, err := app.NewProgressTracker(ctx, store)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	if err := first.RecordAnswer(ctx, "q1", false); err != nil {
		t.Fatalf("record: %v", err)
	}

	second, err := app.NewProgressTracker(ctx, store)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	record, ok := second.Get("q1")
	if !ok || record.WrongCount != 1 {
		t.Fatalf("record lost across trackers: %+v", record)
	}
}

func TestCorruptProgressDocumentFailsSoft(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	store.SeedRaw([]byte(`{"q1": not json`))

	tracker, err := app.NewProgressTracker(ctx, store)
	if err != nil {
		t.Fatalf("corrupt document must not error: %v", err)
	}
	if _, ok := tracker.Get("q1"); ok {
		t.Fatalf("corrupt document must be discarded")
	}
}
