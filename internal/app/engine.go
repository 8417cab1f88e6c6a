package app

import (
	"context"
	"log"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// SessionStore persists the single active session document (in-memory, Redis, etc).
// Load returns nil without error when nothing usable is stored.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}

// MoveStatus classifies the outcome of a navigation request.
type MoveStatus int

const (
	MoveBlocked MoveStatus = iota
	MoveAdvanced
	MoveFinished
)

// MoveResult reports what a Move call did. Summary is set only for MoveFinished;
// Reason is set for blocked moves that deserve a user-facing message.
type MoveResult struct {
	Status  MoveStatus
	Reason  string
	Summary *domain.Summary
}

// Engine owns the active quiz run: pool selection, answering, navigation,
// resume and final scoring. At most one session exists at a time; starting a
// new one overwrites any unfinished run in the store.
type Engine struct {
	questions []domain.Question
	byID      map[string]domain.Question
	sessions  SessionStore
	progress  *ProgressTracker
	clock     func() time.Time
	rnd       *rand.Rand

	mu      sync.Mutex
	session *domain.Session
}

func NewEngine(catalog []domain.Question, sessions SessionStore, progress *ProgressTracker) *Engine {
	return NewEngineWithClock(catalog, sessions, progress, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEngineWithClock allows deterministic timestamps and shuffles in tests.
func NewEngineWithClock(catalog []domain.Question, sessions SessionStore, progress *ProgressTracker, now func() time.Time, rnd *rand.Rand) *Engine {
	byID := make(map[string]domain.Question, len(catalog))
	for _, q := range catalog {
		byID[q.ID] = q
	}
	return &Engine{
		questions: catalog,
		byID:      byID,
		sessions:  sessions,
		progress:  progress,
		clock:     now,
		rnd:       rnd,
	}
}

// Sections lists the distinct section IDs in catalog order.
func (e *Engine) Sections() []string {
	seen := make(map[string]struct{})
	sections := make([]string, 0)
	for _, q := range e.questions {
		if _, ok := seen[q.Section]; ok {
			continue
		}
		seen[q.Section] = struct{}{}
		sections = append(sections, q.Section)
	}
	return sections
}

// Start builds a fresh session for the given mode and settings. The mode
// argument may differ from settings.Mode (e.g. retrying wrong answers from the
// results view); the resolved mode is frozen into the settings snapshot.
func (e *Engine) Start(ctx context.Context, mode domain.Mode, settings domain.Settings) (*domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool := e.buildPool(mode, settings)
	if len(pool) == 0 {
		return nil, domain.ErrEmptyPool
	}

	if mode == domain.ModeRandom {
		pool = e.shuffled(pool)
	}

	count := resolveCount(settings.Count, len(pool))
	order := make([]string, 0, count)
	for _, q := range pool[:count] {
		order = append(order, q.ID)
	}

	snapshot := settings
	snapshot.Mode = mode
	session := &domain.Session{
		SchemaVersion: domain.SessionSchemaVersion,
		Mode:          mode,
		Order:         order,
		CurrentIndex:  0,
		Answers:       make(map[string]string),
		ChoiceMap:     make(map[string]map[string]string),
		Graded:        make(map[string]bool),
		CompletedAt:   nil,
		StartedAt:     e.clock(),
		SettingsSnap:  &snapshot,
	}

	e.session = session
	e.persistLocked(ctx)
	return session, nil
}

func (e *Engine) buildPool(mode domain.Mode, settings domain.Settings) []domain.Question {
	sections := make(map[string]struct{}, len(settings.Sections))
	for _, s := range settings.Sections {
		sections[s] = struct{}{}
	}

	pool := make([]domain.Question, 0, len(e.questions))
	for _, q := range e.questions {
		if _, ok := sections[q.Section]; !ok {
			continue
		}
		switch mode {
		case domain.ModeWrongOnly:
			if record, ok := e.progress.Get(q.ID); !ok || record.WrongCount == 0 {
				continue
			}
		case domain.ModeBookmarks:
			if record, ok := e.progress.Get(q.ID); !ok || !record.Bookmark {
				continue
			}
		}
		pool = append(pool, q)
	}
	return pool
}

// shuffled returns a Fisher-Yates shuffled copy, leaving the catalog untouched.
func (e *Engine) shuffled(pool []domain.Question) []domain.Question {
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := e.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// resolveCount parses the configured question count, clamped to the pool size.
// "all" and anything unparsable or non-positive mean the whole pool.
func resolveCount(raw string, poolSize int) int {
	if raw == "all" {
		return poolSize
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > poolSize {
		return poolSize
	}
	return n
}

// Active returns the in-memory session, or nil when none is running.
func (e *Engine) Active() *domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Submit grades a display-label answer for a question in the active run.
// The stored answer keeps the display label so a later map regeneration cannot
// retroactively corrupt history. Lifetime progress counters move only on the
// first grading of a question within a session; a re-submit overwrites the
// session answer without double counting.
func (e *Engine) Submit(ctx context.Context, questionID, label string) (domain.AnswerResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return domain.AnswerResult{}, domain.ErrNoActiveSession
	}
	q, ok := e.byID[questionID]
	if !ok || !e.inOrderLocked(questionID) {
		return domain.AnswerResult{}, domain.ErrQuestionNotFound
	}

	labels := choiceLabels(q.Choices)
	if !containsLabel(labels, label) {
		return domain.AnswerResult{}, domain.ErrNoSelection
	}

	choiceMap := e.choiceMapLocked(q)
	correct := choiceMap[label] == q.Answer
	firstGrading := !e.session.Graded[questionID]

	e.session.Answers[questionID] = label
	e.session.Graded[questionID] = true
	e.session.ExplanationOpen = true

	if firstGrading {
		if err := e.progress.RecordAnswer(ctx, questionID, correct); err != nil {
			log.Printf("record answer for %s: %v", questionID, err)
		}
	}
	e.persistLocked(ctx)

	return domain.AnswerResult{
		QuestionID:   questionID,
		ChosenLabel:  label,
		Correct:      correct,
		CorrectLabel: labelForKey(choiceMap, labels, q.Answer),
	}, nil
}

// Move shifts the current position by delta. Advancing requires the current
// question to be graded; stepping before the first question is a silent clamp;
// stepping past the last question finishes the session.
func (e *Engine) Move(ctx context.Context, delta int) (MoveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return MoveResult{}, domain.ErrNoActiveSession
	}

	currentID := e.session.Order[e.session.CurrentIndex]
	if delta > 0 && !e.session.Graded[currentID] {
		return MoveResult{Status: MoveBlocked, Reason: domain.ErrAnswerRequired.Error()}, nil
	}

	next := e.session.CurrentIndex + delta
	if next < 0 {
		return MoveResult{Status: MoveBlocked}, nil
	}
	if next >= len(e.session.Order) {
		summary := e.finishLocked(ctx)
		return MoveResult{Status: MoveFinished, Summary: &summary}, nil
	}

	e.session.CurrentIndex = next
	e.session.ExplanationOpen = false
	e.persistLocked(ctx)
	return MoveResult{Status: MoveAdvanced}, nil
}

// Finish scores the active run and clears it from storage.
func (e *Engine) Finish(ctx context.Context) (domain.Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return domain.Summary{}, domain.ErrNoActiveSession
	}
	return e.finishLocked(ctx), nil
}

func (e *Engine) finishLocked(ctx context.Context) domain.Summary {
	session := e.session
	perSection := make(map[string]domain.SectionScore)
	wrong := make([]domain.Question, 0)
	correctCount := 0

	for _, id := range session.Order {
		q := e.byID[id]
		choiceMap := e.choiceMapLocked(q)
		labels := choiceLabels(q.Choices)
		label := resolveStoredLabel(session.Answers[id], labels, choiceMap)
		correct := label != "" && choiceMap[label] == q.Answer

		score := perSection[q.Section]
		score.Total++
		if correct {
			correctCount++
			score.OK++
		} else {
			wrong = append(wrong, q)
		}
		perSection[q.Section] = score
	}

	for section, score := range perSection {
		score.RatePercent = roundedPercent(score.OK, score.Total)
		perSection[section] = score
	}

	total := len(session.Order)
	now := e.clock()
	session.CompletedAt = &now

	// A finished session must never be resumable.
	if err := e.sessions.Clear(ctx); err != nil {
		log.Printf("clear finished session: %v", err)
	}
	e.session = nil

	return domain.Summary{
		CorrectCount:       correctCount,
		Total:              total,
		OverallRatePercent: roundedPercent(correctCount, total),
		PerSection:         perSection,
		WrongQuestions:     wrong,
	}
}

func roundedPercent(ok, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(ok) / float64(total) * 100))
}

// Resume loads the persisted session, if a valid incomplete one exists, and
// makes it the active run. Invalid or completed documents are purged and
// (nil, nil) is returned.
func (e *Engine) Resume(ctx context.Context) (*domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session := e.loadValidatedLocked(ctx)
	if session == nil {
		return nil, nil
	}
	e.session = session
	return session, nil
}

// HasSaved reports whether a resumable session is stored, purging stale or
// invalid documents as a side effect.
func (e *Engine) HasSaved(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadValidatedLocked(ctx) != nil
}

func (e *Engine) loadValidatedLocked(ctx context.Context) *domain.Session {
	session, err := e.sessions.Load(ctx)
	if err != nil {
		log.Printf("load session: %v", err)
		return nil
	}
	if session == nil {
		return nil
	}

	if !e.validSession(session) {
		if err := e.sessions.Clear(ctx); err != nil {
			log.Printf("purge invalid session: %v", err)
		}
		return nil
	}

	// Optional fields default rather than failing validation so older
	// persisted shapes stay loadable.
	if session.SchemaVersion == 0 {
		session.SchemaVersion = domain.SessionSchemaVersion
	}
	if session.Answers == nil {
		session.Answers = make(map[string]string)
	}
	if session.ChoiceMap == nil {
		session.ChoiceMap = make(map[string]map[string]string)
	}
	if session.Graded == nil {
		session.Graded = make(map[string]bool)
	}
	return session
}

func (e *Engine) validSession(session *domain.Session) bool {
	if len(session.Order) == 0 {
		return false
	}
	if session.CurrentIndex < 0 || session.CurrentIndex >= len(session.Order) {
		return false
	}
	if session.CompletedAt != nil {
		return false
	}
	for _, id := range session.Order {
		if _, ok := e.byID[id]; !ok {
			return false
		}
	}
	return true
}

// Suspend persists the active run and detaches it so the user can come back
// to it later through Resume.
func (e *Engine) Suspend(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return domain.ErrNoActiveSession
	}
	e.persistLocked(ctx)
	e.session = nil
	return nil
}

// Discard drops both the active and the stored session.
func (e *Engine) Discard(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session = nil
	return e.sessions.Clear(ctx)
}

// View snapshots the current question for rendering. Generating a question's
// choice map on first display mutates the session, so the session is persisted
// before returning.
func (e *Engine) View(ctx context.Context) (domain.QuestionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return domain.QuestionView{}, domain.ErrNoActiveSession
	}

	q := e.byID[e.session.Order[e.session.CurrentIndex]]
	labels := choiceLabels(q.Choices)
	choiceMap := e.choiceMapLocked(q)
	e.persistLocked(ctx)

	choices := make([]domain.Choice, 0, len(labels))
	for _, label := range labels {
		choices = append(choices, domain.Choice{Label: label, Text: q.Choices[choiceMap[label]]})
	}

	view := domain.QuestionView{
		Question:        q,
		Index:           e.session.CurrentIndex + 1,
		Total:           len(e.session.Order),
		Choices:         choices,
		ChosenLabel:     resolveStoredLabel(e.session.Answers[q.ID], labels, choiceMap),
		Graded:          e.session.Graded[q.ID],
		ExplanationOpen: e.session.ExplanationOpen,
	}
	if view.Graded {
		view.CorrectLabel = labelForKey(choiceMap, labels, q.Answer)
	}
	if record, ok := e.progress.Get(q.ID); ok {
		view.Bookmarked = record.Bookmark
	}
	return view, nil
}

// ToggleExplanation flips the explanation visibility flag and persists it.
func (e *Engine) ToggleExplanation(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false, domain.ErrNoActiveSession
	}
	e.session.ExplanationOpen = !e.session.ExplanationOpen
	e.persistLocked(ctx)
	return e.session.ExplanationOpen, nil
}

// ToggleBookmark flips the bookmark on the current question.
func (e *Engine) ToggleBookmark(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false, domain.ErrNoActiveSession
	}
	id := e.session.Order[e.session.CurrentIndex]
	return e.progress.ToggleBookmark(ctx, id)
}

func (e *Engine) choiceMapLocked(q domain.Question) map[string]string {
	labels := choiceLabels(q.Choices)
	if saved, ok := e.session.ChoiceMap[q.ID]; ok && validChoiceMap(saved, labels, q.Choices) {
		return saved
	}
	m := newChoiceMap(e.rnd, labels, q.Choices)
	e.session.ChoiceMap[q.ID] = m
	return m
}

func (e *Engine) inOrderLocked(questionID string) bool {
	for _, id := range e.session.Order {
		if id == questionID {
			return true
		}
	}
	return false
}

// persistLocked writes the session through the store. Storage failures are
// logged, not propagated; the in-memory session stays authoritative.
func (e *Engine) persistLocked(ctx context.Context) {
	if e.session == nil {
		return
	}
	e.session.SavedAt = e.clock()
	if err := e.sessions.Save(ctx, e.session); err != nil {
		log.Printf("save session: %v", err)
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
