package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// The in-memory stores hold the marshalled JSON document rather than the
// struct, so the persistence codec is exercised even in redis-less runs and
// tests. Unparsable documents are discarded on load (fail-soft).

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu  sync.Mutex
	doc []byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, nil
	}
	var session domain.Session
	if err := json.Unmarshal(s.doc, &session); err != nil {
		s.doc = nil
		return nil, nil
	}
	return &session, nil
}

func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	return nil
}

// SeedRaw injects a raw document, bypassing the codec. Test hook for corrupt
// and legacy-shaped data.
func (s *SessionStore) SeedRaw(doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = append([]byte(nil), doc...)
}

// ProgressStore is an in-memory implementation of app.ProgressStore.
type ProgressStore struct {
	mu  sync.Mutex
	doc []byte
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{}
}

func (s *ProgressStore) Load(_ context.Context) (domain.ProgressMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.ProgressMap{}, nil
	}
	var records domain.ProgressMap
	if err := json.Unmarshal(s.doc, &records); err != nil {
		s.doc = nil
		return domain.ProgressMap{}, nil
	}
	return records, nil
}

func (s *ProgressStore) Save(_ context.Context, records domain.ProgressMap) error {
	doc, err := json.Marshal(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}

// SeedRaw injects a raw document, bypassing the codec.
func (s *ProgressStore) SeedRaw(doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = append([]byte(nil), doc...)
}

// SettingsStore is an in-memory implementation of app.SettingsStore.
type SettingsStore struct {
	mu  sync.Mutex
	doc []byte
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

func (s *SettingsStore) Load(_ context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, nil
	}
	var settings domain.Settings
	if err := json.Unmarshal(s.doc, &settings); err != nil {
		s.doc = nil
		return nil, nil
	}
	return &settings, nil
}

func (s *SettingsStore) Save(_ context.Context, settings domain.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}
