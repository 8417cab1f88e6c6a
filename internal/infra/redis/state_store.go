package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

const (
	sessionKey  = "quizpractice:session"
	progressKey = "quizpractice:progress"
	settingsKey = "quizpractice:settings"
)

// Each store owns one Redis string key holding a JSON document. Reads fail
// soft: a missing key yields the zero value, an unparsable document yields the
// zero value and a best-effort delete of the offending key.

// SessionStore is a Redis-backed implementation of app.SessionStore.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		_ = s.client.Del(ctx, sessionKey).Err()
		return nil, nil
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey, doc, 0).Err()
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey).Err()
}

// ProgressStore is a Redis-backed implementation of app.ProgressStore.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) Load(ctx context.Context) (domain.ProgressMap, error) {
	raw, err := s.client.Get(ctx, progressKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProgressMap{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records domain.ProgressMap
	if err := json.Unmarshal(raw, &records); err != nil {
		_ = s.client.Del(ctx, progressKey).Err()
		return domain.ProgressMap{}, nil
	}
	return records, nil
}

func (s *ProgressStore) Save(ctx context.Context, records domain.ProgressMap) error {
	doc, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, progressKey, doc, 0).Err()
}

// SettingsStore is a Redis-backed implementation of app.SettingsStore.
type SettingsStore struct {
	client *redis.Client
}

func NewSettingsStore(client *redis.Client) *SettingsStore {
	return &SettingsStore{client: client}
}

func (s *SettingsStore) Load(ctx context.Context) (*domain.Settings, error) {
	raw, err := s.client.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		_ = s.client.Del(ctx, settingsKey).Err()
		return nil, nil
	}
	return &settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, settingsKey, doc, 0).Err()
}
