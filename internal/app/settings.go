package app

import (
	"context"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

const defaultQuestionCount = "50"

// SettingsStore persists the settings document. Load returns nil without
// error when nothing usable is stored.
type SettingsStore interface {
	Load(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

// SettingsService loads and validates the user's pool-selection settings.
// Defaults select every catalog section in normal mode.
type SettingsService struct {
	store    SettingsStore
	sections []string
}

func NewSettingsService(store SettingsStore, sections []string) *SettingsService {
	return &SettingsService{store: store, sections: sections}
}

// Load returns the stored settings, falling back to defaults when nothing is
// stored or the stored document is unusable.
func (s *SettingsService) Load(ctx context.Context) domain.Settings {
	stored, err := s.store.Load(ctx)
	if err != nil || stored == nil || len(stored.Sections) == 0 {
		return s.Defaults()
	}

	settings := *stored
	settings.Mode = domain.ParseMode(string(settings.Mode))
	if settings.Count == "" {
		settings.Count = defaultQuestionCount
	}
	return settings
}

// Save validates and persists the candidate wholesale.
func (s *SettingsService) Save(ctx context.Context, candidate domain.Settings) error {
	if len(candidate.Sections) == 0 {
		return domain.ErrNoSections
	}
	candidate.Mode = domain.ParseMode(string(candidate.Mode))
	if candidate.Count == "" {
		candidate.Count = defaultQuestionCount
	}
	return s.store.Save(ctx, candidate)
}

// Defaults returns the settings used before the user has saved any.
func (s *SettingsService) Defaults() domain.Settings {
	return domain.Settings{
		Sections: append([]string(nil), s.sections...),
		Mode:     domain.ModeNormal,
		Count:    defaultQuestionCount,
	}
}
