// Package store реализует редактирование локальной рабочей копии:
// переводы и конфигурация проекта до их отправки на сервер.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/validation"
)

// ErrNotFound запрошенный объект отсутствует в рабочей копии.
var ErrNotFound = errors.New("not found")

// Service handles local working copy edits.
type Service struct {
	entries storage.EntryStorage
	config  storage.ConfigStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new working copy service.
func NewService(entries storage.EntryStorage, config storage.ConfigStorage, logger *slog.Logger) *Service {
	return &Service{
		entries: entries,
		config:  config,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetOptions дополнительные атрибуты перевода при записи.
type SetOptions struct {
	Comment          string
	Status           string
	IsPlural         bool
	SourcePluralText string
	PluralForms      map[string]string
}

// SetEntry записывает перевод в рабочую копию.
// value == nil помечает ключ как ожидающий перевода.
// Существующие атрибуты, не заданные в opts, сохраняются.
func (s *Service) SetEntry(ctx context.Context, key, lang string, value *string, opts SetOptions) (*models.WorkingEntry, error) {
	if err := validation.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := validation.ValidateLanguage(lang); err != nil {
		return nil, err
	}

	status := models.TranslationStatus(opts.Status)
	if opts.Status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", opts.Status)
	}

	entry, err := s.entries.GetEntry(ctx, key, lang)
	if err != nil {
		if !errors.Is(err, storage.ErrEntryNotFound) {
			return nil, err
		}
		entry = &models.WorkingEntry{Key: key, Lang: lang}
	}

	entry.Value = value
	entry.ModifiedAt = s.now()
	if opts.Comment != "" {
		entry.Comment = opts.Comment
	}
	if opts.IsPlural {
		entry.IsPlural = true
	}
	if opts.SourcePluralText != "" {
		entry.SourcePluralText = opts.SourcePluralText
	}
	if opts.PluralForms != nil {
		entry.PluralForms = opts.PluralForms
	}

	switch {
	case opts.Status != "":
		entry.Status = status
	case value == nil && len(entry.PluralForms) == 0:
		entry.Status = models.StatusPending
	case entry.Status == "":
		entry.Status = models.StatusTranslated
	}

	if err := s.entries.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Debug("entry saved", "key", key, "lang", lang)
	return entry, nil
}

// GetEntry возвращает перевод из рабочей копии.
func (s *Service) GetEntry(ctx context.Context, key, lang string) (*models.WorkingEntry, error) {
	entry, err := s.entries.GetEntry(ctx, key, lang)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, key, lang)
		}
		return nil, err
	}
	return entry, nil
}

// ListEntries возвращает все переводы рабочей копии.
func (s *Service) ListEntries(ctx context.Context) ([]*models.WorkingEntry, error) {
	return s.entries.ListEntries(ctx)
}

// DeleteEntry удаляет один перевод.
// Пока удаление не отправлено push-ом, сервер о нем не знает.
func (s *Service) DeleteEntry(ctx context.Context, key, lang string) error {
	if _, err := s.GetEntry(ctx, key, lang); err != nil {
		return err
	}
	return s.entries.DeleteEntry(ctx, key, lang)
}

// DeleteKey удаляет ключ целиком: все его языки.
func (s *Service) DeleteKey(ctx context.Context, key string) (int, error) {
	entries, err := s.entries.ListKeyEntries(ctx, key)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	for _, e := range entries {
		if err := s.entries.DeleteEntry(ctx, e.Key, e.Lang); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// SetConfig записывает свойство конфигурации проекта.
func (s *Service) SetConfig(ctx context.Context, path, valueType, value string) (*models.WorkingConfig, error) {
	if err := validation.ValidateConfigPath(path); err != nil {
		return nil, err
	}

	vt := models.ConfigValueType(valueType)
	if valueType == "" {
		vt = models.ConfigString
	} else if !vt.Valid() {
		return nil, fmt.Errorf("unknown value type %q", valueType)
	}

	prop := &models.WorkingConfig{
		Path:       path,
		ValueType:  vt,
		Value:      value,
		ModifiedAt: s.now(),
	}
	if err := s.config.SaveConfig(ctx, prop); err != nil {
		return nil, err
	}
	return prop, nil
}

// GetConfig возвращает свойство конфигурации.
func (s *Service) GetConfig(ctx context.Context, path string) (*models.WorkingConfig, error) {
	prop, err := s.config.GetConfig(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return prop, nil
}

// ListConfig возвращает все свойства конфигурации.
func (s *Service) ListConfig(ctx context.Context) ([]*models.WorkingConfig, error) {
	return s.config.ListConfig(ctx)
}

// DeleteConfig удаляет свойство конфигурации из рабочей копии.
func (s *Service) DeleteConfig(ctx context.Context, path string) error {
	if _, err := s.GetConfig(ctx, path); err != nil {
		return err
	}
	return s.config.DeleteConfig(ctx, path)
}
