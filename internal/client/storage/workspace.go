package storage

import (
	"context"
	"time"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/pkg/api"
)

// EntryStorage хранит рабочую копию переводов.
type EntryStorage interface {
	// SaveEntry stores or updates a working copy entry
	SaveEntry(ctx context.Context, entry *models.WorkingEntry) error

	// GetEntry возвращает перевод по ключу и языку.
	// Returns ErrEntryNotFound if entry doesn't exist.
	GetEntry(ctx context.Context, key, lang string) (*models.WorkingEntry, error)

	// ListEntries returns all working copy entries ordered by key, lang
	ListEntries(ctx context.Context) ([]*models.WorkingEntry, error)

	// ListKeyEntries returns all translations of one key
	ListKeyEntries(ctx context.Context, key string) ([]*models.WorkingEntry, error)

	// DeleteEntry удаляет перевод из рабочей копии.
	// Удаление отсутствующей записи не ошибка.
	DeleteEntry(ctx context.Context, key, lang string) error
}

// BaselineStorage хранит хеши последнего известного серверного состояния.
// Планировщик сравнивает рабочую копию с базовой линией, чтобы собрать
// push-пакет с корректными baseHash.
type BaselineStorage interface {
	// SaveBaseline записывает хеш серверного состояния перевода
	SaveBaseline(ctx context.Context, key, lang, hash string) error

	// GetBaseline возвращает хеш или "" если сервер запись не видел
	GetBaseline(ctx context.Context, key, lang string) (string, error)

	// ListBaselines returns all known baselines
	ListBaselines(ctx context.Context) ([]models.Baseline, error)

	// DeleteBaseline удаляет базовую линию (после подтвержденного удаления)
	DeleteBaseline(ctx context.Context, key, lang string) error

	// SaveConfigBaseline записывает хеш серверного свойства конфигурации
	SaveConfigBaseline(ctx context.Context, path, hash string) error

	// GetConfigBaseline возвращает хеш или ""
	GetConfigBaseline(ctx context.Context, path string) (string, error)

	// ListConfigBaselines returns path -> hash for all known config baselines
	ListConfigBaselines(ctx context.Context) (map[string]string, error)

	// DeleteConfigBaseline удаляет базовую линию свойства
	DeleteConfigBaseline(ctx context.Context, path string) error
}

// ConfigStorage хранит рабочую копию конфигурации проекта.
type ConfigStorage interface {
	// SaveConfig stores or updates a working copy config property
	SaveConfig(ctx context.Context, prop *models.WorkingConfig) error

	// GetConfig returns ErrConfigNotFound if property doesn't exist
	GetConfig(ctx context.Context, path string) (*models.WorkingConfig, error)

	// ListConfig returns all properties ordered by path
	ListConfig(ctx context.Context) ([]*models.WorkingConfig, error)

	// DeleteConfig удаляет свойство из рабочей копии
	DeleteConfig(ctx context.Context, path string) error
}

// ConflictStorage хранит конфликты, отложенные до разрешения человеком.
type ConflictStorage interface {
	// SaveConflicts добавляет конфликты из ответа сервера
	SaveConflicts(ctx context.Context, conflicts []api.ConflictRecord) error

	// ListConflicts returns all pending conflicts
	ListConflicts(ctx context.Context) ([]api.ConflictRecord, error)

	// DeleteConflict убирает разрешенный конфликт
	DeleteConflict(ctx context.Context, scope, key, lang string) error

	// ClearConflicts удаляет все отложенные конфликты
	ClearConflicts(ctx context.Context) error
}

// MetadataStorage хранит служебные данные синхронизации.
type MetadataStorage interface {
	// SaveLastSync saves the server timestamp of the last successful pull
	SaveLastSync(ctx context.Context, ts time.Time) error

	// GetLastSync returns zero time if no pull has been performed yet
	GetLastSync(ctx context.Context) (time.Time, error)
}

// Workspace объединяет все хранилища локальной рабочей копии.
type Workspace interface {
	EntryStorage
	BaselineStorage
	ConfigStorage
	ConflictStorage
	MetadataStorage
	Close() error
}
