package storage

import (
	"context"
	"time"

	"github.com/loclate/loclate/internal/models"
)

// EntryStore defines persistence for translation entries.
// Записи физически не удаляются: удаление — это tombstone (Deleted=true),
// который инкрементальный pull отдает клиентам как deleted key.
type EntryStore interface {
	// GetEntry возвращает запись, включая tombstone.
	// ErrEntryNotFound только если строки нет вовсе.
	GetEntry(ctx context.Context, projectID, key, lang string) (*models.Entry, error)

	// GetKeyEntries возвращает все живые записи одного ключа.
	GetKeyEntries(ctx context.Context, projectID, key string) ([]*models.Entry, error)

	// UpsertEntry вставляет или перезаписывает строку записи целиком.
	UpsertEntry(ctx context.Context, e *models.Entry) error

	// CountChangedKeys считает ключи с хотя бы одной живой записью,
	// у которых любая запись (включая tombstone отдельного языка)
	// изменилась после since (nil = все живые ключи).
	CountChangedKeys(ctx context.Context, projectID string, since *time.Time) (int, error)

	// ListChangedKeys возвращает страницу имен таких ключей
	// в стабильном порядке (по имени ключа).
	ListChangedKeys(ctx context.Context, projectID string, since *time.Time, limit, offset int) ([]string, error)

	// ListEntriesByKeys возвращает все записи перечисленных ключей,
	// включая надгробия отдельных языков.
	ListEntriesByKeys(ctx context.Context, projectID string, keys []string) ([]*models.Entry, error)

	// ListDeletedKeys возвращает ключи, все записи которых tombstone,
	// с последним изменением после since (nil = все).
	ListDeletedKeys(ctx context.Context, projectID string, since *time.Time) ([]string, error)
}

// ConfigStore defines persistence for project config properties.
type ConfigStore interface {
	// GetConfig возвращает свойство, включая tombstone.
	GetConfig(ctx context.Context, projectID, path string) (*models.ConfigProperty, error)

	// UpsertConfig вставляет или перезаписывает свойство.
	UpsertConfig(ctx context.Context, p *models.ConfigProperty) error

	// ListConfig возвращает все живые свойства проекта.
	ListConfig(ctx context.Context, projectID string) ([]*models.ConfigProperty, error)
}

// HistorySummary сводка записи истории для постраничного списка.
type HistorySummary struct {
	Entry    models.HistoryEntry
	Added    int
	Modified int
	Deleted  int
}

// HistoryStore определяет append-only журнал принятых push/revert.
type HistoryStore interface {
	// AppendHistory записывает новую запись истории вместе со списком
	// изменений. Возвращает ErrHistoryExists при коллизии id.
	AppendHistory(ctx context.Context, h *models.HistoryEntry) error

	// GetHistory возвращает запись с полным списком изменений.
	GetHistory(ctx context.Context, projectID, id string) (*models.HistoryEntry, error)

	// ListHistory возвращает страницу сводок (без списка изменений),
	// новые первыми, и общее количество записей.
	ListHistory(ctx context.Context, projectID string, limit, offset int) ([]*HistorySummary, int, error)

	// MarkHistoryReverted помечает запись как reverted.
	// Содержимое записи при этом не меняется.
	MarkHistoryReverted(ctx context.Context, projectID, id string) error
}

// Store объединяет все хранилища движка синхронизации.
// InTx выполняет fn в одной транзакции БД: все compare-and-swap
// проверки пакета push атомарны относительно других писателей.
type Store interface {
	EntryStore
	ConfigStore
	HistoryStore

	InTx(ctx context.Context, fn func(Store) error) error
}
