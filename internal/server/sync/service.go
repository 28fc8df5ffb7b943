// Package sync реализует серверную часть движка синхронизации:
// применение push-пакетов с compare-and-swap по хешам содержимого,
// полный и инкрементальный pull, разрешение конфликтов и append-only
// журнал истории с откатом.
package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loclate/loclate/internal/server/storage"
)

// ErrValidation помечает запрос, отвергнутый до каких-либо записей.
var ErrValidation = errors.New("validation failed")

// ErrNotFound помечает отсутствующий объект (история, запись).
var ErrNotFound = errors.New("not found")

// historyIDLen длина короткого идентификатора записи истории (hex-символы).
const historyIDLen = 8

// Service реализует операции движка поверх storage.Store.
// Вся корректность при конкурентных push построена на compare-and-swap
// по хешу содержимого внутри одной транзакции на пакет; блокировок
// между клиентами нет.
type Service struct {
	store           storage.Store
	logger          *slog.Logger
	defaultLanguage string
	now             func() time.Time
	newID           func() string
}

// NewService creates a new sync service.
// defaultLanguage используется, пока проект не задал свойство
// конфигурации defaultLanguage.
func NewService(store storage.Store, logger *slog.Logger, defaultLanguage string) *Service {
	return &Service{
		store:           store,
		logger:          logger,
		defaultLanguage: defaultLanguage,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           func() string { return uuid.New().String()[:historyIDLen] },
	}
}

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
