// Package storage определяет интерфейсы локального хранилища клиента.
package storage

import "errors"

// Common client storage errors
var (
	// ErrEntryNotFound запись отсутствует в рабочей копии
	ErrEntryNotFound = errors.New("entry not found")

	// ErrConfigNotFound свойство конфигурации отсутствует
	ErrConfigNotFound = errors.New("config property not found")

	// ErrStorageClosed хранилище уже закрыто
	ErrStorageClosed = errors.New("storage is closed")
)
