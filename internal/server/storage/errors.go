package storage

import "errors"

// Common storage errors
var (
	// ErrEntryNotFound indicates that entry was not found
	ErrEntryNotFound = errors.New("entry not found")

	// ErrConfigNotFound indicates that config property was not found
	ErrConfigNotFound = errors.New("config property not found")

	// ErrHistoryNotFound indicates that history entry was not found
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrHistoryExists indicates a history id collision on insert
	ErrHistoryExists = errors.New("history entry already exists")
)
