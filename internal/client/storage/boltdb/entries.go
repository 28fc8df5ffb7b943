package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/models"
)

// SaveEntry stores or updates a working copy entry
func (s *Storage) SaveEntry(ctx context.Context, entry *models.WorkingEntry) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Put(entryKey(entry.Key, entry.Lang), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// GetEntry возвращает перевод по ключу и языку
func (s *Storage) GetEntry(ctx context.Context, key, lang string) (*models.WorkingEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entry *models.WorkingEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntries).Get(entryKey(key, lang))
		if data == nil {
			return storage.ErrEntryNotFound
		}

		entry = &models.WorkingEntry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all working copy entries ordered by key, lang
func (s *Storage) ListEntries(ctx context.Context) ([]*models.WorkingEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entries []*models.WorkingEntry

	// Ключи bucket-а отсортированы лексикографически: порядок key|lang
	// получается без дополнительной сортировки
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var entry models.WorkingEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// ListKeyEntries returns all translations of one key
func (s *Storage) ListKeyEntries(ctx context.Context, key string) ([]*models.WorkingEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	prefix := []byte(key + "|")
	var entries []*models.WorkingEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var entry models.WorkingEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list key entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry удаляет перевод из рабочей копии
func (s *Storage) DeleteEntry(ctx context.Context, key, lang string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete(entryKey(key, lang))
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}
