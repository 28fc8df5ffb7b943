package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/pkg/api"
)

// conflictKey строит ключ bucket-а: scope|key|lang.
// Для конфигурации язык пуст, ключ остается уникальным.
func conflictKey(scope, key, lang string) []byte {
	return []byte(scope + "|" + key + "|" + lang)
}

// SaveConflicts добавляет конфликты из ответа сервера.
// Повторный конфликт того же ключа перезаписывает отложенный:
// актуальным считается последнее серверное состояние.
func (s *Storage) SaveConflicts(ctx context.Context, conflicts []api.ConflictRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if len(conflicts) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)
		for _, c := range conflicts {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to marshal conflict: %w", err)
			}
			if err := bucket.Put(conflictKey(c.Scope, c.Key, c.Lang), data); err != nil {
				return fmt.Errorf("failed to save conflict: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save conflicts: %w", err)
	}
	return nil
}

// ListConflicts returns all pending conflicts
func (s *Storage) ListConflicts(ctx context.Context) ([]api.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var conflicts []api.ConflictRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var c api.ConflictRecord
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal conflict: %w", err)
			}
			conflicts = append(conflicts, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	return conflicts, nil
}

// DeleteConflict убирает разрешенный конфликт
func (s *Storage) DeleteConflict(ctx context.Context, scope, key, lang string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).Delete(conflictKey(scope, key, lang))
	})
	if err != nil {
		return fmt.Errorf("failed to delete conflict: %w", err)
	}
	return nil
}

// ClearConflicts удаляет все отложенные конфликты
func (s *Storage) ClearConflicts(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketConflicts); err != nil {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketConflicts); err != nil {
			return fmt.Errorf("failed to recreate bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear conflicts: %w", err)
	}
	return nil
}
