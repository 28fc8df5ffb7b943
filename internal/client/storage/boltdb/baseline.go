package boltdb

import (
	"context"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/models"
)

// SaveBaseline записывает хеш серверного состояния перевода
func (s *Storage) SaveBaseline(ctx context.Context, key, lang, hash string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBaseline).Put(entryKey(key, lang), []byte(hash))
	})
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	return nil
}

// GetBaseline возвращает хеш или "" если сервер запись не видел
func (s *Storage) GetBaseline(ctx context.Context, key, lang string) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var hash string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketBaseline).Get(entryKey(key, lang)); data != nil {
			hash = string(data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get baseline: %w", err)
	}
	return hash, nil
}

// ListBaselines returns all known baselines
func (s *Storage) ListBaselines(ctx context.Context) ([]models.Baseline, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var baselines []models.Baseline
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBaseline).ForEach(func(k, v []byte) error {
			key, lang, ok := strings.Cut(string(k), "|")
			if !ok {
				return fmt.Errorf("malformed baseline key %q", k)
			}
			baselines = append(baselines, models.Baseline{Key: key, Lang: lang, Hash: string(v)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	return baselines, nil
}

// DeleteBaseline удаляет базовую линию
func (s *Storage) DeleteBaseline(ctx context.Context, key, lang string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBaseline).Delete(entryKey(key, lang))
	})
	if err != nil {
		return fmt.Errorf("failed to delete baseline: %w", err)
	}
	return nil
}

// SaveConfigBaseline записывает хеш серверного свойства конфигурации
func (s *Storage) SaveConfigBaseline(ctx context.Context, path, hash string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfigBaseline).Put([]byte(path), []byte(hash))
	})
	if err != nil {
		return fmt.Errorf("failed to save config baseline: %w", err)
	}
	return nil
}

// GetConfigBaseline возвращает хеш или ""
func (s *Storage) GetConfigBaseline(ctx context.Context, path string) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var hash string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketConfigBaseline).Get([]byte(path)); data != nil {
			hash = string(data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get config baseline: %w", err)
	}
	return hash, nil
}

// ListConfigBaselines returns path -> hash for all known config baselines
func (s *Storage) ListConfigBaselines(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	baselines := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfigBaseline).ForEach(func(k, v []byte) error {
			baselines[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list config baselines: %w", err)
	}
	return baselines, nil
}

// DeleteConfigBaseline удаляет базовую линию свойства
func (s *Storage) DeleteConfigBaseline(ctx context.Context, path string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfigBaseline).Delete([]byte(path))
	})
	if err != nil {
		return fmt.Errorf("failed to delete config baseline: %w", err)
	}
	return nil
}
