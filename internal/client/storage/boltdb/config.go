package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/models"
)

// SaveConfig stores or updates a working copy config property
func (s *Storage) SaveConfig(ctx context.Context, prop *models.WorkingConfig) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(prop)
	if err != nil {
		return fmt.Errorf("failed to marshal config property: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfig).Put([]byte(prop.Path), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save config property: %w", err)
	}
	return nil
}

// GetConfig возвращает свойство рабочей копии
func (s *Storage) GetConfig(ctx context.Context, path string) (*models.WorkingConfig, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var prop *models.WorkingConfig
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketConfig).Get([]byte(path))
		if data == nil {
			return storage.ErrConfigNotFound
		}

		prop = &models.WorkingConfig{}
		if err := json.Unmarshal(data, prop); err != nil {
			return fmt.Errorf("failed to unmarshal config property: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// ListConfig returns all properties ordered by path
func (s *Storage) ListConfig(ctx context.Context) ([]*models.WorkingConfig, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var props []*models.WorkingConfig
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfig).ForEach(func(k, v []byte) error {
			var prop models.WorkingConfig
			if err := json.Unmarshal(v, &prop); err != nil {
				return fmt.Errorf("failed to unmarshal config property: %w", err)
			}
			props = append(props, &prop)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list config properties: %w", err)
	}
	return props, nil
}

// DeleteConfig удаляет свойство из рабочей копии
func (s *Storage) DeleteConfig(ctx context.Context, path string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConfig).Delete([]byte(path))
	})
	if err != nil {
		return fmt.Errorf("failed to delete config property: %w", err)
	}
	return nil
}
