// Package boltdb реализует локальное хранилище клиента поверх BoltDB.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketEntries        = []byte("entries")
	bucketBaseline       = []byte("baseline")
	bucketConfig         = []byte("config")
	bucketConfigBaseline = []byte("config_baseline")
	bucketConflicts      = []byte("conflicts")
	bucketMetadata       = []byte("metadata")
)

// entryKey собирает ключ bucket-а из ключа и языка.
// Разделитель | не входит в допустимые алфавиты ключей и языков.
func entryKey(key, lang string) []byte {
	return []byte(key + "|" + lang)
}

// Storage represents BoltDB storage implementation for the client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance.
// dbPath is the path to the BoltDB database file.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	buckets := [][]byte{
		bucketEntries,
		bucketBaseline,
		bucketConfig,
		bucketConfigBaseline,
		bucketConflicts,
		bucketMetadata,
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}
