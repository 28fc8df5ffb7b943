package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/loclate/loclate/internal/client/storage"
)

const keyLastSync = "last_sync"

// SaveLastSync saves the server timestamp of the last successful pull
func (s *Storage) SaveLastSync(ctx context.Context, ts time.Time) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(ts.UnixNano()))
		return tx.Bucket(bucketMetadata).Put([]byte(keyLastSync), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to save last sync timestamp: %w", err)
	}
	return nil
}

// GetLastSync returns zero time if no pull has been performed yet
func (s *Storage) GetLastSync(ctx context.Context) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, storage.ErrStorageClosed
	}

	var ts time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get([]byte(keyLastSync))
		if data == nil {
			return nil
		}
		ts = time.Unix(0, int64(binary.BigEndian.Uint64(data))).UTC()
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}
	return ts, nil
}
