package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
)

// setupTestStorage создает in-memory хранилище с примененными миграциями
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	ctx := context.Background()
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		require.NoError(t, s.Close())
	}

	return s, cleanup
}

func strPtr(s string) *string { return &s }

// makeEntry создает тестовую запись с корректным отпечатком содержимого
func makeEntry(projectID, key, lang, value string) *models.Entry {
	now := time.Now().UTC()
	v := value
	return &models.Entry{
		ProjectID: projectID,
		Key:       key,
		Lang:      lang,
		Value:     &v,
		Status:    models.StatusTranslated,
		Hash:      fingerprint.Entry(&v, "", nil),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: "tester",
	}
}

func TestStorage_New_InMemory(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NotNil(t, s.DB())
}

func TestStorage_InTx_Commits(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	entry := makeEntry("demo", "greeting", "en", "Hello")

	err := s.InTx(ctx, func(tx storage.Store) error {
		return tx.UpsertEntry(ctx, entry)
	})
	require.NoError(t, err)

	got, err := s.GetEntry(ctx, "demo", "greeting", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.ValueOrEmpty())
}

func TestStorage_InTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	entry := makeEntry("demo", "greeting", "en", "Hello")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.Store) error {
		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Запись не должна была сохраниться
	_, err = s.GetEntry(ctx, "demo", "greeting", "en")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)
}

func TestStorage_InTx_Nested(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	// Вложенный InTx выполняется в той же транзакции
	err := s.InTx(ctx, func(tx storage.Store) error {
		return tx.InTx(ctx, func(inner storage.Store) error {
			return inner.UpsertEntry(ctx, makeEntry("demo", "k", "en", "v"))
		})
	})
	require.NoError(t, err)

	_, err = s.GetEntry(ctx, "demo", "k", "en")
	require.NoError(t, err)
}
