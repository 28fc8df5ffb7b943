package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
)

func makeHistoryEntry(projectID, id string, createdAt time.Time) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:        id,
		ProjectID: projectID,
		Operation: models.OperationPush,
		Source:    "cli",
		Message:   "test push",
		Status:    models.HistoryCompleted,
		CreatedAt: createdAt,
		CreatedBy: "tester",
		Changes: []models.Change{
			{
				Scope:      models.ScopeEntry,
				Key:        "greeting",
				Lang:       "en",
				Type:       models.ChangeAdded,
				AfterValue: strPtr("Hello"),
			},
			{
				Scope:        models.ScopeEntry,
				Key:          "farewell",
				Lang:         "en",
				Type:         models.ChangeModified,
				BeforeValue:  strPtr("Bye"),
				AfterValue:   strPtr("Goodbye"),
				AfterComment: "more formal",
			},
			{
				Scope:       models.ScopeEntry,
				Key:         "obsolete",
				Lang:        "en",
				Type:        models.ChangeDeleted,
				BeforeValue: strPtr("old"),
			},
		},
	}
}

func TestHistoryStorage_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	h := makeHistoryEntry("demo", "a1b2c3d4", time.Now().UTC())
	require.NoError(t, s.AppendHistory(ctx, h))

	got, err := s.GetHistory(ctx, "demo", "a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, models.OperationPush, got.Operation)
	assert.Equal(t, "test push", got.Message)
	assert.Equal(t, models.HistoryCompleted, got.Status)
	require.Len(t, got.Changes, 3)

	// Порядок изменений сохраняется
	assert.Equal(t, "greeting", got.Changes[0].Key)
	assert.Equal(t, models.ChangeAdded, got.Changes[0].Type)
	assert.Nil(t, got.Changes[0].BeforeValue)
	assert.Equal(t, "Hello", *got.Changes[0].AfterValue)

	assert.Equal(t, models.ChangeModified, got.Changes[1].Type)
	assert.Equal(t, "Bye", *got.Changes[1].BeforeValue)
	assert.Equal(t, "Goodbye", *got.Changes[1].AfterValue)
	assert.Equal(t, "more formal", got.Changes[1].AfterComment)

	assert.Equal(t, models.ChangeDeleted, got.Changes[2].Type)
	assert.Nil(t, got.Changes[2].AfterValue)
}

func TestHistoryStorage_AppendDuplicateID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	h := makeHistoryEntry("demo", "same-id", time.Now().UTC())
	require.NoError(t, s.AppendHistory(ctx, h))

	err := s.AppendHistory(ctx, makeHistoryEntry("demo", "same-id", time.Now().UTC()))
	assert.ErrorIs(t, err, storage.ErrHistoryExists)

	// Тот же id в другом проекте — не коллизия
	require.NoError(t, s.AppendHistory(ctx, makeHistoryEntry("other", "same-id", time.Now().UTC())))
}

func TestHistoryStorage_GetHistory_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetHistory(ctx, "demo", "missing")
	assert.ErrorIs(t, err, storage.ErrHistoryNotFound)
}

func TestHistoryStorage_List_NewestFirstWithCounts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		h := makeHistoryEntry("demo", fmt.Sprintf("entry-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.AppendHistory(ctx, h))
	}

	summaries, total, err := s.ListHistory(ctx, "demo", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, summaries, 2)

	// Новые первыми
	assert.Equal(t, "entry-4", summaries[0].Entry.ID)
	assert.Equal(t, "entry-3", summaries[1].Entry.ID)

	// Счетчики по типам изменений
	assert.Equal(t, 1, summaries[0].Added)
	assert.Equal(t, 1, summaries[0].Modified)
	assert.Equal(t, 1, summaries[0].Deleted)

	// Вторая страница
	summaries, _, err = s.ListHistory(ctx, "demo", 2, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "entry-2", summaries[0].Entry.ID)
}

func TestHistoryStorage_MarkReverted(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	h := makeHistoryEntry("demo", "target", time.Now().UTC())
	require.NoError(t, s.AppendHistory(ctx, h))

	require.NoError(t, s.MarkHistoryReverted(ctx, "demo", "target"))

	got, err := s.GetHistory(ctx, "demo", "target")
	require.NoError(t, err)
	assert.Equal(t, models.HistoryReverted, got.Status)

	// Список изменений не пострадал
	assert.Len(t, got.Changes, 3)

	assert.ErrorIs(t, s.MarkHistoryReverted(ctx, "demo", "missing"), storage.ErrHistoryNotFound)
}
