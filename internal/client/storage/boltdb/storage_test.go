package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/pkg/api"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func strPtr(v string) *string { return &v }

func makeEntry(key, lang, value string) *models.WorkingEntry {
	return &models.WorkingEntry{
		Key:        key,
		Lang:       lang,
		Value:      strPtr(value),
		Status:     models.StatusTranslated,
		ModifiedAt: time.Now().UTC(),
	}
}

func TestEntries_SaveGetDelete(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	entry := makeEntry("greeting", "en", "Hello")
	entry.Comment = "login screen"
	entry.PluralForms = map[string]string{"one": "x"}
	require.NoError(t, s.SaveEntry(ctx, entry))

	got, err := s.GetEntry(ctx, "greeting", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", *got.Value)
	assert.Equal(t, "login screen", got.Comment)
	assert.Equal(t, "x", got.PluralForms["one"])

	require.NoError(t, s.DeleteEntry(ctx, "greeting", "en"))
	_, err = s.GetEntry(ctx, "greeting", "en")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)

	// Удаление отсутствующей записи не ошибка
	assert.NoError(t, s.DeleteEntry(ctx, "greeting", "en"))
}

func TestEntries_NilValue(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntry(ctx, &models.WorkingEntry{
		Key: "todo", Lang: "fr", Status: models.StatusPending,
	}))

	got, err := s.GetEntry(ctx, "todo", "fr")
	require.NoError(t, err)
	assert.Nil(t, got.Value)
}

func TestEntries_ListOrdered(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntry(ctx, makeEntry("b", "en", "2")))
	require.NoError(t, s.SaveEntry(ctx, makeEntry("a", "fr", "1f")))
	require.NoError(t, s.SaveEntry(ctx, makeEntry("a", "en", "1e")))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "en", entries[0].Lang)
	assert.Equal(t, "fr", entries[1].Lang)
	assert.Equal(t, "b", entries[2].Key)
}

func TestEntries_ListKeyEntries(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	// Префиксный ключ не должен захватывать чужие записи
	require.NoError(t, s.SaveEntry(ctx, makeEntry("app", "en", "1")))
	require.NoError(t, s.SaveEntry(ctx, makeEntry("app", "de", "2")))
	require.NoError(t, s.SaveEntry(ctx, makeEntry("app.title", "en", "3")))

	entries, err := s.ListKeyEntries(ctx, "app")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "app", e.Key)
	}
}

func TestBaselines(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	// Неизвестная базовая линия — пустой хеш, не ошибка
	hash, err := s.GetBaseline(ctx, "greeting", "en")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, s.SaveBaseline(ctx, "greeting", "en", "abc123"))
	require.NoError(t, s.SaveBaseline(ctx, "greeting", "de", "def456"))

	hash, err = s.GetBaseline(ctx, "greeting", "en")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	baselines, err := s.ListBaselines(ctx)
	require.NoError(t, err)
	require.Len(t, baselines, 2)
	assert.Equal(t, "de", baselines[0].Lang)

	require.NoError(t, s.DeleteBaseline(ctx, "greeting", "en"))
	hash, err = s.GetBaseline(ctx, "greeting", "en")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestConfigBaselines(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConfigBaseline(ctx, "defaultLanguage", "aaa"))

	hash, err := s.GetConfigBaseline(ctx, "defaultLanguage")
	require.NoError(t, err)
	assert.Equal(t, "aaa", hash)

	all, err := s.ListConfigBaselines(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"defaultLanguage": "aaa"}, all)

	require.NoError(t, s.DeleteConfigBaseline(ctx, "defaultLanguage"))
	hash, err = s.GetConfigBaseline(ctx, "defaultLanguage")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestConfig(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.GetConfig(ctx, "defaultLanguage")
	assert.ErrorIs(t, err, storage.ErrConfigNotFound)

	require.NoError(t, s.SaveConfig(ctx, &models.WorkingConfig{
		Path:      "defaultLanguage",
		ValueType: models.ConfigString,
		Value:     "de",
	}))

	got, err := s.GetConfig(ctx, "defaultLanguage")
	require.NoError(t, err)
	assert.Equal(t, "de", got.Value)

	props, err := s.ListConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 1)

	require.NoError(t, s.DeleteConfig(ctx, "defaultLanguage"))
	_, err = s.GetConfig(ctx, "defaultLanguage")
	assert.ErrorIs(t, err, storage.ErrConfigNotFound)
}

func TestConflicts(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	conflicts := []api.ConflictRecord{
		{Scope: "entry", Key: "greeting", Lang: "en", Type: "both_modified", RemoteValue: strPtr("Hi")},
		{Scope: "config", Key: "defaultLanguage", Type: "both_modified", RemoteValue: strPtr("de")},
	}
	require.NoError(t, s.SaveConflicts(ctx, conflicts))

	got, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Повторный конфликт ключа перезаписывает отложенный
	require.NoError(t, s.SaveConflicts(ctx, []api.ConflictRecord{
		{Scope: "entry", Key: "greeting", Lang: "en", Type: "both_modified", RemoteValue: strPtr("Hey")},
	}))
	got, err = s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NoError(t, s.DeleteConflict(ctx, "entry", "greeting", "en"))
	got, err = s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "config", got[0].Scope)

	require.NoError(t, s.ClearConflicts(ctx))
	got, err = s.ListConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetadata_LastSync(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	ts, err := s.GetLastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	want := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, s.SaveLastSync(ctx, want))

	ts, err = s.GetLastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Equal(want))
}

func TestStorage_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveEntry(ctx, makeEntry("greeting", "en", "Hello")))
	require.NoError(t, s.Close())

	s, err = New(ctx, path)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	got, err := s.GetEntry(ctx, "greeting", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", *got.Value)
}
