package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage/sqlite"
	"github.com/loclate/loclate/pkg/api"
)

const testProject = "demo"

// newTestService создает движок поверх in-memory SQLite
func newTestService(t *testing.T) (*Service, *sqlite.Storage) {
	t.Helper()

	ctx := context.Background()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger, "en"), store
}

func strPtr(s string) *string { return &s }

// timePtrBeforeAll — метка "с начала времен" для инкрементального pull
func timePtrBeforeAll() *time.Time {
	ts := time.Unix(0, 0)
	return &ts
}

// pushOne отправляет одно изменение и возвращает ответ
func pushOne(t *testing.T, s *Service, ch api.EntryChange) *api.PushResponse {
	t.Helper()
	resp, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{ch},
	})
	require.NoError(t, err)
	return resp
}

func TestPush_CreateNewEntry(t *testing.T) {
	s, _ := newTestService(t)

	resp := pushOne(t, s, api.EntryChange{
		Key:   "greeting",
		Lang:  "en",
		Value: strPtr("Hi"),
	})

	assert.Equal(t, 1, resp.Applied)
	assert.Empty(t, resp.Conflicts)
	require.Contains(t, resp.NewEntryHashes, "greeting")
	hash := resp.NewEntryHashes["greeting"]["en"]
	assert.Len(t, hash, fingerprint.Size)
	assert.Equal(t, fingerprint.Entry(strPtr("Hi"), "", nil), hash)
	assert.NotEmpty(t, resp.HistoryID)
}

func TestPush_BlindCreateConflicts(t *testing.T) {
	// Два клиента считают один и тот же ключ новым: первый выигрывает,
	// второй получает BothModified с серверным значением
	s, _ := newTestService(t)

	first := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("Hi")})
	require.Equal(t, 1, first.Applied)

	second := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("Hello")})
	assert.Equal(t, 0, second.Applied)
	require.Len(t, second.Conflicts, 1)

	c := second.Conflicts[0]
	assert.Equal(t, string(models.ConflictBothModified), c.Type)
	assert.Equal(t, "greeting", c.Key)
	assert.Equal(t, "Hello", *c.LocalValue)
	assert.Equal(t, "Hi", *c.RemoteValue)
	assert.Equal(t, first.NewEntryHashes["greeting"]["en"], c.RemoteHash)
	assert.Equal(t, "alice", c.RemoteUpdatedBy)
}

func TestPush_MatchingBaseHashApplies(t *testing.T) {
	s, _ := newTestService(t)

	first := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("Hi")})
	base := first.NewEntryHashes["greeting"]["en"]

	second := pushOne(t, s, api.EntryChange{
		Key:      "greeting",
		Lang:     "en",
		Value:    strPtr("Hello"),
		BaseHash: &base,
	})

	assert.Equal(t, 1, second.Applied)
	assert.Empty(t, second.Conflicts)
	assert.NotEqual(t, base, second.NewEntryHashes["greeting"]["en"])
}

func TestPush_StaleBaseHashConflicts(t *testing.T) {
	// Два клиента отправляют разные значения с одной устаревшей базой:
	// применяется ровно один, второй получает конфликт
	s, _ := newTestService(t)

	first := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v1")})
	base := first.NewEntryHashes["greeting"]["en"]

	winner := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v2"), BaseHash: &base})
	require.Equal(t, 1, winner.Applied)

	loser := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v3"), BaseHash: &base})
	assert.Equal(t, 0, loser.Applied)
	require.Len(t, loser.Conflicts, 1)
	assert.Equal(t, "v2", *loser.Conflicts[0].RemoteValue)
}

func TestPush_BatchAppliesNonConflicting(t *testing.T) {
	// Конфликт одного элемента не откатывает остальные
	s, _ := newTestService(t)

	pushOne(t, s, api.EntryChange{Key: "taken", Lang: "en", Value: strPtr("server")})

	resp, err := s.Push(context.Background(), testProject, "bob", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "taken", Lang: "en", Value: strPtr("mine")}, // конфликт
			{Key: "fresh", Lang: "en", Value: strPtr("ok")},
			{Key: "fresh", Lang: "de", Value: strPtr("gut")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Applied)
	assert.Len(t, resp.Conflicts, 1)
	assert.Contains(t, resp.NewEntryHashes, "fresh")
	assert.NotContains(t, resp.NewEntryHashes, "taken")

	// История описывает только принятые изменения
	detail, err := s.GetHistoryDetail(context.Background(), testProject, resp.HistoryID)
	require.NoError(t, err)
	assert.Len(t, detail.Changes, 2)
	assert.Equal(t, 2, detail.EntriesAdded)
}

func TestPush_DeleteWithCorrectBase(t *testing.T) {
	s, _ := newTestService(t)

	created := pushOne(t, s, api.EntryChange{Key: "obsolete", Lang: "en", Value: strPtr("x")})
	base := created.NewEntryHashes["obsolete"]["en"]

	resp, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "obsolete", Lang: "en", BaseHash: &base}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Deleted)
	assert.Empty(t, resp.Conflicts)

	// Pull показывает ключ в deletedKeys, не в entries
	pull, err := s.Pull(context.Background(), testProject, PullOptions{Since: timePtrBeforeAll()})
	require.NoError(t, err)
	assert.Empty(t, pull.Entries)
	assert.Equal(t, []string{"obsolete"}, pull.DeletedKeys)
}

func TestPush_DeleteIdempotent(t *testing.T) {
	s, _ := newTestService(t)

	hash := "0000000000000000000000000000000000000000000000000000000000000000"
	resp, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "never.existed", Lang: "en", BaseHash: &hash}},
	})
	require.NoError(t, err)

	// Удаление отсутствующего — no-op, не конфликт
	assert.Equal(t, 0, resp.Deleted)
	assert.Empty(t, resp.Conflicts)
	assert.Empty(t, resp.HistoryID)
}

func TestPush_DeleteStaleBaseConflicts(t *testing.T) {
	s, _ := newTestService(t)

	created := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v1")})
	stale := created.NewEntryHashes["greeting"]["en"]

	// Сервер уходит вперед
	pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v2"), BaseHash: &stale})

	resp, err := s.Push(context.Background(), testProject, "bob", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "greeting", Lang: "en", BaseHash: &stale}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Deleted)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, string(models.ConflictDeletedLocal), resp.Conflicts[0].Type)
	assert.Equal(t, "v2", *resp.Conflicts[0].RemoteValue)
}

func TestPush_ChangeOverTombstoneConflicts(t *testing.T) {
	s, _ := newTestService(t)

	created := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v1")})
	base := created.NewEntryHashes["greeting"]["en"]

	_, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "greeting", Lang: "en", BaseHash: &base}},
	})
	require.NoError(t, err)

	// Изменение поверх серверного удаления
	resp := pushOne(t, s, api.EntryChange{Key: "greeting", Lang: "en", Value: strPtr("v2"), BaseHash: &base})
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, string(models.ConflictDeletedRemote), resp.Conflicts[0].Type)
	assert.Nil(t, resp.Conflicts[0].RemoteValue)
}

func TestPush_WholeKeyDeletion(t *testing.T) {
	s, _ := newTestService(t)

	created, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "multi", Lang: "en", Value: strPtr("same")},
			{Key: "multi", Lang: "de", Value: strPtr("same")},
		},
	})
	require.NoError(t, err)

	// Оба языка имеют одинаковое содержимое и одинаковый хеш,
	// одно намерение без языка удаляет ключ целиком
	base := created.NewEntryHashes["multi"]["en"]
	resp, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "multi", BaseHash: &base}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Deleted)

	pull, err := s.Pull(context.Background(), testProject, PullOptions{Since: timePtrBeforeAll()})
	require.NoError(t, err)
	assert.Equal(t, []string{"multi"}, pull.DeletedKeys)
}

func TestPush_RecreateAfterDeletion(t *testing.T) {
	s, _ := newTestService(t)

	created := pushOne(t, s, api.EntryChange{Key: "phoenix", Lang: "en", Value: strPtr("v1")})
	base := created.NewEntryHashes["phoenix"]["en"]
	_, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "phoenix", Lang: "en", BaseHash: &base}},
	})
	require.NoError(t, err)

	// Новый push без базы возрождает удаленный ключ
	resp := pushOne(t, s, api.EntryChange{Key: "phoenix", Lang: "en", Value: strPtr("v2")})
	assert.Equal(t, 1, resp.Applied)
	assert.Empty(t, resp.Conflicts)

	pull, err := s.Pull(context.Background(), testProject, PullOptions{})
	require.NoError(t, err)
	require.Len(t, pull.Entries, 1)
	assert.Equal(t, "v2", *pull.Entries[0].Translations["en"].Value)
}

func TestPush_ConfigChanges(t *testing.T) {
	s, _ := newTestService(t)

	resp, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Config: api.ConfigPush{
			Changes: []api.ConfigChange{
				{Path: "defaultLanguage", ValueType: "string", Value: "de"},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.ConfigApplied)
	require.Contains(t, resp.NewConfigHashes, "defaultLanguage")

	// Слепая перезапись конфигурации конфликтует
	second, err := s.Push(context.Background(), testProject, "bob", api.PushRequest{
		Config: api.ConfigPush{
			Changes: []api.ConfigChange{
				{Path: "defaultLanguage", ValueType: "string", Value: "fr"},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, second.ConfigApplied)
	require.Len(t, second.Conflicts, 1)
	assert.Equal(t, string(models.ScopeConfig), second.Conflicts[0].Scope)
	assert.Equal(t, "de", *second.Conflicts[0].RemoteValue)

	// С корректной базой перезапись проходит
	base := resp.NewConfigHashes["defaultLanguage"]
	third, err := s.Push(context.Background(), testProject, "bob", api.PushRequest{
		Config: api.ConfigPush{
			Changes: []api.ConfigChange{
				{Path: "defaultLanguage", ValueType: "string", Value: "fr", BaseHash: &base},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, third.ConfigApplied)
}

func TestPush_ValidationRejectsWholeRequest(t *testing.T) {
	s, store := newTestService(t)

	_, err := s.Push(context.Background(), testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "good.key", Lang: "en", Value: strPtr("ok")},
			{Key: "bad key!", Lang: "en", Value: strPtr("nope")},
		},
	})
	require.ErrorIs(t, err, ErrValidation)

	// Ничего не записалось, включая корректные элементы
	_, getErr := store.GetEntry(context.Background(), testProject, "good.key", "en")
	assert.Error(t, getErr)
}

func TestPush_ValidationCases(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  api.PushRequest
	}{
		{
			name: "bad language",
			req: api.PushRequest{
				Entries: []api.EntryChange{{Key: "k", Lang: "not a lang", Value: strPtr("v")}},
			},
		},
		{
			name: "bad status",
			req: api.PushRequest{
				Entries: []api.EntryChange{{Key: "k", Lang: "en", Value: strPtr("v"), Status: "shipped"}},
			},
		},
		{
			name: "deletion without base hash",
			req: api.PushRequest{
				Deletions: []api.EntryDeletion{{Key: "k", Lang: "en"}},
			},
		},
		{
			name: "bad config value type",
			req: api.PushRequest{
				Config: api.ConfigPush{Changes: []api.ConfigChange{{Path: "p", ValueType: "blob", Value: "x"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Push(ctx, testProject, "alice", tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}
