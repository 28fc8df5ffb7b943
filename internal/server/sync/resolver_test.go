package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/pkg/api"
)

// setupConflict создает серверную запись и возвращает конфликт,
// который получает клиент со слепым push-ом того же ключа
func setupConflict(t *testing.T, s *Service) api.ConflictRecord {
	t.Helper()
	ctx := context.Background()

	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{{Key: "greeting", Lang: "en", Value: strPtr("Hi")}},
	})
	require.NoError(t, err)

	resp, err := s.Push(ctx, testProject, "bob", api.PushRequest{
		Entries: []api.EntryChange{{Key: "greeting", Lang: "en", Value: strPtr("Hello")}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Conflicts, 1)
	return resp.Conflicts[0]
}

func pullValue(t *testing.T, s *Service, key, lang string) *string {
	t.Helper()
	resp, err := s.Pull(context.Background(), testProject, PullOptions{})
	require.NoError(t, err)
	for _, e := range resp.Entries {
		if e.Key == key {
			return e.Translations[lang].Value
		}
	}
	return nil
}

func TestResolve_Local(t *testing.T) {
	s, _ := newTestService(t)
	conflict := setupConflict(t, s)

	resp, err := s.Resolve(context.Background(), testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:      "entry",
			Key:        "greeting",
			Lang:       "en",
			Resolution: api.ResolutionLocal,
			RemoteHash: conflict.RemoteHash,
			LocalValue: conflict.LocalValue,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Applied)
	assert.Empty(t, resp.Stale)
	assert.NotEmpty(t, resp.HistoryID)
	require.Contains(t, resp.NewHashes, "greeting")

	v := pullValue(t, s, "greeting", "en")
	require.NotNil(t, v)
	assert.Equal(t, "Hello", *v)
}

func TestResolve_RemoteKeepsServerValue(t *testing.T) {
	s, _ := newTestService(t)
	conflict := setupConflict(t, s)

	resp, err := s.Resolve(context.Background(), testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:      "entry",
			Key:        "greeting",
			Lang:       "en",
			Resolution: api.ResolutionRemote,
			RemoteHash: conflict.RemoteHash,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Applied)
	// Remote — бездействие на сервере: значение и хеш не меняются
	assert.Equal(t, conflict.RemoteHash, resp.NewHashes["greeting"]["en"])
	assert.Empty(t, resp.HistoryID)

	v := pullValue(t, s, "greeting", "en")
	require.NotNil(t, v)
	assert.Equal(t, "Hi", *v)
}

func TestResolve_Edit(t *testing.T) {
	s, _ := newTestService(t)
	conflict := setupConflict(t, s)

	resp, err := s.Resolve(context.Background(), testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:       "entry",
			Key:         "greeting",
			Lang:        "en",
			Resolution:  api.ResolutionEdit,
			RemoteHash:  conflict.RemoteHash,
			EditedValue: strPtr("Hey there"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Applied)

	v := pullValue(t, s, "greeting", "en")
	require.NotNil(t, v)
	assert.Equal(t, "Hey there", *v)
}

func TestResolve_SkipLeavesConflictOpen(t *testing.T) {
	s, _ := newTestService(t)
	conflict := setupConflict(t, s)

	resp, err := s.Resolve(context.Background(), testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:      "entry",
			Key:        "greeting",
			Lang:       "en",
			Resolution: api.ResolutionSkip,
			RemoteHash: conflict.RemoteHash,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Applied)
	assert.Empty(t, resp.HistoryID)

	// Следующий слепой push снова упирается в тот же конфликт
	again, err := s.Push(context.Background(), testProject, "bob", api.PushRequest{
		Entries: []api.EntryChange{{Key: "greeting", Lang: "en", Value: strPtr("Hello")}},
	})
	require.NoError(t, err)
	assert.Len(t, again.Conflicts, 1)
}

func TestResolve_StaleWhenServerMovedOn(t *testing.T) {
	s, _ := newTestService(t)
	conflict := setupConflict(t, s)

	// Сервер уходит вперед между обнаружением и разрешением
	moved, err := s.Push(context.Background(), testProject, "carol", api.PushRequest{
		Entries: []api.EntryChange{{
			Key: "greeting", Lang: "en",
			Value:    strPtr("Howdy"),
			BaseHash: &conflict.RemoteHash,
		}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, moved.Applied)

	resp, err := s.Resolve(context.Background(), testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:      "entry",
			Key:        "greeting",
			Lang:       "en",
			Resolution: api.ResolutionLocal,
			RemoteHash: conflict.RemoteHash,
			LocalValue: conflict.LocalValue,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Applied)
	require.Len(t, resp.Stale, 1)
	assert.Equal(t, "Howdy", *resp.Stale[0].RemoteValue)

	// Устаревшее решение ничего не записало
	v := pullValue(t, s, "greeting", "en")
	require.NotNil(t, v)
	assert.Equal(t, "Howdy", *v)
}

func TestResolve_LocalDeletionTombstones(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{{Key: "greeting", Lang: "en", Value: strPtr("Hi")}},
	})
	require.NoError(t, err)
	oldHash := first.NewEntryHashes["greeting"]["en"]

	_, err = s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{{
			Key: "greeting", Lang: "en",
			Value:    strPtr("Hello"),
			BaseHash: &oldHash,
		}},
	})
	require.NoError(t, err)

	// Удаление поверх устаревшей базы упирается в конфликт deleted_local
	del, err := s.Push(ctx, testProject, "bob", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "greeting", Lang: "en", BaseHash: &oldHash}},
	})
	require.NoError(t, err)
	require.Len(t, del.Conflicts, 1)
	require.Equal(t, "deleted_local", del.Conflicts[0].Type)

	resp, err := s.Resolve(ctx, testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:        "entry",
			Key:          "greeting",
			Lang:         "en",
			Resolution:   api.ResolutionLocal,
			RemoteHash:   del.Conflicts[0].RemoteHash,
			LocalDeleted: true,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Applied)
	assert.Empty(t, resp.Stale)
	assert.NotEmpty(t, resp.HistoryID)
	// Надгробию нечего перебазировать
	assert.NotContains(t, resp.NewHashes, "greeting")

	// Ключ удален целиком, а не воскрес пустой записью
	pull, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	assert.Empty(t, pull.Entries)
	assert.Equal(t, []string{"greeting"}, pull.DeletedKeys)
}

func TestResolve_ConfigLocal(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Config: api.ConfigPush{Changes: []api.ConfigChange{
			{Path: "defaultLanguage", ValueType: "string", Value: "de"},
		}},
	})
	require.NoError(t, err)

	second, err := s.Push(ctx, testProject, "bob", api.PushRequest{
		Config: api.ConfigPush{Changes: []api.ConfigChange{
			{Path: "defaultLanguage", ValueType: "string", Value: "fr"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, second.Conflicts, 1)

	resp, err := s.Resolve(ctx, testProject, "bob", api.ResolveRequest{
		Resolutions: []api.ResolutionItem{{
			Scope:      "config",
			Key:        "defaultLanguage",
			Resolution: api.ResolutionLocal,
			RemoteHash: second.Conflicts[0].RemoteHash,
			LocalValue: strPtr("fr"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Applied)
	assert.NotEqual(t, first.NewConfigHashes["defaultLanguage"], resp.NewConfigHashes["defaultLanguage"])

	pull, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fr", pull.DefaultLanguage)
}

func TestResolve_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		item api.ResolutionItem
	}{
		{
			name: "unknown resolution",
			item: api.ResolutionItem{Scope: "entry", Key: "k", Lang: "en", Resolution: "merge"},
		},
		{
			name: "unknown scope",
			item: api.ResolutionItem{Scope: "folder", Key: "k", Resolution: api.ResolutionLocal},
		},
		{
			name: "bad key",
			item: api.ResolutionItem{Scope: "entry", Key: "no spaces", Lang: "en", Resolution: api.ResolutionLocal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Resolve(ctx, testProject, "bob", api.ResolveRequest{
				Resolutions: []api.ResolutionItem{tt.item},
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}
