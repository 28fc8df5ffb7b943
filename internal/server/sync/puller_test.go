package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclate/loclate/pkg/api"
)

func TestPull_FullSnapshot(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "greeting", Lang: "en", Value: strPtr("Hello"), Comment: "shown on login"},
			{Key: "greeting", Lang: "de", Value: strPtr("Hallo")},
			{Key: "farewell", Lang: "en", Value: strPtr("Bye")},
		},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)

	assert.False(t, resp.IsIncremental)
	assert.Equal(t, 2, resp.Total)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.DeletedKeys)
	require.Len(t, resp.Entries, 2)

	// Ключи отсортированы
	assert.Equal(t, "farewell", resp.Entries[0].Key)
	assert.Equal(t, "greeting", resp.Entries[1].Key)

	greeting := resp.Entries[1]
	require.Len(t, greeting.Translations, 2)
	assert.Equal(t, "Hello", *greeting.Translations["en"].Value)
	assert.Equal(t, "Hallo", *greeting.Translations["de"].Value)
	// Комментарий ключа приходит из перевода языка по умолчанию
	assert.Equal(t, "shown on login", greeting.Comment)
	assert.Equal(t, "alice", greeting.Translations["en"].UpdatedBy)
	assert.NotEmpty(t, greeting.Translations["en"].Hash)
}

func TestPull_UntranslatedValueIsNil(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{{Key: "todo", Lang: "fr"}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)

	tr := resp.Entries[0].Translations["fr"]
	assert.Nil(t, tr.Value)
	assert.Equal(t, "pending", tr.Status)
}

func TestPull_PluralEntry(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{{
			Key:              "cart.items",
			Lang:             "en",
			IsPlural:         true,
			SourcePluralText: "{count} items",
			PluralForms:      map[string]string{"one": "1 item", "other": "{count} items"},
		}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)

	state := resp.Entries[0]
	assert.True(t, state.IsPlural)
	assert.Equal(t, "{count} items", state.SourcePluralText)
	assert.Equal(t, "1 item", state.Translations["en"].PluralForms["one"])
}

func TestPull_ConfigOverridesDefaultLanguage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	assert.Equal(t, "en", resp.DefaultLanguage)

	_, err = s.Push(ctx, testProject, "alice", api.PushRequest{
		Config: api.ConfigPush{Changes: []api.ConfigChange{
			{Path: "defaultLanguage", ValueType: "string", Value: "de"},
		}},
	})
	require.NoError(t, err)

	resp, err = s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)
	assert.Equal(t, "de", resp.DefaultLanguage)
	require.Contains(t, resp.Config.Properties, "defaultLanguage")
	assert.Equal(t, "de", resp.Config.Properties["defaultLanguage"].Value)
}

func TestPull_WorkflowGate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "ready", Lang: "en", Value: strPtr("ok"), Status: "approved"},
			{Key: "ready", Lang: "de", Value: strPtr("gut"), Status: "translated"},
			{Key: "draft", Lang: "en", Value: strPtr("wip"), Status: "pending"},
		},
		Config: api.ConfigPush{Changes: []api.ConfigChange{
			{Path: "workflow.minSyncStatus", ValueType: "string", Value: "reviewed"},
		}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)

	// Ниже порога: de-перевод ready и весь ключ draft
	assert.Equal(t, 2, resp.ExcludedTranslationCount)
	assert.Contains(t, resp.WorkflowMessage, "2 translations")
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "ready", resp.Entries[0].Key)
	assert.Contains(t, resp.Entries[0].Translations, "en")
	assert.NotContains(t, resp.Entries[0].Translations, "de")
}

func TestPull_Pagination(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	changes := []api.EntryChange{
		{Key: "a", Lang: "en", Value: strPtr("1")},
		{Key: "b", Lang: "en", Value: strPtr("2")},
		{Key: "c", Lang: "en", Value: strPtr("3")},
		{Key: "d", Lang: "en", Value: strPtr("4")},
		{Key: "e", Lang: "en", Value: strPtr("5")},
	}
	_, err := s.Push(ctx, testProject, "alice", api.PushRequest{Entries: changes})
	require.NoError(t, err)

	var got []string
	for page := 1; ; page++ {
		resp, err := s.Pull(ctx, testProject, PullOptions{Page: page, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.Total)
		for _, e := range resp.Entries {
			got = append(got, e.Key)
		}
		if !resp.HasMore {
			break
		}
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestPull_Incremental(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	// Управляемые часы: каждое действие происходит в своей точке времени
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	created, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "stale", Lang: "en", Value: strPtr("old")},
			{Key: "doomed", Lang: "en", Value: strPtr("bye")},
		},
	})
	require.NoError(t, err)

	since := clock
	clock = clock.Add(time.Minute)

	base := created.NewEntryHashes["stale"]["en"]
	doomedBase := created.NewEntryHashes["doomed"]["en"]
	_, err = s.Push(ctx, testProject, "bob", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "stale", Lang: "en", Value: strPtr("new"), BaseHash: &base},
			{Key: "fresh", Lang: "en", Value: strPtr("hi")},
		},
		Deletions: []api.EntryDeletion{{Key: "doomed", Lang: "en", BaseHash: &doomedBase}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{Since: &since})
	require.NoError(t, err)

	assert.True(t, resp.IsIncremental)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "fresh", resp.Entries[0].Key)
	assert.Equal(t, "stale", resp.Entries[1].Key)
	assert.Equal(t, "new", *resp.Entries[1].Translations["en"].Value)
	assert.Equal(t, []string{"doomed"}, resp.DeletedKeys)

	// Ничего не изменилось после второго push
	later := clock
	resp, err = s.Pull(ctx, testProject, PullOptions{Since: &later})
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)
	assert.Empty(t, resp.DeletedKeys)
	assert.Equal(t, 0, resp.Total)
}

func TestPull_LangTombstoneVisibleIncrementally(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	created, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "greeting", Lang: "en", Value: strPtr("Hello")},
			{Key: "greeting", Lang: "de", Value: strPtr("Hallo")},
		},
	})
	require.NoError(t, err)

	since := clock
	clock = clock.Add(time.Minute)

	// Удален только один язык: ключ остается живым
	deBase := created.NewEntryHashes["greeting"]["de"]
	_, err = s.Push(ctx, testProject, "bob", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "greeting", Lang: "de", BaseHash: &deBase}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{Since: &since})
	require.NoError(t, err)

	// Ключ попадает в окно, пропавший язык назван явно
	assert.Empty(t, resp.DeletedKeys)
	require.Len(t, resp.Entries, 1)
	state := resp.Entries[0]
	assert.Equal(t, "greeting", state.Key)
	assert.Contains(t, state.Translations, "en")
	assert.NotContains(t, state.Translations, "de")
	assert.Equal(t, []string{"de"}, state.DeletedLangs)
}

func TestPull_FullSnapshotListsDeletedKeys(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Push(ctx, testProject, "alice", api.PushRequest{
		Entries: []api.EntryChange{
			{Key: "keep", Lang: "en", Value: strPtr("stay")},
			{Key: "gone", Lang: "en", Value: strPtr("bye")},
		},
	})
	require.NoError(t, err)

	goneBase := created.NewEntryHashes["gone"]["en"]
	_, err = s.Push(ctx, testProject, "bob", api.PushRequest{
		Deletions: []api.EntryDeletion{{Key: "gone", Lang: "en", BaseHash: &goneBase}},
	})
	require.NoError(t, err)

	resp, err := s.Pull(ctx, testProject, PullOptions{})
	require.NoError(t, err)

	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "keep", resp.Entries[0].Key)
	assert.Equal(t, []string{"gone"}, resp.DeletedKeys)
}

func TestPull_InvalidProject(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Pull(context.Background(), "no spaces allowed", PullOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}
