package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
	"github.com/loclate/loclate/internal/validation"
	"github.com/loclate/loclate/pkg/api"
)

const (
	defaultPageSize = 500
	maxPageSize     = 5000
)

// PullOptions параметры pull-запроса.
// Since == nil — полный снимок со всеми удаленными ключами; иначе
// инкрементальный: только ключи, затронутые после Since, и надгробия
// ключей, удаленных после Since.
type PullOptions struct {
	Since    *time.Time
	Page     int
	PageSize int
}

// Pull отдает полное или инкрементальное состояние проекта.
// Запрос выполняется в одной read-транзакции: границы страниц
// стабильны относительно конкурентных записей.
func (s *Service) Pull(ctx context.Context, projectID string, opts PullOptions) (*api.PullResponse, error) {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return nil, validationErrorf("%v", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	resp := &api.PullResponse{
		Page:          page,
		PageSize:      pageSize,
		IsIncremental: opts.Since != nil,
	}

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		resp.SyncTimestamp = s.now()

		props, err := tx.ListConfig(ctx, projectID)
		if err != nil {
			return err
		}

		resp.DefaultLanguage = s.defaultLanguage
		minStatus := models.StatusPending
		resp.Config.Properties = make(map[string]api.ConfigPropertyState, len(props))
		for _, p := range props {
			resp.Config.Properties[p.Path] = api.ConfigPropertyState{
				ValueType: string(p.ValueType),
				Value:     p.Value,
				Hash:      p.Hash,
			}
			switch p.Path {
			case models.ConfigPathDefaultLanguage:
				resp.DefaultLanguage = p.Value
			case models.ConfigPathMinSyncStatus:
				if st := models.TranslationStatus(p.Value); st.Valid() {
					minStatus = st
				}
			}
		}

		total, err := tx.CountChangedKeys(ctx, projectID, opts.Since)
		if err != nil {
			return err
		}
		resp.Total = total
		resp.HasMore = page*pageSize < total

		keys, err := tx.ListChangedKeys(ctx, projectID, opts.Since, pageSize, (page-1)*pageSize)
		if err != nil {
			return err
		}

		entries, err := tx.ListEntriesByKeys(ctx, projectID, keys)
		if err != nil {
			return err
		}

		resp.Entries, resp.ExcludedTranslationCount = s.groupEntries(keys, entries, resp.DefaultLanguage, minStatus)
		if resp.ExcludedTranslationCount > 0 {
			resp.WorkflowMessage = fmt.Sprintf(
				"%d translations below status %q were withheld by the workflow gate",
				resp.ExcludedTranslationCount, minStatus)
		}

		// Полный pull перечисляет все удаленные ключи: только так
		// клиент может убрать то, чего на сервере давно нет
		deletedKeys, err := tx.ListDeletedKeys(ctx, projectID, opts.Since)
		if err != nil {
			return err
		}
		resp.DeletedKeys = deletedKeys

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pull served",
		"project_id", projectID,
		"incremental", resp.IsIncremental,
		"keys", len(resp.Entries),
		"deleted_keys", len(resp.DeletedKeys),
		"total", resp.Total,
		"excluded", resp.ExcludedTranslationCount)

	return resp, nil
}

// groupEntries собирает плоский список записей в ключи с переводами,
// применяя workflow gate. Надгробия отдельных языков попадают в
// DeletedLangs, а не в Translations. Ключ, у которого gate
// отфильтровал все переводы, в ответ не попадает, но его переводы
// учтены в excluded.
func (s *Service) groupEntries(keys []string, entries []*models.Entry, defaultLanguage string, minStatus models.TranslationStatus) ([]api.EntryState, int) {
	byKey := make(map[string][]*models.Entry, len(keys))
	for _, e := range entries {
		byKey[e.Key] = append(byKey[e.Key], e)
	}

	states := make([]api.EntryState, 0, len(keys))
	excluded := 0

	for _, key := range keys {
		keyEntries := byKey[key]
		if len(keyEntries) == 0 {
			continue
		}

		state := api.EntryState{
			Key:          key,
			Translations: make(map[string]api.TranslationState, len(keyEntries)),
		}

		for _, e := range keyEntries {
			if e.Deleted {
				state.DeletedLangs = append(state.DeletedLangs, e.Lang)
				continue
			}
			if e.IsPlural {
				state.IsPlural = true
				if e.SourcePluralText != "" {
					state.SourcePluralText = e.SourcePluralText
				}
			}
			// Комментарий ключа берется из перевода языка по умолчанию
			if e.Lang == defaultLanguage {
				state.Comment = e.Comment
			}

			if !e.Status.AtLeast(minStatus) {
				excluded++
				continue
			}

			state.Translations[e.Lang] = api.TranslationState{
				Value:       copyStrPtr(e.Value),
				Comment:     e.Comment,
				Hash:        e.Hash,
				Status:      string(e.Status),
				UpdatedAt:   e.UpdatedAt,
				UpdatedBy:   e.UpdatedBy,
				PluralForms: e.PluralForms,
			}
		}

		if len(state.Translations) == 0 {
			continue
		}
		states = append(states, state)
	}

	return states, excluded
}
