package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
	"github.com/loclate/loclate/internal/validation"
	"github.com/loclate/loclate/pkg/api"
)

const defaultHistoryPageSize = 50

// ListHistory возвращает постраничный список записей истории,
// новые первыми.
func (s *Service) ListHistory(ctx context.Context, projectID string, page, pageSize int) (*api.HistoryListResponse, error) {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return nil, validationErrorf("%v", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}

	summaries, total, err := s.store.ListHistory(ctx, projectID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	resp := &api.HistoryListResponse{
		Items:    make([]api.HistoryItem, 0, len(summaries)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  page*pageSize < total,
	}
	for _, sum := range summaries {
		resp.Items = append(resp.Items, historyItem(&sum.Entry, sum.Added, sum.Modified, sum.Deleted))
	}

	return resp, nil
}

// GetHistoryDetail возвращает запись истории с полным списком изменений.
func (s *Service) GetHistoryDetail(ctx context.Context, projectID, id string) (*api.HistoryDetailResponse, error) {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return nil, validationErrorf("%v", err)
	}

	entry, err := s.store.GetHistory(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, storage.ErrHistoryNotFound) {
			return nil, fmt.Errorf("%w: history entry %q", ErrNotFound, id)
		}
		return nil, err
	}

	added, modified, deleted := entry.Counts()
	resp := &api.HistoryDetailResponse{
		HistoryItem: historyItem(entry, added, modified, deleted),
		Changes:     make([]api.ChangeRecord, 0, len(entry.Changes)),
	}
	for _, c := range entry.Changes {
		resp.Changes = append(resp.Changes, api.ChangeRecord{
			Scope:         string(c.Scope),
			Key:           c.Key,
			Lang:          c.Lang,
			ChangeType:    string(c.Type),
			BeforeValue:   c.BeforeValue,
			AfterValue:    c.AfterValue,
			BeforeComment: c.BeforeComment,
			AfterComment:  c.AfterComment,
		})
	}

	return resp, nil
}

// Revert восстанавливает проект к состоянию, записанному в целевой
// записи истории: для каждого ее изменения берется afterValue/afterComment
// и применяется как обычный push с текущим серверным хешем в роли базы.
// Откат сам подчиняется обычной проверке конфликтов: все, что изменилось
// после выбранной точки чужими руками, всплывает как конфликт.
//
// Исходная запись помечается статусом reverted, но ее содержимое
// не меняется; поверх добавляется новая запись типа revert со ссылкой
// на исходную.
func (s *Service) Revert(ctx context.Context, projectID, actor, historyID string, req api.RevertRequest) (*api.RevertResponse, error) {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return nil, validationErrorf("%v", err)
	}

	resp := &api.RevertResponse{}
	result := newApplyResult()

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		target, err := tx.GetHistory(ctx, projectID, historyID)
		if err != nil {
			if errors.Is(err, storage.ErrHistoryNotFound) {
				return fmt.Errorf("%w: history entry %q", ErrNotFound, historyID)
			}
			return err
		}

		now := s.now()

		for _, c := range target.Changes {
			if c.Scope == models.ScopeConfig {
				if err := s.revertConfigChange(ctx, tx, now, projectID, actor, c, result); err != nil {
					return err
				}
				continue
			}
			if err := s.revertEntryChange(ctx, tx, now, projectID, actor, c, result); err != nil {
				return err
			}
		}

		if len(result.changes) == 0 {
			return nil
		}

		source := req.Source
		if source == "" {
			source = "revert"
		}
		message := req.Message
		if message == "" {
			message = fmt.Sprintf("revert to %s", historyID)
		}

		id, err := s.appendHistory(ctx, tx, now, projectID, actor, models.OperationRevert,
			source, message, historyID, result.changes)
		if err != nil {
			return err
		}

		if err := tx.MarkHistoryReverted(ctx, projectID, historyID); err != nil {
			return err
		}

		newEntry, err := tx.GetHistory(ctx, projectID, id)
		if err != nil {
			return err
		}
		added, modified, deleted := newEntry.Counts()
		resp.History = historyItem(newEntry, added, modified, deleted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.EntriesRestored = result.applied + result.deleted
	resp.Success = len(result.conflicts) == 0
	for _, c := range result.conflicts {
		resp.Conflicts = append(resp.Conflicts, api.ConflictFromModel(c))
	}

	s.logger.Info("revert applied",
		"project_id", projectID,
		"actor", actor,
		"target", historyID,
		"restored", resp.EntriesRestored,
		"conflicts", len(resp.Conflicts))

	return resp, nil
}

// revertEntryChange строит намерение из одного изменения целевой записи
// и проводит его через обычный compare-and-swap применителя.
// База — текущий живой серверный хеш; tombstone и отсутствие строки
// дают базу nil, то есть воссоздание записи.
func (s *Service) revertEntryChange(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, c models.Change, result *applyResult) error {
	current, err := tx.GetEntry(ctx, projectID, c.Key, c.Lang)
	if err != nil && !errors.Is(err, storage.ErrEntryNotFound) {
		return err
	}

	var baseHash *string
	if current != nil && !current.Deleted {
		h := current.Hash
		baseHash = &h
	}

	if c.Type == models.ChangeDeleted {
		// Состояние "после" — удаление: восстанавливаем tombstone
		if current == nil || current.Deleted {
			return nil // уже удалено
		}
		return s.applyEntryDeletion(ctx, tx, now, projectID, actor, api.EntryDeletion{
			Key:      c.Key,
			Lang:     c.Lang,
			BaseHash: baseHash,
		}, result)
	}

	ch := api.EntryChange{
		Key:      c.Key,
		Lang:     c.Lang,
		Value:    copyStrPtr(c.AfterValue),
		Comment:  c.AfterComment,
		BaseHash: baseHash,
	}
	// Плюральные формы в журнале не фиксируются; сохраняем текущие
	if current != nil && !current.Deleted {
		ch.IsPlural = current.IsPlural
		ch.PluralForms = current.PluralForms
		ch.SourcePluralText = current.SourcePluralText

		// Состояние уже совпадает с целевым — ничего не делаем
		if current.Hash == fingerprint.Entry(ch.Value, ch.Comment, ch.PluralForms) {
			return nil
		}
	}

	return s.applyEntryChange(ctx, tx, now, projectID, actor, ch, result)
}

// revertConfigChange то же для свойства конфигурации.
func (s *Service) revertConfigChange(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, c models.Change, result *applyResult) error {
	current, err := tx.GetConfig(ctx, projectID, c.Key)
	if err != nil && !errors.Is(err, storage.ErrConfigNotFound) {
		return err
	}

	var baseHash *string
	if current != nil && !current.Deleted {
		h := current.Hash
		baseHash = &h
	}

	if c.Type == models.ChangeDeleted {
		if current == nil || current.Deleted {
			return nil
		}
		return s.applyConfigDeletion(ctx, tx, now, projectID, actor, api.ConfigDeletion{
			Path:     c.Key,
			BaseHash: baseHash,
		}, result)
	}

	if c.AfterValue == nil {
		return nil
	}

	valueType := models.ConfigString
	if current != nil {
		valueType = current.ValueType
	}

	if current != nil && !current.Deleted &&
		current.Hash == fingerprint.Config(string(valueType), *c.AfterValue) {
		return nil
	}

	return s.applyConfigChange(ctx, tx, now, projectID, actor, api.ConfigChange{
		Path:      c.Key,
		ValueType: string(valueType),
		Value:     *c.AfterValue,
		BaseHash:  baseHash,
	}, result)
}

// historyItem строит wire-сводку записи истории.
func historyItem(h *models.HistoryEntry, added, modified, deleted int) api.HistoryItem {
	return api.HistoryItem{
		HistoryID:       h.ID,
		OperationType:   string(h.Operation),
		Source:          h.Source,
		Message:         h.Message,
		Status:          string(h.Status),
		RevertOf:        h.RevertOf,
		CreatedAt:       h.CreatedAt,
		CreatedBy:       h.CreatedBy,
		EntriesAdded:    added,
		EntriesModified: modified,
		EntriesDeleted:  deleted,
	}
}
