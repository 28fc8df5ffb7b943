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

// applyResult накапливает результат применения пакета намерений.
// Конфликты собираются по всему пакету: применение никогда не
// прерывается на первом конфликте.
type applyResult struct {
	newEntryHashes  map[string]map[string]string
	newConfigHashes map[string]string
	conflicts       []models.Conflict
	changes         []models.Change
	applied         int
	deleted         int
	configConflicts int
}

func newApplyResult() *applyResult {
	return &applyResult{
		newEntryHashes:  make(map[string]map[string]string),
		newConfigHashes: make(map[string]string),
	}
}

func (r *applyResult) recordEntryHash(key, lang, hash string) {
	if r.newEntryHashes[key] == nil {
		r.newEntryHashes[key] = make(map[string]string)
	}
	r.newEntryHashes[key][lang] = hash
}

// Push применяет пакет изменений клиента в одной транзакции.
// Каждое намерение проверяется compare-and-swap по хешу содержимого:
// принятая часть пакета фиксируется даже при конфликтах остальной,
// и ровно одна запись истории описывает принятые изменения.
func (s *Service) Push(ctx context.Context, projectID, actor string, req api.PushRequest) (*api.PushResponse, error) {
	if err := validatePush(projectID, req); err != nil {
		return nil, err
	}

	result := newApplyResult()
	var historyID string

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		now := s.now()

		for _, ch := range req.Entries {
			if err := s.applyEntryChange(ctx, tx, now, projectID, actor, ch, result); err != nil {
				return err
			}
		}
		for _, del := range req.Deletions {
			if err := s.applyEntryDeletion(ctx, tx, now, projectID, actor, del, result); err != nil {
				return err
			}
		}
		for _, cc := range req.Config.Changes {
			if err := s.applyConfigChange(ctx, tx, now, projectID, actor, cc, result); err != nil {
				return err
			}
		}
		for _, cd := range req.Config.Deletions {
			if err := s.applyConfigDeletion(ctx, tx, now, projectID, actor, cd, result); err != nil {
				return err
			}
		}

		if len(result.changes) == 0 {
			return nil
		}

		id, err := s.appendHistory(ctx, tx, now, projectID, actor, models.OperationPush,
			req.Source, req.Message, "", result.changes)
		if err != nil {
			return err
		}
		historyID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("push applied",
		"project_id", projectID,
		"actor", actor,
		"applied", result.applied,
		"deleted", result.deleted,
		"conflicts", len(result.conflicts),
		"history_id", historyID)

	resp := &api.PushResponse{
		Applied:         result.applied,
		Deleted:         result.deleted,
		ConfigApplied:   result.configConflicts == 0,
		NewEntryHashes:  result.newEntryHashes,
		NewConfigHashes: result.newConfigHashes,
		HistoryID:       historyID,
	}
	for _, c := range result.conflicts {
		resp.Conflicts = append(resp.Conflicts, api.ConflictFromModel(c))
	}
	return resp, nil
}

// applyEntryChange применяет одно намерение изменить перевод.
// Правила compare-and-swap:
//   - базы нет и строки нет (или там tombstone) → создание;
//   - базы нет, а живая строка есть → BothModified (клиент ошибочно
//     считал ключ новым);
//   - база совпала с серверным хешем → запись, новый хеш и версия;
//   - база разошлась → BothModified без записи;
//   - изменение поверх серверного tombstone с базой → DeletedRemote.
func (s *Service) applyEntryChange(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, ch api.EntryChange, result *applyResult) error {
	existing, err := tx.GetEntry(ctx, projectID, ch.Key, ch.Lang)
	if err != nil && !errors.Is(err, storage.ErrEntryNotFound) {
		return fmt.Errorf("failed to check existing entry: %w", err)
	}

	switch {
	case ch.BaseHash == nil && (existing == nil || existing.Deleted):
		// Действительно новая запись (или возрождение удаленной)
		entry := s.entryFromChange(projectID, actor, now, ch)
		if existing != nil {
			entry.CreatedAt = existing.CreatedAt
			entry.Version = existing.Version + 1
		}
		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return err
		}
		result.applied++
		result.recordEntryHash(ch.Key, ch.Lang, entry.Hash)
		result.changes = append(result.changes, models.Change{
			Scope:        models.ScopeEntry,
			Key:          ch.Key,
			Lang:         ch.Lang,
			Type:         models.ChangeAdded,
			AfterValue:   copyStrPtr(ch.Value),
			AfterComment: ch.Comment,
		})

	case ch.BaseHash == nil:
		// Клиент считал ключ новым, но на сервере он уже есть
		result.conflicts = append(result.conflicts, entryConflict(models.ConflictBothModified, ch.Key, ch.Lang, ch.Value, existing))

	case existing == nil:
		// Клиент ссылается на базу, которой сервер никогда не видел
		result.conflicts = append(result.conflicts, models.Conflict{
			Scope:      models.ScopeEntry,
			Type:       models.ConflictDeletedRemote,
			Key:        ch.Key,
			Lang:       ch.Lang,
			LocalValue: copyStrPtr(ch.Value),
		})

	case existing.Deleted:
		result.conflicts = append(result.conflicts, entryConflict(models.ConflictDeletedRemote, ch.Key, ch.Lang, ch.Value, existing))

	case *ch.BaseHash == existing.Hash:
		// Неоспоренный случай: база совпала, применяем
		entry := s.entryFromChange(projectID, actor, now, ch)
		entry.CreatedAt = existing.CreatedAt
		entry.Version = existing.Version + 1
		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return err
		}
		result.applied++
		result.recordEntryHash(ch.Key, ch.Lang, entry.Hash)
		result.changes = append(result.changes, models.Change{
			Scope:         models.ScopeEntry,
			Key:           ch.Key,
			Lang:          ch.Lang,
			Type:          models.ChangeModified,
			BeforeValue:   copyStrPtr(existing.Value),
			AfterValue:    copyStrPtr(ch.Value),
			BeforeComment: existing.Comment,
			AfterComment:  ch.Comment,
		})

	default:
		result.conflicts = append(result.conflicts, entryConflict(models.ConflictBothModified, ch.Key, ch.Lang, ch.Value, existing))
	}

	return nil
}

// applyEntryDeletion применяет намерение удалить перевод или ключ целиком.
// Удаление уже отсутствующего — идемпотентный no-op, не конфликт.
func (s *Service) applyEntryDeletion(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, del api.EntryDeletion, result *applyResult) error {
	targets := []string{del.Lang}
	if del.Lang == "" {
		// Удаление ключа целиком разворачивается по его живым языкам
		entries, err := tx.GetKeyEntries(ctx, projectID, del.Key)
		if err != nil {
			return err
		}
		targets = targets[:0]
		for _, e := range entries {
			targets = append(targets, e.Lang)
		}
	}

	for _, lang := range targets {
		existing, err := tx.GetEntry(ctx, projectID, del.Key, lang)
		if err != nil {
			if errors.Is(err, storage.ErrEntryNotFound) {
				continue // идемпотентное удаление
			}
			return fmt.Errorf("failed to check existing entry: %w", err)
		}
		if existing.Deleted {
			continue
		}

		if del.BaseHash == nil || *del.BaseHash != existing.Hash {
			// Клиент удалил, сервер успел изменить
			result.conflicts = append(result.conflicts, entryConflict(models.ConflictDeletedLocal, del.Key, lang, nil, existing))
			continue
		}

		tombstone := existing.Clone()
		tombstone.Deleted = true
		tombstone.Version = existing.Version + 1
		tombstone.UpdatedAt = now
		tombstone.UpdatedBy = actor
		if err := tx.UpsertEntry(ctx, tombstone); err != nil {
			return err
		}
		result.deleted++
		result.changes = append(result.changes, models.Change{
			Scope:         models.ScopeEntry,
			Key:           del.Key,
			Lang:          lang,
			Type:          models.ChangeDeleted,
			BeforeValue:   copyStrPtr(existing.Value),
			BeforeComment: existing.Comment,
		})
	}

	return nil
}

// applyConfigChange применяет намерение изменить свойство конфигурации.
// Правила идентичны applyEntryChange, но в пространстве имен конфигурации.
func (s *Service) applyConfigChange(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, cc api.ConfigChange, result *applyResult) error {
	existing, err := tx.GetConfig(ctx, projectID, cc.Path)
	if err != nil && !errors.Is(err, storage.ErrConfigNotFound) {
		return fmt.Errorf("failed to check existing config property: %w", err)
	}

	newHash := fingerprint.Config(cc.ValueType, cc.Value)

	switch {
	case cc.BaseHash == nil && (existing == nil || existing.Deleted):
		prop := &models.ConfigProperty{
			ProjectID: projectID,
			Path:      cc.Path,
			ValueType: models.ConfigValueType(cc.ValueType),
			Value:     cc.Value,
			Hash:      newHash,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
			UpdatedBy: actor,
		}
		if existing != nil {
			prop.CreatedAt = existing.CreatedAt
			prop.Version = existing.Version + 1
		}
		if err := tx.UpsertConfig(ctx, prop); err != nil {
			return err
		}
		result.newConfigHashes[cc.Path] = newHash
		result.changes = append(result.changes, models.Change{
			Scope:      models.ScopeConfig,
			Key:        cc.Path,
			Type:       models.ChangeAdded,
			AfterValue: &cc.Value,
		})

	case cc.BaseHash == nil:
		result.configConflicts++
		result.conflicts = append(result.conflicts, configConflict(models.ConflictBothModified, cc.Path, &cc.Value, existing))

	case existing == nil:
		result.configConflicts++
		result.conflicts = append(result.conflicts, models.Conflict{
			Scope:      models.ScopeConfig,
			Type:       models.ConflictDeletedRemote,
			Key:        cc.Path,
			LocalValue: &cc.Value,
		})

	case existing.Deleted:
		result.configConflicts++
		result.conflicts = append(result.conflicts, configConflict(models.ConflictDeletedRemote, cc.Path, &cc.Value, existing))

	case *cc.BaseHash == existing.Hash:
		prop := &models.ConfigProperty{
			ProjectID: projectID,
			Path:      cc.Path,
			ValueType: models.ConfigValueType(cc.ValueType),
			Value:     cc.Value,
			Hash:      newHash,
			Version:   existing.Version + 1,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: now,
			UpdatedBy: actor,
		}
		if err := tx.UpsertConfig(ctx, prop); err != nil {
			return err
		}
		result.newConfigHashes[cc.Path] = newHash
		result.changes = append(result.changes, models.Change{
			Scope:       models.ScopeConfig,
			Key:         cc.Path,
			Type:        models.ChangeModified,
			BeforeValue: &existing.Value,
			AfterValue:  &cc.Value,
		})

	default:
		result.configConflicts++
		result.conflicts = append(result.conflicts, configConflict(models.ConflictBothModified, cc.Path, &cc.Value, existing))
	}

	return nil
}

// applyConfigDeletion применяет намерение удалить свойство конфигурации.
func (s *Service) applyConfigDeletion(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, cd api.ConfigDeletion, result *applyResult) error {
	existing, err := tx.GetConfig(ctx, projectID, cd.Path)
	if err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			return nil // идемпотентное удаление
		}
		return fmt.Errorf("failed to check existing config property: %w", err)
	}
	if existing.Deleted {
		return nil
	}

	if cd.BaseHash == nil || *cd.BaseHash != existing.Hash {
		result.configConflicts++
		result.conflicts = append(result.conflicts, configConflict(models.ConflictDeletedLocal, cd.Path, nil, existing))
		return nil
	}

	tombstone := *existing
	tombstone.Deleted = true
	tombstone.Version = existing.Version + 1
	tombstone.UpdatedAt = now
	tombstone.UpdatedBy = actor
	if err := tx.UpsertConfig(ctx, &tombstone); err != nil {
		return err
	}
	result.changes = append(result.changes, models.Change{
		Scope:       models.ScopeConfig,
		Key:         cd.Path,
		Type:        models.ChangeDeleted,
		BeforeValue: &existing.Value,
	})

	return nil
}

// entryFromChange строит новое состояние записи из намерения.
func (s *Service) entryFromChange(projectID, actor string, now time.Time, ch api.EntryChange) *models.Entry {
	status := models.TranslationStatus(ch.Status)
	if ch.Status == "" {
		if ch.Value == nil {
			status = models.StatusPending
		} else {
			status = models.StatusTranslated
		}
	}

	return &models.Entry{
		ProjectID:        projectID,
		Key:              ch.Key,
		Lang:             ch.Lang,
		Value:            copyStrPtr(ch.Value),
		Comment:          ch.Comment,
		IsPlural:         ch.IsPlural,
		PluralForms:      ch.PluralForms,
		SourcePluralText: ch.SourcePluralText,
		Status:           status,
		Hash:             fingerprint.Entry(ch.Value, ch.Comment, ch.PluralForms),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
		UpdatedBy:        actor,
	}
}

// appendHistory создает запись истории с коротким id, повторяя попытку
// при коллизии идентификатора.
func (s *Service) appendHistory(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, op models.HistoryOperation, source, message, revertOf string, changes []models.Change) (string, error) {
	if source == "" {
		source = "api"
	}

	for attempt := 0; attempt < 5; attempt++ {
		h := &models.HistoryEntry{
			ID:        s.newID(),
			ProjectID: projectID,
			Operation: op,
			Source:    source,
			Message:   message,
			Status:    models.HistoryCompleted,
			RevertOf:  revertOf,
			CreatedAt: now,
			CreatedBy: actor,
			Changes:   changes,
		}

		err := tx.AppendHistory(ctx, h)
		if err == nil {
			return h.ID, nil
		}
		if !errors.Is(err, storage.ErrHistoryExists) {
			return "", err
		}
	}

	return "", fmt.Errorf("failed to allocate unique history id")
}

// validatePush отвергает некорректный запрос до каких-либо записей.
func validatePush(projectID string, req api.PushRequest) error {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return validationErrorf("%v", err)
	}

	for _, ch := range req.Entries {
		if err := validation.ValidateKey(ch.Key); err != nil {
			return validationErrorf("entry %q: %v", ch.Key, err)
		}
		if err := validation.ValidateLanguage(ch.Lang); err != nil {
			return validationErrorf("entry %q: %v", ch.Key, err)
		}
		if ch.Status != "" && !models.TranslationStatus(ch.Status).Valid() {
			return validationErrorf("entry %q: unknown status %q", ch.Key, ch.Status)
		}
	}

	for _, del := range req.Deletions {
		if err := validation.ValidateKey(del.Key); err != nil {
			return validationErrorf("deletion %q: %v", del.Key, err)
		}
		if del.Lang != "" {
			if err := validation.ValidateLanguage(del.Lang); err != nil {
				return validationErrorf("deletion %q: %v", del.Key, err)
			}
		}
		if del.BaseHash == nil {
			return validationErrorf("deletion %q: base hash is required", del.Key)
		}
	}

	for _, cc := range req.Config.Changes {
		if err := validation.ValidateConfigPath(cc.Path); err != nil {
			return validationErrorf("config change %q: %v", cc.Path, err)
		}
		if !models.ConfigValueType(cc.ValueType).Valid() {
			return validationErrorf("config change %q: unknown value type %q", cc.Path, cc.ValueType)
		}
	}

	for _, cd := range req.Config.Deletions {
		if err := validation.ValidateConfigPath(cd.Path); err != nil {
			return validationErrorf("config deletion %q: %v", cd.Path, err)
		}
		if cd.BaseHash == nil {
			return validationErrorf("config deletion %q: base hash is required", cd.Path)
		}
	}

	return nil
}

func entryConflict(ct models.ConflictType, key, lang string, localValue *string, remote *models.Entry) models.Conflict {
	c := models.Conflict{
		Scope:      models.ScopeEntry,
		Type:       ct,
		Key:        key,
		Lang:       lang,
		LocalValue: copyStrPtr(localValue),
	}
	if remote != nil {
		if !remote.Deleted {
			c.RemoteValue = copyStrPtr(remote.Value)
		}
		c.RemoteHash = remote.Hash
		c.RemoteUpdatedAt = remote.UpdatedAt
		c.RemoteUpdatedBy = remote.UpdatedBy
	}
	return c
}

func configConflict(ct models.ConflictType, path string, localValue *string, remote *models.ConfigProperty) models.Conflict {
	c := models.Conflict{
		Scope:      models.ScopeConfig,
		Type:       ct,
		Key:        path,
		LocalValue: copyStrPtr(localValue),
	}
	if remote != nil {
		if !remote.Deleted {
			v := remote.Value
			c.RemoteValue = &v
		}
		c.RemoteHash = remote.Hash
		c.RemoteUpdatedAt = remote.UpdatedAt
		c.RemoteUpdatedBy = remote.UpdatedBy
	}
	return c
}

func copyStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
