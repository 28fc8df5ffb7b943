package sync

import (
	"context"
	"errors"
	"time"

	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
	"github.com/loclate/loclate/internal/validation"
	"github.com/loclate/loclate/pkg/api"
)

// Resolve применяет пакет человеческих решений по ранее обнаруженным
// конфликтам. Само разрешение подчиняется той же оптимистической
// проверке: если серверный хеш успел уехать с момента обнаружения
// конфликта, решение не применяется и возвращается как stale —
// никогда не применяется молча.
//
// Applied считает разрешенные элементы (local, edit и remote);
// skip и stale не в счет. Remote не пишет на сервер: клиенту
// возвращается текущий хеш, чтобы он перебазировал свою базу.
func (s *Service) Resolve(ctx context.Context, projectID, actor string, req api.ResolveRequest) (*api.ResolveResponse, error) {
	if err := validateResolve(projectID, req); err != nil {
		return nil, err
	}

	resp := &api.ResolveResponse{
		NewHashes:       make(map[string]map[string]string),
		NewConfigHashes: make(map[string]string),
	}
	var changes []models.Change

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		now := s.now()

		for _, item := range req.Resolutions {
			if item.Resolution == api.ResolutionSkip {
				continue // конфликт остается и всплывет при следующем push
			}

			var err error
			if item.Scope == string(models.ScopeConfig) {
				err = s.resolveConfigItem(ctx, tx, now, projectID, actor, item, resp, &changes)
			} else {
				err = s.resolveEntryItem(ctx, tx, now, projectID, actor, item, resp, &changes)
			}
			if err != nil {
				return err
			}
		}

		if len(changes) == 0 {
			return nil
		}

		source := req.Source
		if source == "" {
			source = "resolve"
		}
		id, err := s.appendHistory(ctx, tx, now, projectID, actor, models.OperationPush,
			source, req.Message, "", changes)
		if err != nil {
			return err
		}
		resp.HistoryID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("conflicts resolved",
		"project_id", projectID,
		"actor", actor,
		"applied", resp.Applied,
		"stale", len(resp.Stale),
		"history_id", resp.HistoryID)

	return resp, nil
}

// resolveEntryItem применяет одно решение по конфликту перевода.
func (s *Service) resolveEntryItem(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, item api.ResolutionItem, resp *api.ResolveResponse, changes *[]models.Change) error {
	existing, err := tx.GetEntry(ctx, projectID, item.Key, item.Lang)
	if err != nil && !errors.Is(err, storage.ErrEntryNotFound) {
		return err
	}

	// Повторная оптимистическая проверка: состояние не должно было
	// уехать с момента обнаружения конфликта
	currentHash := ""
	if existing != nil {
		currentHash = existing.Hash
	}
	if currentHash != item.RemoteHash {
		resp.Stale = append(resp.Stale, api.ConflictFromModel(
			entryConflict(models.ConflictBothModified, item.Key, item.Lang, item.LocalValue, existing)))
		return nil
	}

	switch item.Resolution {
	case api.ResolutionRemote:
		// Серверное значение не трогаем; клиент перебазируется на него
		if existing != nil {
			resp.NewHashes = recordHash(resp.NewHashes, item.Key, item.Lang, existing.Hash)
		}
		resp.Applied++
		return nil

	case api.ResolutionLocal, api.ResolutionEdit:
		if item.Resolution == api.ResolutionLocal && item.LocalDeleted {
			// Локальная сторона конфликта deleted_local — удаление:
			// подтверждаем его надгробием, а не живой записью
			if existing == nil || existing.Deleted {
				resp.Applied++
				return nil
			}
			tombstone := existing.Clone()
			tombstone.Deleted = true
			tombstone.Version = existing.Version + 1
			tombstone.UpdatedAt = now
			tombstone.UpdatedBy = actor
			if err := tx.UpsertEntry(ctx, tombstone); err != nil {
				return err
			}
			resp.Applied++
			*changes = append(*changes, models.Change{
				Scope:         models.ScopeEntry,
				Key:           item.Key,
				Lang:          item.Lang,
				Type:          models.ChangeDeleted,
				BeforeValue:   copyStrPtr(existing.Value),
				BeforeComment: existing.Comment,
			})
			return nil
		}

		value := item.LocalValue
		if item.Resolution == api.ResolutionEdit {
			value = item.EditedValue
		}

		entry := &models.Entry{
			ProjectID:   projectID,
			Key:         item.Key,
			Lang:        item.Lang,
			Value:       copyStrPtr(value),
			Comment:     item.LocalComment,
			PluralForms: item.LocalPluralForms,
			Status:      models.StatusTranslated,
			Hash:        fingerprint.Entry(value, item.LocalComment, item.LocalPluralForms),
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
			UpdatedBy:   actor,
		}
		if value == nil {
			entry.Status = models.StatusPending
		}

		change := models.Change{
			Scope:        models.ScopeEntry,
			Key:          item.Key,
			Lang:         item.Lang,
			Type:         models.ChangeAdded,
			AfterValue:   copyStrPtr(value),
			AfterComment: item.LocalComment,
		}
		if existing != nil {
			entry.CreatedAt = existing.CreatedAt
			entry.Version = existing.Version + 1
			entry.IsPlural = existing.IsPlural
			entry.SourcePluralText = existing.SourcePluralText
			if !existing.Deleted {
				change.Type = models.ChangeModified
				change.BeforeValue = copyStrPtr(existing.Value)
				change.BeforeComment = existing.Comment
			}
		}

		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return err
		}
		resp.NewHashes = recordHash(resp.NewHashes, item.Key, item.Lang, entry.Hash)
		resp.Applied++
		*changes = append(*changes, change)
		return nil
	}

	return nil
}

// resolveConfigItem применяет одно решение по конфликту конфигурации.
func (s *Service) resolveConfigItem(ctx context.Context, tx storage.Store, now time.Time, projectID, actor string, item api.ResolutionItem, resp *api.ResolveResponse, changes *[]models.Change) error {
	existing, err := tx.GetConfig(ctx, projectID, item.Key)
	if err != nil && !errors.Is(err, storage.ErrConfigNotFound) {
		return err
	}

	currentHash := ""
	if existing != nil {
		currentHash = existing.Hash
	}
	if currentHash != item.RemoteHash {
		resp.Stale = append(resp.Stale, api.ConflictFromModel(
			configConflict(models.ConflictBothModified, item.Key, item.LocalValue, existing)))
		return nil
	}

	switch item.Resolution {
	case api.ResolutionRemote:
		if existing != nil {
			resp.NewConfigHashes[item.Key] = existing.Hash
		}
		resp.Applied++
		return nil

	case api.ResolutionLocal, api.ResolutionEdit:
		value := item.LocalValue
		if item.Resolution == api.ResolutionEdit {
			value = item.EditedValue
		}
		if value == nil {
			return validationErrorf("config resolution %q: value is required", item.Key)
		}

		valueType := models.ConfigValueType(item.ConfigValueType)
		if item.ConfigValueType == "" {
			valueType = models.ConfigString
			if existing != nil {
				valueType = existing.ValueType
			}
		}

		prop := &models.ConfigProperty{
			ProjectID: projectID,
			Path:      item.Key,
			ValueType: valueType,
			Value:     *value,
			Hash:      fingerprint.Config(string(valueType), *value),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
			UpdatedBy: actor,
		}

		change := models.Change{
			Scope:      models.ScopeConfig,
			Key:        item.Key,
			Type:       models.ChangeAdded,
			AfterValue: copyStrPtr(value),
		}
		if existing != nil {
			prop.CreatedAt = existing.CreatedAt
			prop.Version = existing.Version + 1
			if !existing.Deleted {
				change.Type = models.ChangeModified
				change.BeforeValue = &existing.Value
			}
		}

		if err := tx.UpsertConfig(ctx, prop); err != nil {
			return err
		}
		resp.NewConfigHashes[item.Key] = prop.Hash
		resp.Applied++
		*changes = append(*changes, change)
		return nil
	}

	return nil
}

func recordHash(m map[string]map[string]string, key, lang, hash string) map[string]map[string]string {
	if m == nil {
		m = make(map[string]map[string]string)
	}
	if m[key] == nil {
		m[key] = make(map[string]string)
	}
	m[key][lang] = hash
	return m
}

func validateResolve(projectID string, req api.ResolveRequest) error {
	if err := validation.ValidateProjectID(projectID); err != nil {
		return validationErrorf("%v", err)
	}

	for i, item := range req.Resolutions {
		if !api.ValidResolution(item.Resolution) {
			return validationErrorf("resolution %d: unknown resolution %q", i, item.Resolution)
		}
		switch item.Scope {
		case string(models.ScopeEntry):
			if err := validation.ValidateKey(item.Key); err != nil {
				return validationErrorf("resolution %d: %v", i, err)
			}
			if err := validation.ValidateLanguage(item.Lang); err != nil {
				return validationErrorf("resolution %d: %v", i, err)
			}
		case string(models.ScopeConfig):
			if err := validation.ValidateConfigPath(item.Key); err != nil {
				return validationErrorf("resolution %d: %v", i, err)
			}
			if item.ConfigValueType != "" && !models.ConfigValueType(item.ConfigValueType).Valid() {
				return validationErrorf("resolution %d: unknown value type %q", i, item.ConfigValueType)
			}
		default:
			return validationErrorf("resolution %d: unknown scope %q", i, item.Scope)
		}
	}

	return nil
}
