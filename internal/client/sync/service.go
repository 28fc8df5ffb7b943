// Package sync координирует обмен рабочей копии с сервером:
// push плана изменений, pull серверного состояния и применение
// человеческих решений по конфликтам.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpclient "github.com/loclate/loclate/internal/client/api"
	"github.com/loclate/loclate/internal/client/planner"
	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/pkg/api"
)

// ClientAPI определяет серверные вызовы, нужные синхронизации.
type ClientAPI interface {
	Push(ctx context.Context, projectID string, req api.PushRequest) (*api.PushResponse, error)
	Pull(ctx context.Context, projectID string, params httpclient.PullParams) (*api.PullResponse, error)
	Resolve(ctx context.Context, projectID string, req api.ResolveRequest) (*api.ResolveResponse, error)
}

// Service handles synchronization between the working copy and the server.
type Service struct {
	client    ClientAPI
	workspace storage.Workspace
	planner   *planner.Planner
	logger    *slog.Logger
	projectID string
}

// NewService creates a new sync service for one project.
func NewService(client ClientAPI, workspace storage.Workspace, projectID string, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		workspace: workspace,
		planner:   planner.New(workspace, workspace, workspace),
		logger:    logger,
		projectID: projectID,
	}
}

// PushResult итоги push-а.
type PushResult struct {
	HistoryID string
	Planned   int
	Applied   int
	Deleted   int
	Conflicts []api.ConflictRecord
}

// Push собирает план изменений и отправляет его на сервер.
// Принятые изменения перебазируют локальные базовые линии; конфликты
// откладываются в хранилище до разрешения человеком.
func (s *Service) Push(ctx context.Context, message string) (*PushResult, error) {
	plan, err := s.planner.Plan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to plan push: %w", err)
	}

	result := &PushResult{Planned: plan.Total()}
	if plan.Empty() {
		s.logger.Info("nothing to push", "project_id", s.projectID)
		return result, nil
	}

	resp, err := s.client.Push(ctx, s.projectID, api.PushRequest{
		Message:   message,
		Source:    "cli",
		Entries:   plan.Entries,
		Deletions: plan.Deletions,
		Config:    plan.Config,
	})
	if err != nil {
		return nil, err
	}

	result.HistoryID = resp.HistoryID
	result.Applied = resp.Applied
	result.Deleted = resp.Deleted
	result.Conflicts = resp.Conflicts

	if err := s.rebase(ctx, plan, resp); err != nil {
		return nil, err
	}

	if err := s.workspace.SaveConflicts(ctx, resp.Conflicts); err != nil {
		return nil, fmt.Errorf("failed to store conflicts: %w", err)
	}

	s.logger.Info("push completed",
		"project_id", s.projectID,
		"planned", result.Planned,
		"applied", result.Applied,
		"deleted", result.Deleted,
		"conflicts", len(result.Conflicts),
		"history_id", result.HistoryID)

	return result, nil
}

// rebase обновляет базовые линии по принятым сервером изменениям.
func (s *Service) rebase(ctx context.Context, plan *planner.Plan, resp *api.PushResponse) error {
	for key, langs := range resp.NewEntryHashes {
		for lang, hash := range langs {
			if err := s.workspace.SaveBaseline(ctx, key, lang, hash); err != nil {
				return err
			}
		}
	}
	for path, hash := range resp.NewConfigHashes {
		if err := s.workspace.SaveConfigBaseline(ctx, path, hash); err != nil {
			return err
		}
	}

	// Удаления, не вернувшиеся конфликтом, сервер принял или уже не знал
	conflicted := make(map[string]bool, len(resp.Conflicts))
	for _, c := range resp.Conflicts {
		conflicted[c.Scope+"|"+c.Key+"|"+c.Lang] = true
	}
	for _, d := range plan.Deletions {
		if conflicted[string(models.ScopeEntry)+"|"+d.Key+"|"+d.Lang] {
			continue
		}
		if err := s.workspace.DeleteBaseline(ctx, d.Key, d.Lang); err != nil {
			return err
		}
	}
	for _, d := range plan.Config.Deletions {
		if conflicted[string(models.ScopeConfig)+"|"+d.Path+"|"] {
			continue
		}
		if err := s.workspace.DeleteConfigBaseline(ctx, d.Path); err != nil {
			return err
		}
	}

	return nil
}

// PullResult итоги pull-а.
type PullResult struct {
	Keys            int
	DeletedKeys     int
	ConfigProps     int
	KeptLocal       int
	Excluded        int
	WorkflowMessage string
	Incremental     bool
}

// Pull забирает состояние сервера и применяет его к рабочей копии.
// full == false использует метку последней синхронизации; локально
// измененные переводы не перезаписываются — расхождение всплывет
// конфликтом при следующем push. full == true приводит рабочую копию
// к серверному состоянию целиком.
func (s *Service) Pull(ctx context.Context, full bool) (*PullResult, error) {
	var since *time.Time
	if !full {
		last, err := s.workspace.GetLastSync(ctx)
		if err != nil {
			return nil, err
		}
		if !last.IsZero() {
			since = &last
		}
	}

	result := &PullResult{Incremental: since != nil}
	var syncTimestamp time.Time

	for page := 1; ; page++ {
		resp, err := s.client.Pull(ctx, s.projectID, httpclient.PullParams{
			Since: since,
			Page:  page,
		})
		if err != nil {
			return nil, err
		}
		syncTimestamp = resp.SyncTimestamp
		result.Excluded += resp.ExcludedTranslationCount
		if resp.WorkflowMessage != "" {
			result.WorkflowMessage = resp.WorkflowMessage
		}

		if page == 1 {
			if err := s.applyConfig(ctx, resp, full, result); err != nil {
				return nil, err
			}
			if err := s.applyDeletedKeys(ctx, resp.DeletedKeys, full, result); err != nil {
				return nil, err
			}
		}

		for _, state := range resp.Entries {
			if err := s.applyEntryState(ctx, state, full, result); err != nil {
				return nil, err
			}
		}
		result.Keys += len(resp.Entries)

		if !resp.HasMore {
			break
		}
	}

	if err := s.workspace.SaveLastSync(ctx, syncTimestamp); err != nil {
		return nil, fmt.Errorf("failed to save sync timestamp: %w", err)
	}

	s.logger.Info("pull completed",
		"project_id", s.projectID,
		"incremental", result.Incremental,
		"keys", result.Keys,
		"deleted_keys", result.DeletedKeys,
		"kept_local", result.KeptLocal,
		"excluded", result.Excluded)

	return result, nil
}

// applyEntryState применяет один серверный ключ к рабочей копии.
func (s *Service) applyEntryState(ctx context.Context, state api.EntryState, full bool, result *PullResult) error {
	for lang, tr := range state.Translations {
		modified, err := s.locallyModified(ctx, state.Key, lang)
		if err != nil {
			return err
		}
		if modified && !full {
			result.KeptLocal++
			// Базовую линию все равно двигаем: push сравнит с актуальной
			if err := s.workspace.SaveBaseline(ctx, state.Key, lang, tr.Hash); err != nil {
				return err
			}
			continue
		}

		entry := &models.WorkingEntry{
			Key:              state.Key,
			Lang:             lang,
			Value:            tr.Value,
			Comment:          tr.Comment,
			PluralForms:      tr.PluralForms,
			Status:           models.TranslationStatus(tr.Status),
			IsPlural:         state.IsPlural,
			SourcePluralText: state.SourcePluralText,
			ModifiedAt:       tr.UpdatedAt,
		}
		if entry.Comment == "" {
			entry.Comment = state.Comment
		}

		if err := s.workspace.SaveEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.workspace.SaveBaseline(ctx, state.Key, lang, tr.Hash); err != nil {
			return err
		}
	}

	// Языки, удаленные на сервере, убираются из рабочей копии.
	// Локально измененный перевод остается вместе с базовой линией:
	// расхождение всплывет конфликтом deleted_remote при push
	for _, lang := range state.DeletedLangs {
		modified, err := s.locallyModified(ctx, state.Key, lang)
		if err != nil {
			return err
		}
		if modified && !full {
			result.KeptLocal++
			continue
		}
		if err := s.workspace.DeleteEntry(ctx, state.Key, lang); err != nil {
			return err
		}
		if err := s.workspace.DeleteBaseline(ctx, state.Key, lang); err != nil {
			return err
		}
	}
	return nil
}

// locallyModified проверяет, расходится ли рабочая копия с базовой линией.
func (s *Service) locallyModified(ctx context.Context, key, lang string) (bool, error) {
	entry, err := s.workspace.GetEntry(ctx, key, lang)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			base, err := s.workspace.GetBaseline(ctx, key, lang)
			if err != nil {
				return false, err
			}
			// Записи нет, а базовая линия есть: локальное удаление
			return base != "", nil
		}
		return false, err
	}

	base, err := s.workspace.GetBaseline(ctx, key, lang)
	if err != nil {
		return false, err
	}
	if base == "" {
		return true, nil // локально создано, сервер не видел
	}
	return fingerprint.Entry(entry.Value, entry.Comment, entry.PluralForms) != base, nil
}

func (s *Service) applyDeletedKeys(ctx context.Context, keys []string, full bool, result *PullResult) error {
	for _, key := range keys {
		baselines, err := s.workspace.ListBaselines(ctx)
		if err != nil {
			return err
		}
		for _, b := range baselines {
			if b.Key != key {
				continue
			}
			modified, err := s.locallyModified(ctx, b.Key, b.Lang)
			if err != nil {
				return err
			}
			if modified && !full {
				// Запись и базовая линия остаются: push поднимет
				// конфликт deleted_remote вместо тихого воскрешения
				result.KeptLocal++
				continue
			}
			if err := s.workspace.DeleteEntry(ctx, b.Key, b.Lang); err != nil {
				return err
			}
			if err := s.workspace.DeleteBaseline(ctx, b.Key, b.Lang); err != nil {
				return err
			}
		}
		result.DeletedKeys++
	}
	return nil
}

func (s *Service) applyConfig(ctx context.Context, resp *api.PullResponse, full bool, result *PullResult) error {
	for path, prop := range resp.Config.Properties {
		current, err := s.workspace.GetConfig(ctx, path)
		if err != nil && !errors.Is(err, storage.ErrConfigNotFound) {
			return err
		}

		base, err := s.workspace.GetConfigBaseline(ctx, path)
		if err != nil {
			return err
		}
		modified := current != nil &&
			(base == "" || fingerprint.Config(string(current.ValueType), current.Value) != base)

		if err := s.workspace.SaveConfigBaseline(ctx, path, prop.Hash); err != nil {
			return err
		}
		if modified && !full {
			result.KeptLocal++
			continue
		}

		if err := s.workspace.SaveConfig(ctx, &models.WorkingConfig{
			Path:       path,
			ValueType:  models.ConfigValueType(prop.ValueType),
			Value:      prop.Value,
			ModifiedAt: resp.SyncTimestamp,
		}); err != nil {
			return err
		}
		result.ConfigProps++
	}

	// Конфигурация приходит целиком: свойство с базовой линией, которого
	// в ответе нет, удалено на сервере
	baselines, err := s.workspace.ListConfigBaselines(ctx)
	if err != nil {
		return err
	}
	for path := range baselines {
		if _, ok := resp.Config.Properties[path]; ok {
			continue
		}
		current, err := s.workspace.GetConfig(ctx, path)
		if err != nil && !errors.Is(err, storage.ErrConfigNotFound) {
			return err
		}
		base := baselines[path]
		modified := current != nil &&
			fingerprint.Config(string(current.ValueType), current.Value) != base
		if modified && !full {
			result.KeptLocal++
			continue
		}
		if err := s.workspace.DeleteConfig(ctx, path); err != nil {
			return err
		}
		if err := s.workspace.DeleteConfigBaseline(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// Decision решение по одному отложенному конфликту.
type Decision struct {
	Conflict    api.ConflictRecord
	Resolution  string
	EditedValue *string
}

// ResolveResult итоги разрешения конфликтов.
type ResolveResult struct {
	Applied int
	Skipped int
	Stale   []api.ConflictRecord
}

// Resolve применяет решения: отправляет их на сервер и приводит
// рабочую копию в согласованное состояние.
//
// Принятие серверной стороны (remote) убирает локальную копию записи
// вместе с базовой линией: следующий pull приносит серверное
// содержимое целиком.
func (s *Service) Resolve(ctx context.Context, decisions []Decision) (*ResolveResult, error) {
	result := &ResolveResult{}

	req := api.ResolveRequest{Source: "cli"}
	items := make([]Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Resolution == api.ResolutionSkip {
			result.Skipped++
			continue
		}
		items = append(items, d)
		req.Resolutions = append(req.Resolutions, s.resolutionItem(ctx, d))
	}

	if len(req.Resolutions) == 0 {
		return result, nil
	}

	resp, err := s.client.Resolve(ctx, s.projectID, req)
	if err != nil {
		return nil, err
	}

	stale := make(map[string]bool, len(resp.Stale))
	for _, c := range resp.Stale {
		stale[c.Scope+"|"+c.Key+"|"+c.Lang] = true
	}

	for _, d := range items {
		c := d.Conflict
		if stale[c.Scope+"|"+c.Key+"|"+c.Lang] {
			continue // конфликт перезаписан свежим состоянием сервера
		}
		if err := s.applyDecision(ctx, d, resp); err != nil {
			return nil, err
		}
		if err := s.workspace.DeleteConflict(ctx, c.Scope, c.Key, c.Lang); err != nil {
			return nil, err
		}
		result.Applied++
	}

	if err := s.workspace.SaveConflicts(ctx, resp.Stale); err != nil {
		return nil, err
	}
	result.Stale = resp.Stale

	s.logger.Info("conflicts resolved",
		"project_id", s.projectID,
		"applied", result.Applied,
		"skipped", result.Skipped,
		"stale", len(result.Stale))

	return result, nil
}

// resolutionItem строит элемент запроса из решения.
func (s *Service) resolutionItem(ctx context.Context, d Decision) api.ResolutionItem {
	c := d.Conflict
	item := api.ResolutionItem{
		Scope:       c.Scope,
		Key:         c.Key,
		Lang:        c.Lang,
		Resolution:  d.Resolution,
		RemoteHash:  c.RemoteHash,
		LocalValue:  c.LocalValue,
		EditedValue: d.EditedValue,
	}

	if c.Scope == string(models.ScopeEntry) {
		item.LocalDeleted = c.Type == string(models.ConflictDeletedLocal)
		// Комментарий и плюральные формы берутся из рабочей копии
		if entry, err := s.workspace.GetEntry(ctx, c.Key, c.Lang); err == nil {
			item.LocalComment = entry.Comment
			item.LocalPluralForms = entry.PluralForms
		}
	} else if prop, err := s.workspace.GetConfig(ctx, c.Key); err == nil {
		item.ConfigValueType = string(prop.ValueType)
	}

	return item
}

// applyDecision приводит рабочую копию в соответствие принятому решению.
func (s *Service) applyDecision(ctx context.Context, d Decision, resp *api.ResolveResponse) error {
	c := d.Conflict

	if d.Resolution == api.ResolutionRemote {
		if c.Scope == string(models.ScopeConfig) {
			if err := s.workspace.DeleteConfig(ctx, c.Key); err != nil {
				return err
			}
			return s.workspace.DeleteConfigBaseline(ctx, c.Key)
		}
		if err := s.workspace.DeleteEntry(ctx, c.Key, c.Lang); err != nil {
			return err
		}
		return s.workspace.DeleteBaseline(ctx, c.Key, c.Lang)
	}

	// local на конфликте deleted_local подтверждает удаление:
	// сервер поставил надгробие, локальных следов не остается
	if d.Resolution == api.ResolutionLocal &&
		c.Scope == string(models.ScopeEntry) &&
		c.Type == string(models.ConflictDeletedLocal) {
		if err := s.workspace.DeleteEntry(ctx, c.Key, c.Lang); err != nil {
			return err
		}
		return s.workspace.DeleteBaseline(ctx, c.Key, c.Lang)
	}

	// local или edit: сервер принял наше значение, двигаем базу
	value := c.LocalValue
	if d.Resolution == api.ResolutionEdit {
		value = d.EditedValue
	}

	if c.Scope == string(models.ScopeConfig) {
		hash := resp.NewConfigHashes[c.Key]
		if value != nil {
			prop, err := s.workspace.GetConfig(ctx, c.Key)
			if err != nil {
				if !errors.Is(err, storage.ErrConfigNotFound) {
					return err
				}
				prop = &models.WorkingConfig{Path: c.Key, ValueType: models.ConfigString}
			}
			prop.Value = *value
			if err := s.workspace.SaveConfig(ctx, prop); err != nil {
				return err
			}
		}
		return s.workspace.SaveConfigBaseline(ctx, c.Key, hash)
	}

	entry, err := s.workspace.GetEntry(ctx, c.Key, c.Lang)
	if err != nil {
		if !errors.Is(err, storage.ErrEntryNotFound) {
			return err
		}
		entry = &models.WorkingEntry{Key: c.Key, Lang: c.Lang, Status: models.StatusTranslated}
	}
	entry.Value = value
	if err := s.workspace.SaveEntry(ctx, entry); err != nil {
		return err
	}

	if langs, ok := resp.NewHashes[c.Key]; ok {
		if hash, ok := langs[c.Lang]; ok {
			return s.workspace.SaveBaseline(ctx, c.Key, c.Lang, hash)
		}
	}
	return nil
}

// Status сводка состояния рабочей копии.
type Status struct {
	PendingChanges int
	Conflicts      int
	LastSync       time.Time
}

// Status возвращает количество неотправленных изменений и конфликтов.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	plan, err := s.planner.Plan(ctx)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.workspace.ListConflicts(ctx)
	if err != nil {
		return nil, err
	}

	lastSync, err := s.workspace.GetLastSync(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		PendingChanges: plan.Total(),
		Conflicts:      len(conflicts),
		LastSync:       lastSync,
	}, nil
}
