// Package planner собирает push-пакет из локальной рабочей копии.
// Изменением считается расхождение отпечатка содержимого с базовой
// линией; записи, совпадающие с ней, в пакет не попадают.
package planner

import (
	"context"
	"fmt"

	"github.com/loclate/loclate/internal/client/storage"
	"github.com/loclate/loclate/internal/fingerprint"
	"github.com/loclate/loclate/pkg/api"
)

// Plan готовый к отправке пакет изменений.
type Plan struct {
	Entries   []api.EntryChange
	Deletions []api.EntryDeletion
	Config    api.ConfigPush
}

// Empty reports whether the plan contains no changes.
func (p *Plan) Empty() bool {
	return len(p.Entries) == 0 && len(p.Deletions) == 0 &&
		len(p.Config.Changes) == 0 && len(p.Config.Deletions) == 0
}

// Total возвращает количество намерений в пакете.
func (p *Plan) Total() int {
	return len(p.Entries) + len(p.Deletions) + len(p.Config.Changes) + len(p.Config.Deletions)
}

// Planner сравнивает рабочую копию с базовыми линиями.
type Planner struct {
	entries   storage.EntryStorage
	baselines storage.BaselineStorage
	config    storage.ConfigStorage
}

// New creates a new planner over the local workspace.
func New(entries storage.EntryStorage, baselines storage.BaselineStorage, config storage.ConfigStorage) *Planner {
	return &Planner{entries: entries, baselines: baselines, config: config}
}

// Plan строит пакет изменений.
// Базовая линия без записи в рабочей копии означает локальное удаление:
// оно уходит на сервер с хешем базовой линии.
func (p *Planner) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{}

	entries, err := p.entries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list working entries: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Key+"|"+e.Lang] = true

		base, err := p.baselines.GetBaseline(ctx, e.Key, e.Lang)
		if err != nil {
			return nil, err
		}

		hash := fingerprint.Entry(e.Value, e.Comment, e.PluralForms)
		if base == hash {
			continue // не изменялось с последней синхронизации
		}

		change := api.EntryChange{
			Key:              e.Key,
			Lang:             e.Lang,
			Value:            copyStrPtr(e.Value),
			Comment:          e.Comment,
			SourcePluralText: e.SourcePluralText,
			PluralForms:      e.PluralForms,
			Status:           string(e.Status),
			IsPlural:         e.IsPlural,
		}
		if base != "" {
			b := base
			change.BaseHash = &b
		}
		plan.Entries = append(plan.Entries, change)
	}

	baselines, err := p.baselines.ListBaselines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	for _, b := range baselines {
		if seen[b.Key+"|"+b.Lang] {
			continue
		}
		hash := b.Hash
		plan.Deletions = append(plan.Deletions, api.EntryDeletion{
			Key:      b.Key,
			Lang:     b.Lang,
			BaseHash: &hash,
		})
	}

	if err := p.planConfig(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (p *Planner) planConfig(ctx context.Context, plan *Plan) error {
	props, err := p.config.ListConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to list working config: %w", err)
	}

	seen := make(map[string]bool, len(props))
	for _, prop := range props {
		seen[prop.Path] = true

		base, err := p.baselines.GetConfigBaseline(ctx, prop.Path)
		if err != nil {
			return err
		}

		hash := fingerprint.Config(string(prop.ValueType), prop.Value)
		if base == hash {
			continue
		}

		change := api.ConfigChange{
			Path:      prop.Path,
			ValueType: string(prop.ValueType),
			Value:     prop.Value,
		}
		if base != "" {
			b := base
			change.BaseHash = &b
		}
		plan.Config.Changes = append(plan.Config.Changes, change)
	}

	baselines, err := p.baselines.ListConfigBaselines(ctx)
	if err != nil {
		return fmt.Errorf("failed to list config baselines: %w", err)
	}
	for path, hash := range baselines {
		if seen[path] {
			continue
		}
		h := hash
		plan.Config.Deletions = append(plan.Config.Deletions, api.ConfigDeletion{
			Path:     path,
			BaseHash: &h,
		})
	}

	return nil
}

func copyStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
