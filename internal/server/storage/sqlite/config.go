package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
)

var configColumns = []string{
	"project_id", "path", "value_type", "value", "hash",
	"version", "deleted", "created_at", "updated_at", "updated_by",
}

// configRow строка таблицы config_properties для sqlx-сканирования
type configRow struct {
	ProjectID string `db:"project_id"`
	Path      string `db:"path"`
	ValueType string `db:"value_type"`
	Value     string `db:"value"`
	Hash      string `db:"hash"`
	Version   int64  `db:"version"`
	Deleted   int    `db:"deleted"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
	UpdatedBy string `db:"updated_by"`
}

func (r *configRow) toModel() *models.ConfigProperty {
	return &models.ConfigProperty{
		ProjectID: r.ProjectID,
		Path:      r.Path,
		ValueType: models.ConfigValueType(r.ValueType),
		Value:     r.Value,
		Hash:      r.Hash,
		Version:   r.Version,
		Deleted:   intToBool(r.Deleted),
		CreatedAt: nanoToTime(r.CreatedAt),
		UpdatedAt: nanoToTime(r.UpdatedAt),
		UpdatedBy: r.UpdatedBy,
	}
}

// GetConfig возвращает свойство, включая tombstone.
func (s *Storage) GetConfig(ctx context.Context, projectID, path string) (*models.ConfigProperty, error) {
	query, args, err := s.sb.Select(configColumns...).
		From("config_properties").
		Where(sq.Eq{"project_id": projectID, "path": path}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row configRow
	if err := sqlx.GetContext(ctx, s.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get config property: %w", err)
	}

	return row.toModel(), nil
}

// UpsertConfig вставляет или перезаписывает свойство.
func (s *Storage) UpsertConfig(ctx context.Context, p *models.ConfigProperty) error {
	query, args, err := s.sb.Insert("config_properties").
		Columns(configColumns...).
		Values(
			p.ProjectID, p.Path, string(p.ValueType), p.Value, p.Hash,
			p.Version, boolToInt(p.Deleted),
			timeToNano(p.CreatedAt), timeToNano(p.UpdatedAt), p.UpdatedBy,
		).
		Suffix(`ON CONFLICT(project_id, path) DO UPDATE SET
			value_type=excluded.value_type, value=excluded.value,
			hash=excluded.hash, version=excluded.version, deleted=excluded.deleted,
			updated_at=excluded.updated_at, updated_by=excluded.updated_by`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert config property: %w", err)
	}

	return nil
}

// ListConfig возвращает все живые свойства проекта.
func (s *Storage) ListConfig(ctx context.Context, projectID string) ([]*models.ConfigProperty, error) {
	query, args, err := s.sb.Select(configColumns...).
		From("config_properties").
		Where(sq.Eq{"project_id": projectID, "deleted": 0}).
		OrderBy("path").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []configRow
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list config properties: %w", err)
	}

	props := make([]*models.ConfigProperty, 0, len(rows))
	for i := range rows {
		props = append(props, rows[i].toModel())
	}

	return props, nil
}
