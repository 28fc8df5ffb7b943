package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
)

var entryColumns = []string{
	"project_id", "key", "lang", "value", "comment",
	"is_plural", "plural_forms", "source_plural_text", "status",
	"hash", "version", "deleted", "created_at", "updated_at", "updated_by",
}

// entryRow строка таблицы entries для sqlx-сканирования
type entryRow struct {
	ProjectID        string         `db:"project_id"`
	Key              string         `db:"key"`
	Lang             string         `db:"lang"`
	Value            sql.NullString `db:"value"`
	Comment          string         `db:"comment"`
	IsPlural         int            `db:"is_plural"`
	PluralForms      sql.NullString `db:"plural_forms"`
	SourcePluralText string         `db:"source_plural_text"`
	Status           string         `db:"status"`
	Hash             string         `db:"hash"`
	Version          int64          `db:"version"`
	Deleted          int            `db:"deleted"`
	CreatedAt        int64          `db:"created_at"`
	UpdatedAt        int64          `db:"updated_at"`
	UpdatedBy        string         `db:"updated_by"`
}

func (r *entryRow) toModel() (*models.Entry, error) {
	e := &models.Entry{
		ProjectID:        r.ProjectID,
		Key:              r.Key,
		Lang:             r.Lang,
		Comment:          r.Comment,
		IsPlural:         intToBool(r.IsPlural),
		SourcePluralText: r.SourcePluralText,
		Status:           models.TranslationStatus(r.Status),
		Hash:             r.Hash,
		Version:          r.Version,
		Deleted:          intToBool(r.Deleted),
		CreatedAt:        nanoToTime(r.CreatedAt),
		UpdatedAt:        nanoToTime(r.UpdatedAt),
		UpdatedBy:        r.UpdatedBy,
	}

	if r.Value.Valid {
		v := r.Value.String
		e.Value = &v
	}

	if r.PluralForms.Valid && r.PluralForms.String != "" {
		if err := json.Unmarshal([]byte(r.PluralForms.String), &e.PluralForms); err != nil {
			return nil, fmt.Errorf("failed to decode plural forms: %w", err)
		}
	}

	return e, nil
}

// GetEntry возвращает запись, включая tombstone.
// ErrEntryNotFound только если строки нет вовсе.
func (s *Storage) GetEntry(ctx context.Context, projectID, key, lang string) (*models.Entry, error) {
	query, args, err := s.sb.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"project_id": projectID, "key": key, "lang": lang}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row entryRow
	if err := sqlx.GetContext(ctx, s.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return row.toModel()
}

// GetKeyEntries возвращает все живые записи одного ключа.
func (s *Storage) GetKeyEntries(ctx context.Context, projectID, key string) ([]*models.Entry, error) {
	query, args, err := s.sb.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"project_id": projectID, "key": key, "deleted": 0}).
		OrderBy("lang").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return s.selectEntries(ctx, query, args)
}

// UpsertEntry вставляет или перезаписывает строку записи целиком.
func (s *Storage) UpsertEntry(ctx context.Context, e *models.Entry) error {
	var value interface{}
	if e.Value != nil {
		value = *e.Value
	}

	var pluralForms interface{}
	if len(e.PluralForms) > 0 {
		encoded, err := json.Marshal(e.PluralForms)
		if err != nil {
			return fmt.Errorf("failed to encode plural forms: %w", err)
		}
		pluralForms = string(encoded)
	}

	query, args, err := s.sb.Insert("entries").
		Columns(entryColumns...).
		Values(
			e.ProjectID, e.Key, e.Lang, value, e.Comment,
			boolToInt(e.IsPlural), pluralForms, e.SourcePluralText, string(e.Status),
			e.Hash, e.Version, boolToInt(e.Deleted),
			timeToNano(e.CreatedAt), timeToNano(e.UpdatedAt), e.UpdatedBy,
		).
		Suffix(`ON CONFLICT(project_id, key, lang) DO UPDATE SET
			value=excluded.value, comment=excluded.comment,
			is_plural=excluded.is_plural, plural_forms=excluded.plural_forms,
			source_plural_text=excluded.source_plural_text, status=excluded.status,
			hash=excluded.hash, version=excluded.version, deleted=excluded.deleted,
			updated_at=excluded.updated_at, updated_by=excluded.updated_by`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}

// CountChangedKeys считает ключи с хотя бы одной живой записью,
// у которых любая запись (включая tombstone отдельного языка)
// изменилась после since (nil = все живые ключи).
func (s *Storage) CountChangedKeys(ctx context.Context, projectID string, since *time.Time) (int, error) {
	sub := s.sb.Select("key").
		From("entries").
		Where(sq.Eq{"project_id": projectID}).
		GroupBy("key").
		Having("SUM(CASE WHEN deleted = 0 THEN 1 ELSE 0 END) > 0")
	if since != nil {
		sub = sub.Having("MAX(updated_at) > ?", timeToNano(*since))
	}

	query, args, err := s.sb.Select("COUNT(*)").
		FromSelect(sub, "changed").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, s.ext, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count changed keys: %w", err)
	}

	return count, nil
}

// ListChangedKeys возвращает страницу имен ключей с хотя бы одной
// живой записью, измененных после since, в стабильном порядке (по
// имени ключа). Tombstone отдельного языка тоже двигает ключ в окно
// since: клиент должен увидеть ключ без исчезнувшего языка.
func (s *Storage) ListChangedKeys(ctx context.Context, projectID string, since *time.Time, limit, offset int) ([]string, error) {
	builder := s.sb.Select("key").
		From("entries").
		Where(sq.Eq{"project_id": projectID}).
		GroupBy("key").
		Having("SUM(CASE WHEN deleted = 0 THEN 1 ELSE 0 END) > 0")
	if since != nil {
		builder = builder.Having("MAX(updated_at) > ?", timeToNano(*since))
	}
	builder = builder.OrderBy("key")
	if limit > 0 {
		builder = builder.Limit(uint64(limit)).Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var keys []string
	if err := sqlx.SelectContext(ctx, s.ext, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list changed keys: %w", err)
	}

	return keys, nil
}

// ListEntriesByKeys возвращает все записи перечисленных ключей,
// включая надгробия отдельных языков.
func (s *Storage) ListEntriesByKeys(ctx context.Context, projectID string, keys []string) ([]*models.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	query, args, err := s.sb.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"project_id": projectID, "key": keys}).
		OrderBy("key", "lang").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return s.selectEntries(ctx, query, args)
}

// ListDeletedKeys возвращает ключи, все записи которых tombstone,
// с последним изменением после since (nil = все такие ключи).
func (s *Storage) ListDeletedKeys(ctx context.Context, projectID string, since *time.Time) ([]string, error) {
	builder := s.sb.Select("key").
		From("entries").
		Where(sq.Eq{"project_id": projectID}).
		GroupBy("key").
		Having("SUM(CASE WHEN deleted = 0 THEN 1 ELSE 0 END) = 0")
	if since != nil {
		builder = builder.Having("MAX(updated_at) > ?", timeToNano(*since))
	}
	builder = builder.OrderBy("key")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var keys []string
	if err := sqlx.SelectContext(ctx, s.ext, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deleted keys: %w", err)
	}

	return keys, nil
}

// selectEntries выполняет запрос и сканирует строки в модели.
func (s *Storage) selectEntries(ctx context.Context, query string, args []interface{}) ([]*models.Entry, error) {
	var rows []entryRow
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}

	entries := make([]*models.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}
