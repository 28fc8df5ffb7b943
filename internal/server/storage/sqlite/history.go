package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/internal/server/storage"
)

var historyColumns = []string{
	"id", "project_id", "operation", "source", "message",
	"status", "revert_of", "created_at", "created_by",
}

// historyRow строка таблицы history для sqlx-сканирования.
// Count-поля заполняются только в запросе списка.
type historyRow struct {
	ID        string `db:"id"`
	ProjectID string `db:"project_id"`
	Operation string `db:"operation"`
	Source    string `db:"source"`
	Message   string `db:"message"`
	Status    string `db:"status"`
	RevertOf  string `db:"revert_of"`
	CreatedAt int64  `db:"created_at"`
	CreatedBy string `db:"created_by"`
	Added     int    `db:"added"`
	Modified  int    `db:"modified"`
	Deleted   int    `db:"deleted"`
}

func (r *historyRow) toModel() *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Operation: models.HistoryOperation(r.Operation),
		Source:    r.Source,
		Message:   r.Message,
		Status:    models.HistoryStatus(r.Status),
		RevertOf:  r.RevertOf,
		CreatedAt: nanoToTime(r.CreatedAt),
		CreatedBy: r.CreatedBy,
	}
}

// changeRow строка таблицы history_changes.
type changeRow struct {
	Scope         string         `db:"scope"`
	Key           string         `db:"key"`
	Lang          string         `db:"lang"`
	ChangeType    string         `db:"change_type"`
	BeforeValue   sql.NullString `db:"before_value"`
	AfterValue    sql.NullString `db:"after_value"`
	BeforeComment string         `db:"before_comment"`
	AfterComment  string         `db:"after_comment"`
}

func (r *changeRow) toModel() models.Change {
	c := models.Change{
		Scope:         models.ConflictScope(r.Scope),
		Key:           r.Key,
		Lang:          r.Lang,
		Type:          models.ChangeType(r.ChangeType),
		BeforeComment: r.BeforeComment,
		AfterComment:  r.AfterComment,
	}
	if r.BeforeValue.Valid {
		v := r.BeforeValue.String
		c.BeforeValue = &v
	}
	if r.AfterValue.Valid {
		v := r.AfterValue.String
		c.AfterValue = &v
	}
	return c
}

// AppendHistory записывает новую запись истории вместе со списком изменений.
// Запись неизменяема после вставки.
func (s *Storage) AppendHistory(ctx context.Context, h *models.HistoryEntry) error {
	query, args, err := s.sb.Insert("history").
		Columns(historyColumns...).
		Values(
			h.ID, h.ProjectID, string(h.Operation), h.Source, h.Message,
			string(h.Status), h.RevertOf, timeToNano(h.CreatedAt), h.CreatedBy,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.ext.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return storage.ErrHistoryExists
		}
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	for i, c := range h.Changes {
		var beforeValue, afterValue interface{}
		if c.BeforeValue != nil {
			beforeValue = *c.BeforeValue
		}
		if c.AfterValue != nil {
			afterValue = *c.AfterValue
		}

		query, args, err := s.sb.Insert("history_changes").
			Columns("project_id", "history_id", "seq", "scope", "key", "lang",
				"change_type", "before_value", "after_value", "before_comment", "after_comment").
			Values(h.ProjectID, h.ID, i, string(c.Scope), c.Key, c.Lang,
				string(c.Type), beforeValue, afterValue, c.BeforeComment, c.AfterComment).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}

		if _, err := s.ext.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert history change: %w", err)
		}
	}

	return nil
}

// GetHistory возвращает запись с полным списком изменений.
func (s *Storage) GetHistory(ctx context.Context, projectID, id string) (*models.HistoryEntry, error) {
	query, args, err := s.sb.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"project_id": projectID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row historyRow
	if err := sqlx.GetContext(ctx, s.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}

	entry := row.toModel()

	changesQuery, changesArgs, err := s.sb.Select("scope", "key", "lang", "change_type",
		"before_value", "after_value", "before_comment", "after_comment").
		From("history_changes").
		Where(sq.Eq{"project_id": projectID, "history_id": id}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var changeRows []changeRow
	if err := sqlx.SelectContext(ctx, s.ext, &changeRows, changesQuery, changesArgs...); err != nil {
		return nil, fmt.Errorf("failed to list history changes: %w", err)
	}

	entry.Changes = make([]models.Change, 0, len(changeRows))
	for i := range changeRows {
		entry.Changes = append(entry.Changes, changeRows[i].toModel())
	}

	return entry, nil
}

// ListHistory возвращает страницу сводок, новые первыми, и общее количество.
func (s *Storage) ListHistory(ctx context.Context, projectID string, limit, offset int) ([]*storage.HistorySummary, int, error) {
	countQuery, countArgs, err := s.sb.Select("COUNT(*)").
		From("history").
		Where(sq.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, s.ext, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	countBy := func(changeType string) string {
		return fmt.Sprintf(`(SELECT COUNT(*) FROM history_changes c
			WHERE c.project_id = h.project_id AND c.history_id = h.id
			AND c.change_type = '%s') AS %s`, changeType, changeType)
	}

	builder := s.sb.Select(
		"h.id AS id", "h.project_id AS project_id", "h.operation AS operation",
		"h.source AS source", "h.message AS message", "h.status AS status",
		"h.revert_of AS revert_of", "h.created_at AS created_at", "h.created_by AS created_by",
		countBy("added"), countBy("modified"), countBy("deleted"),
	).
		From("history h").
		Where(sq.Eq{"h.project_id": projectID}).
		OrderBy("h.created_at DESC", "h.id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit)).Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []historyRow
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list history entries: %w", err)
	}

	summaries := make([]*storage.HistorySummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, &storage.HistorySummary{
			Entry:    *rows[i].toModel(),
			Added:    rows[i].Added,
			Modified: rows[i].Modified,
			Deleted:  rows[i].Deleted,
		})
	}

	return summaries, total, nil
}

// MarkHistoryReverted помечает запись как reverted, не трогая содержимое.
func (s *Storage) MarkHistoryReverted(ctx context.Context, projectID, id string) error {
	query, args, err := s.sb.Update("history").
		Set("status", string(models.HistoryReverted)).
		Where(sq.Eq{"project_id": projectID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := s.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark history entry reverted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrHistoryNotFound
	}

	return nil
}
