// Package sqlite реализует серверное хранилище движка синхронизации
// поверх SQLite. Схема управляется goose-миграциями из embedded FS.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/loclate/loclate/internal/server/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents SQLite storage implementation.
// Экземпляр может работать поверх соединения или поверх открытой
// транзакции (внутри InTx); в транзакционном экземпляре db == nil.
type Storage struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	sb  sq.StatementBuilderType
}

// New creates a new SQLite storage instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite с WAL mode поддерживает несколько читателей, но одного писателя.
	// Один открытый коннект сериализует compare-and-swap внутри пакета push.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Storage{
		db:  db,
		ext: db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations() error {
	goose.SetDialect("sqlite3")
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// InTx выполняет fn в одной транзакции. Вложенный вызов выполняется
// в уже открытой транзакции без создания новой.
func (s *Storage) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStorage := &Storage{ext: tx, sb: s.sb}

	if err := fn(txStorage); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

// Helper functions for bool/int and time conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// Временные метки хранятся как unix-наносекунды, чтобы сравнение
// updated_at > since не теряло близкие записи.
func timeToNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func nanoToTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
