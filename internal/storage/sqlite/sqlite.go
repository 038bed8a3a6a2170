package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"herald/internal/config"
	"herald/internal/storage"
	"herald/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	storage.RegisterFactory("sqlite", func(ctx context.Context, cfg config.StorageConfig) (storage.StorageInterface, error) {
		return New(ctx, cfg.Path)
	})
}

type SQLiteStorage struct {
	conn  *sql.DB
	feeds storage.FeedStore
	sites storage.SiteStore
}

func New(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	slog.Info("Initializing SQLite storage", "path", dbPath)

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := storage.Migrate(conn, "sqlite3", migrations, "migrations"); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("Storage initialized successfully")

	return &SQLiteStorage{
		conn:  conn,
		feeds: newFeedStore(conn),
		sites: newSiteStore(conn),
	}, nil
}

func (s *SQLiteStorage) Feeds() storage.FeedStore {
	return s.feeds
}

func (s *SQLiteStorage) Sites() storage.SiteStore {
	return s.sites
}

func (s *SQLiteStorage) Close(ctx context.Context) error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func checkAffected(result sql.Result, kind types.SourceKind, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}
