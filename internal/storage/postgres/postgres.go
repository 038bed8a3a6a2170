package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"herald/internal/config"
	"herald/internal/storage"
	"herald/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	storage.RegisterFactory("postgres", func(ctx context.Context, cfg config.StorageConfig) (storage.StorageInterface, error) {
		return New(ctx, cfg.DSN)
	})
}

type PostgresStorage struct {
	pool  *pgxpool.Pool
	feeds storage.FeedStore
	sites storage.SiteStore
}

func New(ctx context.Context, dsn string) (*PostgresStorage, error) {
	slog.Info("Initializing Postgres storage")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	err = storage.Migrate(db, "postgres", migrations, "migrations")
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("Storage initialized successfully")

	return &PostgresStorage{
		pool:  pool,
		feeds: &feedStore{pool: pool},
		sites: &siteStore{pool: pool},
	}, nil
}

func (s *PostgresStorage) Feeds() storage.FeedStore {
	return s.feeds
}

func (s *PostgresStorage) Sites() storage.SiteStore {
	return s.sites
}

func (s *PostgresStorage) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func checkAffected(tag pgconn.CommandTag, kind types.SourceKind, id int64) error {
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
