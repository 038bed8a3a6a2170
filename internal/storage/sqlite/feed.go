package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"herald/internal/storage"
	"herald/internal/types"
)

type feedStore struct {
	db *sql.DB
}

func newFeedStore(db *sql.DB) storage.FeedStore {
	return &feedStore{db: db}
}

func (s *feedStore) List(ctx context.Context) ([]types.FeedSource, error) {
	query := `SELECT id, name, url, created_at FROM feed_sources ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed sources: %w", err)
	}
	defer rows.Close()

	feeds := make([]types.FeedSource, 0)
	for rows.Next() {
		var feed types.FeedSource
		if err := rows.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed source: %w", err)
		}
		feeds = append(feeds, feed)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return feeds, nil
}

func (s *feedStore) Get(ctx context.Context, id int64) (types.FeedSource, error) {
	query := `SELECT id, name, url, created_at FROM feed_sources WHERE id = ?`

	var feed types.FeedSource
	err := s.db.QueryRowContext(ctx, query, id).Scan(&feed.ID, &feed.Name, &feed.URL, &feed.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FeedSource{}, notFound(types.KindFeed, id)
	}
	if err != nil {
		return types.FeedSource{}, fmt.Errorf("failed to get feed source: %w", err)
	}

	return feed, nil
}

func (s *feedStore) Add(ctx context.Context, name, url string) (types.FeedSource, error) {
	name, url, err := storage.NormalizeFeed(name, url)
	if err != nil {
		return types.FeedSource{}, err
	}

	createdAt := time.Now().UTC()
	query := `INSERT INTO feed_sources (name, url, created_at) VALUES (?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, name, url, createdAt)
	if err != nil {
		return types.FeedSource{}, fmt.Errorf("failed to insert feed source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return types.FeedSource{}, fmt.Errorf("failed to read feed source id: %w", err)
	}

	return types.FeedSource{ID: id, Name: name, URL: url, CreatedAt: createdAt}, nil
}

func (s *feedStore) Update(ctx context.Context, id int64, name, url string) error {
	name, url, err := storage.NormalizeFeed(name, url)
	if err != nil {
		return err
	}

	query := `UPDATE feed_sources SET name = ?, url = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, name, url, id)
	if err != nil {
		return fmt.Errorf("failed to update feed source: %w", err)
	}

	return checkAffected(result, types.KindFeed, id)
}

func (s *feedStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM feed_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed source: %w", err)
	}

	return checkAffected(result, types.KindFeed, id)
}

func notFound(kind types.SourceKind, id int64) error {
	return &types.NotFoundError{Kind: kind, ID: id}
}
