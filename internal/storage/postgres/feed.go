package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"herald/internal/storage"
	"herald/internal/types"
)

type feedStore struct {
	pool *pgxpool.Pool
}

func (s *feedStore) List(ctx context.Context) ([]types.FeedSource, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, url, created_at FROM feed_sources ORDER BY id ASC`)
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return feeds, nil
}

func (s *feedStore) Get(ctx context.Context, id int64) (types.FeedSource, error) {
	var feed types.FeedSource
	err := s.pool.QueryRow(ctx, `SELECT id, name, url, created_at FROM feed_sources WHERE id = $1`, id).
		Scan(&feed.ID, &feed.Name, &feed.URL, &feed.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.FeedSource{}, &types.NotFoundError{Kind: types.KindFeed, ID: id}
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

	feed := types.FeedSource{Name: name, URL: url}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO feed_sources (name, url) VALUES ($1, $2) RETURNING id, created_at`,
		name, url,
	).Scan(&feed.ID, &feed.CreatedAt)
	if err != nil {
		return types.FeedSource{}, fmt.Errorf("failed to insert feed source: %w", err)
	}

	return feed, nil
}

func (s *feedStore) Update(ctx context.Context, id int64, name, url string) error {
	name, url, err := storage.NormalizeFeed(name, url)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE feed_sources SET name = $1, url = $2 WHERE id = $3`, name, url, id)
	if err != nil {
		return fmt.Errorf("failed to update feed source: %w", err)
	}

	return checkAffected(tag, types.KindFeed, id)
}

func (s *feedStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM feed_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed source: %w", err)
	}

	return checkAffected(tag, types.KindFeed, id)
}
