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

type siteStore struct {
	pool *pgxpool.Pool
}

const siteColumns = `id, name, url, title_selector, link_selector, body_selector, created_at`

func scanSite(row pgx.Row) (types.ScrapeSite, error) {
	var site types.ScrapeSite
	err := row.Scan(
		&site.ID,
		&site.Name,
		&site.URL,
		&site.TitleSelector,
		&site.LinkSelector,
		&site.BodySelector,
		&site.CreatedAt,
	)
	return site, err
}

func (s *siteStore) List(ctx context.Context) ([]types.ScrapeSite, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+siteColumns+` FROM scrape_sites ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape sites: %w", err)
	}
	defer rows.Close()

	sites := make([]types.ScrapeSite, 0)
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrape site: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return sites, nil
}

func (s *siteStore) Get(ctx context.Context, id int64) (types.ScrapeSite, error) {
	site, err := scanSite(s.pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM scrape_sites WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.ScrapeSite{}, &types.NotFoundError{Kind: types.KindSite, ID: id}
	}
	if err != nil {
		return types.ScrapeSite{}, fmt.Errorf("failed to get scrape site: %w", err)
	}

	return site, nil
}

func (s *siteStore) Add(ctx context.Context, site types.ScrapeSite) (types.ScrapeSite, error) {
	site, err := storage.NormalizeSite(site)
	if err != nil {
		return types.ScrapeSite{}, err
	}

	query := `
		INSERT INTO scrape_sites (name, url, title_selector, link_selector, body_selector)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = s.pool.QueryRow(ctx, query,
		site.Name, site.URL, site.TitleSelector, site.LinkSelector, site.BodySelector,
	).Scan(&site.ID, &site.CreatedAt)
	if err != nil {
		return types.ScrapeSite{}, fmt.Errorf("failed to insert scrape site: %w", err)
	}

	return site, nil
}

func (s *siteStore) Update(ctx context.Context, site types.ScrapeSite, body storage.BodyUpdate) error {
	id := site.ID
	site, err := storage.NormalizeSite(site)
	if err != nil {
		return err
	}

	query := `
		UPDATE scrape_sites
		SET name = $1, url = $2, title_selector = $3, link_selector = $4,
			body_selector = CASE WHEN $5::boolean THEN body_selector ELSE $6 END
		WHERE id = $7
	`

	tag, err := s.pool.Exec(ctx, query,
		site.Name, site.URL, site.TitleSelector, site.LinkSelector,
		body == storage.KeepBody, site.BodySelector, id)
	if err != nil {
		return fmt.Errorf("failed to update scrape site: %w", err)
	}

	return checkAffected(tag, types.KindSite, id)
}

func (s *siteStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scrape_sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scrape site: %w", err)
	}

	return checkAffected(tag, types.KindSite, id)
}
