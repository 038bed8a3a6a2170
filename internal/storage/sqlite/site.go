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

type siteStore struct {
	db *sql.DB
}

func newSiteStore(db *sql.DB) storage.SiteStore {
	return &siteStore{db: db}
}

const siteColumns = `id, name, url, title_selector, link_selector, body_selector, created_at`

func scanSite(row interface{ Scan(...any) error }) (types.ScrapeSite, error) {
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
	query := `SELECT ` + siteColumns + ` FROM scrape_sites ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
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

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return sites, nil
}

func (s *siteStore) Get(ctx context.Context, id int64) (types.ScrapeSite, error) {
	query := `SELECT ` + siteColumns + ` FROM scrape_sites WHERE id = ?`

	site, err := scanSite(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.ScrapeSite{}, notFound(types.KindSite, id)
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

	site.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO scrape_sites (name, url, title_selector, link_selector, body_selector, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		site.Name, site.URL, site.TitleSelector, site.LinkSelector, site.BodySelector, site.CreatedAt)
	if err != nil {
		return types.ScrapeSite{}, fmt.Errorf("failed to insert scrape site: %w", err)
	}

	site.ID, err = result.LastInsertId()
	if err != nil {
		return types.ScrapeSite{}, fmt.Errorf("failed to read scrape site id: %w", err)
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
		SET name = ?, url = ?, title_selector = ?, link_selector = ?,
			body_selector = CASE WHEN ? THEN body_selector ELSE ? END
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		site.Name, site.URL, site.TitleSelector, site.LinkSelector,
		body == storage.KeepBody, site.BodySelector, id)
	if err != nil {
		return fmt.Errorf("failed to update scrape site: %w", err)
	}

	return checkAffected(result, types.KindSite, id)
}

func (s *siteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scrape_sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scrape site: %w", err)
	}

	return checkAffected(result, types.KindSite, id)
}
