package storage

import (
	"context"

	"herald/internal/types"
)

// StorageInterface is the Source Store. Each mutating call commits on its
// own; there is no transaction spanning calls.
type StorageInterface interface {
	Feeds() FeedStore
	Sites() SiteStore
	Close(ctx context.Context) error
}

type FeedStore interface {
	List(ctx context.Context) ([]types.FeedSource, error)
	Get(ctx context.Context, id int64) (types.FeedSource, error)
	Add(ctx context.Context, name, url string) (types.FeedSource, error)
	Update(ctx context.Context, id int64, name, url string) error
	Delete(ctx context.Context, id int64) error
}

// BodyUpdate selects what a site update does with the stored body selector.
type BodyUpdate int

const (
	// KeepBody leaves the stored body selector untouched.
	KeepBody BodyUpdate = iota
	// ReplaceBody stores the given body selector, clearing it when empty.
	ReplaceBody
)

type SiteStore interface {
	List(ctx context.Context) ([]types.ScrapeSite, error)
	Get(ctx context.Context, id int64) (types.ScrapeSite, error)
	Add(ctx context.Context, site types.ScrapeSite) (types.ScrapeSite, error)
	Update(ctx context.Context, site types.ScrapeSite, body BodyUpdate) error
	Delete(ctx context.Context, id int64) error
}

// ListSources returns both record kinds in store order.
func ListSources(ctx context.Context, s StorageInterface) ([]types.FeedSource, []types.ScrapeSite, error) {
	feeds, err := s.Feeds().List(ctx)
	if err != nil {
		return nil, nil, err
	}

	sites, err := s.Sites().List(ctx)
	if err != nil {
		return nil, nil, err
	}

	return feeds, sites, nil
}
