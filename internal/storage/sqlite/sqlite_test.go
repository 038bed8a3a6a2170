package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"herald/internal/config"
	"herald/internal/storage"
	"herald/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "herald.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestFeedStore_AddAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed, err := s.Feeds().Add(ctx, "  BBC ", " http://bbc.com/rss ")
	require.NoError(t, err)
	assert.NotZero(t, feed.ID)
	assert.Equal(t, "BBC", feed.Name)
	assert.Equal(t, "http://bbc.com/rss", feed.URL)

	_, err = s.Feeds().Add(ctx, "Guardian", "http://guardian.com/rss")
	require.NoError(t, err)

	feeds, err := s.Feeds().List(ctx)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "BBC", feeds[0].Name)
	assert.Equal(t, "Guardian", feeds[1].Name)
	assert.Less(t, feeds[0].ID, feeds[1].ID)
}

func TestFeedStore_AddRejectsEmptyFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Feeds().Add(ctx, "", "http://x")
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	_, err = s.Feeds().Add(ctx, "X", "   ")
	assert.True(t, types.IsValidation(err))

	feeds, err := s.Feeds().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestFeedStore_UpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed, err := s.Feeds().Add(ctx, "Old", "http://old.example/rss")
	require.NoError(t, err)

	require.NoError(t, s.Feeds().Update(ctx, feed.ID, "New", "http://new.example/rss"))

	got, err := s.Feeds().Get(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, feed.ID, got.ID)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "http://new.example/rss", got.URL)

	err = s.Feeds().Update(ctx, feed.ID, "", "http://new.example/rss")
	assert.True(t, types.IsValidation(err))
}

func TestFeedStore_MissingIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	assert.True(t, types.IsNotFound(s.Feeds().Update(ctx, 42, "a", "b")))
	assert.True(t, types.IsNotFound(s.Feeds().Delete(ctx, 42)))

	_, err := s.Feeds().Get(ctx, 42)
	assert.True(t, types.IsNotFound(err))
}

func TestFeedStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed, err := s.Feeds().Add(ctx, "BBC", "http://bbc.com/rss")
	require.NoError(t, err)
	require.NoError(t, s.Feeds().Delete(ctx, feed.ID))

	feeds, err := s.Feeds().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestSiteStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	site, err := s.Sites().Add(ctx, types.ScrapeSite{
		Name:          "HN",
		URL:           "https://news.ycombinator.com",
		TitleSelector: ".titleline > a",
		LinkSelector:  ".titleline > a",
	})
	require.NoError(t, err)
	assert.False(t, site.HasBody())

	site.BodySelector = ".subline"
	site.Name = "Hacker News"
	require.NoError(t, s.Sites().Update(ctx, site, storage.ReplaceBody))

	sites, err := s.Sites().List(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Hacker News", sites[0].Name)
	assert.Equal(t, ".subline", sites[0].BodySelector)

	require.NoError(t, s.Sites().Delete(ctx, site.ID))
	assert.True(t, types.IsNotFound(s.Sites().Delete(ctx, site.ID)))
}

func TestSiteStore_UpdateBodySelector(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	site, err := s.Sites().Add(ctx, types.ScrapeSite{
		Name:          "Pravda",
		URL:           "https://www.pravda.com.ua/news/",
		TitleSelector: ".article_title",
		LinkSelector:  ".article_title a",
		BodySelector:  "p",
	})
	require.NoError(t, err)

	renamed := types.ScrapeSite{
		ID:            site.ID,
		Name:          "Pravda News",
		URL:           site.URL,
		TitleSelector: site.TitleSelector,
		LinkSelector:  site.LinkSelector,
	}
	require.NoError(t, s.Sites().Update(ctx, renamed, storage.KeepBody))

	got, err := s.Sites().Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pravda News", got.Name)
	assert.Equal(t, "p", got.BodySelector)

	require.NoError(t, s.Sites().Update(ctx, renamed, storage.ReplaceBody))

	got, err = s.Sites().Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BodySelector)

	missing := renamed
	missing.ID = site.ID + 100
	assert.True(t, types.IsNotFound(s.Sites().Update(ctx, missing, storage.KeepBody)))
}

func TestSiteStore_RequiresSelectors(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Sites().Add(ctx, types.ScrapeSite{Name: "x", URL: "http://x", TitleSelector: "h2"})
	require.Error(t, err)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "link_selector", verr.Field)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "herald.db")

	first, err := New(ctx, path)
	require.NoError(t, err)
	_, err = first.Feeds().Add(ctx, "BBC", "http://bbc.com/rss")
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, path)
	require.NoError(t, err)
	defer second.Close(ctx)

	feeds, sites, err := storage.ListSources(ctx, second)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)
	assert.Empty(t, sites)
}

func TestRegisteredFactory(t *testing.T) {
	s, err := storage.New(context.Background(), config.StorageConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "factory.db"),
	})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, err = storage.New(context.Background(), config.StorageConfig{Type: "mongo"})
	assert.Error(t, err)
}
