package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"herald/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFeeds struct {
	delay  map[string]time.Duration
	fail   map[string]error
	count  int
	active atomic.Int32
	peak   atomic.Int32
}

func (f *fakeFeeds) Fetch(ctx context.Context, src types.FeedSource, limit int) ([]types.Article, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if d := f.delay[src.Name]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, types.NewSourceError(types.ErrUnreachable, src.URL, ctx.Err())
		}
	}
	if err := f.fail[src.Name]; err != nil {
		return nil, err
	}

	count := f.count
	if count == 0 {
		count = limit
	}
	articles := make([]types.Article, 0, count)
	for i := 0; i < count; i++ {
		articles = append(articles, types.Article{
			Source: src.Name,
			Title:  fmt.Sprintf("%s-%d", src.Name, i),
			Link:   fmt.Sprintf("%s/%d", src.URL, i),
		})
	}
	return articles, nil
}

type fakeSites struct {
	panicOn string
}

func (f *fakeSites) Fetch(ctx context.Context, site types.ScrapeSite, limit int) ([]types.Article, error) {
	if site.Name == f.panicOn {
		panic("selector engine exploded")
	}
	return []types.Article{{Source: site.URL, Title: site.Name + "-0", Link: site.URL + "/0", PublishedAt: types.UnknownPublished}}, nil
}

func staticLister(feeds []types.FeedSource, sites []types.ScrapeSite) SourceLister {
	return SourceListerFunc(func(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error) {
		return feeds, sites, nil
	})
}

func titles(articles []types.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func TestAggregate_PreservesStoreOrder(t *testing.T) {
	feeds := []types.FeedSource{{ID: 1, Name: "a", URL: "http://a"}, {ID: 2, Name: "b", URL: "http://b"}}
	sites := []types.ScrapeSite{{ID: 1, Name: "s", URL: "http://s"}}

	// the first feed is the slowest so completion order differs from store order
	ff := &fakeFeeds{delay: map[string]time.Duration{"a": 50 * time.Millisecond}}
	agg := NewAggregator(staticLister(feeds, sites), ff, &fakeSites{}, AggregatorConfig{Concurrency: 3, Logger: discardLogger()})

	report, err := agg.Aggregate(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"a-0", "a-1", "b-0", "b-1", "s-0"}, titles(report.Articles))
	require.Len(t, report.Statuses, 3)
	assert.Equal(t, types.KindFeed, report.Statuses[0].Kind)
	assert.Equal(t, types.KindSite, report.Statuses[2].Kind)
	assert.NotEmpty(t, report.RunID)
}

func TestAggregate_IsolatesFailures(t *testing.T) {
	feeds := []types.FeedSource{{ID: 1, Name: "down", URL: "http://down"}, {ID: 2, Name: "up", URL: "http://up"}}
	ff := &fakeFeeds{fail: map[string]error{
		"down": types.NewSourceError(types.ErrUnreachable, "http://down", errors.New("connection refused")),
	}}
	agg := NewAggregator(staticLister(feeds, nil), ff, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	report, err := agg.Aggregate(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"up-0", "up-1", "up-2"}, titles(report.Articles))

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "down", failed[0].Name)
	assert.Equal(t, types.ErrUnreachable, failed[0].ErrorKind)
	assert.Contains(t, failed[0].Error, "connection refused")
	assert.Equal(t, 3, report.Statuses[1].Count)
}

func TestAggregate_RecoversFromPanic(t *testing.T) {
	sites := []types.ScrapeSite{{ID: 1, Name: "boom", URL: "http://boom"}, {ID: 2, Name: "fine", URL: "http://fine"}}
	agg := NewAggregator(staticLister(nil, sites), &fakeFeeds{}, &fakeSites{panicOn: "boom"}, AggregatorConfig{Logger: discardLogger()})

	report, err := agg.Aggregate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"fine-0"}, titles(report.Articles))
	assert.Contains(t, report.Statuses[0].Error, "panic")
}

func TestAggregate_PerFetchTimeout(t *testing.T) {
	feeds := []types.FeedSource{{Name: "stuck", URL: "http://stuck"}, {Name: "quick", URL: "http://quick"}}
	ff := &fakeFeeds{delay: map[string]time.Duration{"stuck": time.Minute}}
	agg := NewAggregator(staticLister(feeds, nil), ff, &fakeSites{}, AggregatorConfig{
		FetchTimeout: 50 * time.Millisecond,
		Logger:       discardLogger(),
	})

	start := time.Now()
	report, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []string{"quick-0"}, titles(report.Articles))
	assert.False(t, report.Statuses[0].OK())
}

func TestAggregate_TruncatesOverlongAdapterOutput(t *testing.T) {
	feeds := []types.FeedSource{{Name: "chatty", URL: "http://chatty"}}
	agg := NewAggregator(staticLister(feeds, nil), &fakeFeeds{count: 10}, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	report, err := agg.Aggregate(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, report.Articles, 4)
}

func TestAggregate_RespectsConcurrencyLimit(t *testing.T) {
	var feeds []types.FeedSource
	delay := map[string]time.Duration{}
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("f%d", i)
		feeds = append(feeds, types.FeedSource{Name: name, URL: "http://" + name})
		delay[name] = 20 * time.Millisecond
	}
	ff := &fakeFeeds{delay: delay}
	agg := NewAggregator(staticLister(feeds, nil), ff, &fakeSites{}, AggregatorConfig{Concurrency: 2, Logger: discardLogger()})

	_, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, ff.peak.Load(), int32(2))
}

func TestAggregate_InvalidLimit(t *testing.T) {
	agg := NewAggregator(staticLister(nil, nil), &fakeFeeds{}, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	_, err := agg.Aggregate(context.Background(), 0)
	assert.True(t, types.IsValidation(err))
}

func TestAggregate_ListFailure(t *testing.T) {
	lister := SourceListerFunc(func(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error) {
		return nil, nil, errors.New("database is locked")
	})
	agg := NewAggregator(lister, &fakeFeeds{}, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	_, err := agg.Aggregate(context.Background(), 1)
	assert.ErrorContains(t, err, "database is locked")
}

func TestAggregate_ParentCanceled(t *testing.T) {
	feeds := []types.FeedSource{{Name: "a", URL: "http://a"}}
	agg := NewAggregator(staticLister(feeds, nil), &fakeFeeds{}, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Aggregate(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_EmptyStore(t *testing.T) {
	agg := NewAggregator(staticLister(nil, nil), &fakeFeeds{}, &fakeSites{}, AggregatorConfig{Logger: discardLogger()})

	report, err := agg.Aggregate(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, report.Articles)
	assert.Empty(t, report.Statuses)
}
