package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptscraper/pkg/daterange"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/models"
)

// pagedFetcher serves pages keyed by cursor and records the request order
type pagedFetcher struct {
	pages    map[string]*Page
	requests []string
}

func (f *pagedFetcher) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	f.requests = append(f.requests, cursor)
	page, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", cursor)
	}
	return page, nil
}

func post(id string, published *time.Time) models.Post {
	return models.Post{ID: id, PublishedAt: published}
}

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestCollectFollowsCursorChain(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"A": {Posts: []models.Post{post("1", nil), post("2", nil)}, NextCursor: "B", Total: 5},
		"B": {Posts: []models.Post{post("3", nil), post("4", nil)}, NextCursor: "C"},
		"C": {Posts: []models.Post{post("5", nil)}},
	}}

	posts, stats, err := NewEngine(f, nil).Collect(context.Background(), Options{StartCursor: "A"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(posts))
	assert.Equal(t, []string{"A", "B", "C"}, f.requests)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 5, stats.Fetched)
	assert.Equal(t, 5, stats.Total)
}

func TestCollectDetectsCursorLoop(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"A": {Posts: []models.Post{post("1", nil)}, NextCursor: "B"},
		"B": {Posts: []models.Post{post("2", nil)}, NextCursor: "A"},
	}}

	posts, _, err := NewEngine(f, nil).Collect(context.Background(), Options{StartCursor: "A"})
	require.Error(t, err)
	assert.True(t, errs.IsPagination(err))
	assert.Nil(t, posts)
	assert.Equal(t, []string{"A", "B"}, f.requests)
}

func TestCollectDetectsSelfReferentialCursor(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"":  {Posts: []models.Post{post("1", nil)}, NextCursor: "X"},
		"X": {Posts: []models.Post{post("2", nil)}, NextCursor: "X"},
	}}

	_, _, err := NewEngine(f, nil).Collect(context.Background(), Options{})
	assert.True(t, errs.IsPagination(err))
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"":  {Posts: []models.Post{post("1", nil)}, NextCursor: "B"},
		"B": {Posts: nil, NextCursor: "C"},
	}}

	posts, stats, err := NewEngine(f, nil).Collect(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(posts))
	assert.Equal(t, 2, stats.Pages)
}

func TestCollectContinuesPastPageOfDroppedResources(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"":  {Posts: nil, Raw: 2, NextCursor: "B"},
		"B": {Posts: []models.Post{post("3", nil)}},
	}}

	posts, stats, err := NewEngine(f, nil).Collect(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(posts))
	assert.Equal(t, []string{"", "B"}, f.requests)
	assert.Equal(t, 2, stats.Pages)
}

func TestCollectDateFilterInclusive(t *testing.T) {
	r, _, err := daterange.ParseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	f := &pagedFetcher{pages: map[string]*Page{
		"": {Posts: []models.Post{
			post("feb", at(2024, 2, 1)),
			post("last-day", at(2024, 1, 31)),
			post("mid", at(2024, 1, 15)),
			post("undated", nil),
			post("first-day", at(2024, 1, 1)),
			post("dec", at(2023, 12, 31)),
		}},
	}}

	posts, stats, err := NewEngine(f, nil).Collect(context.Background(), Options{Range: r})
	require.NoError(t, err)
	assert.Equal(t, []string{"last-day", "mid", "first-day"}, ids(posts))
	assert.Equal(t, 2, stats.Filtered)
	assert.Equal(t, 1, stats.MissingDate)
	assert.Equal(t, 6, stats.Fetched)
}

func TestCollectMaxPosts(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"":  {Posts: []models.Post{post("1", nil), post("2", nil)}, NextCursor: "B"},
		"B": {Posts: []models.Post{post("3", nil), post("4", nil)}, NextCursor: "C"},
	}}

	posts, _, err := NewEngine(f, nil).Collect(context.Background(), Options{MaxPosts: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(posts))
	assert.Equal(t, []string{"", "B"}, f.requests)
}

func TestCollectPropagatesFetchError(t *testing.T) {
	authErr := errs.NewAuthError(401, "session expired")
	fetcher := FetcherFunc(func(ctx context.Context, cursor string) (*Page, error) {
		return nil, authErr
	})

	_, _, err := NewEngine(fetcher, nil).Collect(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, authErr))
	assert.True(t, errs.IsAuth(err))
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &pagedFetcher{pages: map[string]*Page{}}
	_, _, err := NewEngine(f, nil).Collect(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.requests)
}

func TestCollectReportsProgress(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{
		"":  {Posts: []models.Post{post("1", nil)}, NextCursor: "B", Total: 2},
		"B": {Posts: []models.Post{post("2", nil)}},
	}}

	var progress []Progress
	tl := logger.NewTestLogger()
	_, _, err := NewEngine(f, tl).Collect(context.Background(), Options{
		OnPage: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, []Progress{
		{Page: 1, Fetched: 1, Kept: 1, Total: 2},
		{Page: 2, Fetched: 2, Kept: 2, Total: 2},
	}, progress)
}

func TestCollectEmptyListing(t *testing.T) {
	f := &pagedFetcher{pages: map[string]*Page{"": {}}}
	posts, _, err := NewEngine(f, nil).Collect(context.Background(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
