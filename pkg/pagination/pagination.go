// Package pagination walks a cursor-paginated post listing strictly one
// page at a time, filtering by date and refusing to loop on a repeated
// cursor.
package pagination

import (
	"context"
	"fmt"

	"ptscraper/pkg/daterange"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/models"
)

// Page is one response from a paginated listing
type Page struct {
	Posts      []models.Post
	NextCursor string // empty when this is the last page
	Total      int    // total reported by the server, 0 when unknown
	// Raw counts the resources the server returned, including those that
	// could not be converted into Posts. 0 means len(Posts).
	Raw int
}

// empty reports whether the server returned no resources at all. A page
// whose resources were all dropped as malformed is not empty.
func (p *Page) empty() bool {
	return len(p.Posts) == 0 && p.Raw == 0
}

// PageFetcher fetches the page identified by cursor. An empty cursor
// requests the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*Page, error)
}

// FetcherFunc adapts a function to PageFetcher
type FetcherFunc func(ctx context.Context, cursor string) (*Page, error)

// FetchPage calls f
func (f FetcherFunc) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	return f(ctx, cursor)
}

// Progress is reported after every page
type Progress struct {
	Page    int
	Fetched int
	Kept    int
	Total   int
}

// Options configures a single walk
type Options struct {
	StartCursor string
	MaxPosts    int // 0 means unlimited
	Range       daterange.Range
	OnPage      func(Progress)
}

// Stats summarises a completed walk
type Stats struct {
	Pages       int
	Fetched     int
	Kept        int
	Filtered    int
	MissingDate int
	Total       int
}

// Engine collects posts from a PageFetcher
type Engine struct {
	fetcher PageFetcher
	logger  logger.Logger
}

// NewEngine creates a pagination engine
func NewEngine(fetcher PageFetcher, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Engine{fetcher: fetcher, logger: log}
}

// Collect fetches pages sequentially until the cursor runs out, the server
// returns a page with no resources, or MaxPosts is reached. Posts are returned in listing order.
// A cursor that was already requested yields a pagination error.
func (e *Engine) Collect(ctx context.Context, opts Options) ([]models.Post, Stats, error) {
	var (
		posts  []models.Post
		stats  Stats
		cursor = opts.StartCursor
		seen   = make(map[string]bool)
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		seen[cursor] = true
		page, err := e.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			return nil, stats, fmt.Errorf("fetching page %d: %w", stats.Pages+1, err)
		}
		stats.Pages++
		if stats.Pages == 1 {
			stats.Total = page.Total
		}

		for i := range page.Posts {
			if opts.MaxPosts > 0 && stats.Fetched >= opts.MaxPosts {
				break
			}
			stats.Fetched++

			post := page.Posts[i]
			if !opts.Range.IsZero() {
				if post.PublishedAt == nil {
					stats.MissingDate++
					e.logger.DebugWithFields("Skipping post without publish date", map[string]interface{}{
						"post_id": post.ID,
					})
					continue
				}
				if !opts.Range.Contains(*post.PublishedAt) {
					stats.Filtered++
					continue
				}
			}
			posts = append(posts, post)
		}
		stats.Kept = len(posts)

		if opts.OnPage != nil {
			opts.OnPage(Progress{Page: stats.Pages, Fetched: stats.Fetched, Kept: stats.Kept, Total: stats.Total})
		}

		if page.empty() || page.NextCursor == "" {
			break
		}
		if opts.MaxPosts > 0 && stats.Fetched >= opts.MaxPosts {
			e.logger.DebugWithFields("Reached post limit", map[string]interface{}{"limit": opts.MaxPosts})
			break
		}
		if seen[page.NextCursor] {
			return nil, stats, errs.NewPaginationError(fmt.Sprintf(
				"cursor %q on page %d was already visited", page.NextCursor, stats.Pages))
		}
		cursor = page.NextCursor
	}

	if posts == nil {
		posts = []models.Post{}
	}
	return posts, stats, nil
}
