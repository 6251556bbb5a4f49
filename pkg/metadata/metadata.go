// Package metadata defines the per-creator report written as JSON and the
// builders that turn posts and extraction results into it.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"ptscraper/pkg/daterange"
	"ptscraper/pkg/extractor"
	"ptscraper/pkg/models"
)

// UntitledPost is used when a post has no title
const UntitledPost = "Untitled"

// CreatorReport is the JSON document written for one creator
type CreatorReport struct {
	Creator         string       `json:"creator"`
	CreatorVanity   string       `json:"creator_vanity"`
	CreatorURL      string       `json:"creator_url"`
	ScrapeDate      time.Time    `json:"scrape_date"`
	TotalPosts      int          `json:"total_posts"`
	PostsWithVideos int          `json:"posts_with_videos"`
	TotalVideoURLs  int          `json:"total_video_urls"`
	DateFilter      DateFilter   `json:"date_filter"`
	Posts           []PostRecord `json:"posts"`
}

// DateFilter records the bounds applied to the run; null means unbounded
type DateFilter struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// PostRecord is one post in the report
type PostRecord struct {
	PostID      string            `json:"post_id"`
	Title       string            `json:"title"`
	PostType    string            `json:"post_type"`
	PublishedAt *time.Time        `json:"published_at"`
	URL         string            `json:"url"`
	Videos      []extractor.Video `json:"videos"`
	VideoURLs   []string          `json:"video_urls"`
}

// HasVideos reports whether the post yielded any video URL
func (p PostRecord) HasVideos() bool {
	return len(p.VideoURLs) > 0
}

// NewPostRecord builds the report entry for a post and its extraction result
func NewPostRecord(post models.Post, res extractor.Result) PostRecord {
	title := post.Title
	if title == "" {
		title = UntitledPost
	}
	videos := res.Videos
	if videos == nil {
		videos = []extractor.Video{}
	}
	return PostRecord{
		PostID:      post.ID,
		Title:       title,
		PostType:    post.PostType,
		PublishedAt: post.PublishedAt,
		URL:         post.URL,
		Videos:      videos,
		VideoURLs:   res.URLs(),
	}
}

// BuildOptions controls which posts end up in a report and in what order
type BuildOptions struct {
	IncludePostsWithoutVideos bool
	SortByDate                bool
	SortDescending            bool
}

// NewCreatorReport creates an empty report for creator
func NewCreatorReport(creator models.Creator, rng daterange.Range, scrapedAt time.Time) *CreatorReport {
	start, end := rng.Bounds()
	return &CreatorReport{
		Creator:       creator.DisplayName(),
		CreatorVanity: creator.Vanity,
		CreatorURL:    creator.URL,
		ScrapeDate:    scrapedAt,
		DateFilter:    DateFilter{StartDate: start, EndDate: end},
		Posts:         []PostRecord{},
	}
}

// Add appends a record unless it has no videos and such posts are excluded.
// It reports whether the record was kept.
func (r *CreatorReport) Add(rec PostRecord, opts BuildOptions) bool {
	r.TotalVideoURLs += len(rec.VideoURLs)
	if !rec.HasVideos() && !opts.IncludePostsWithoutVideos {
		return false
	}
	r.Posts = append(r.Posts, rec)
	r.TotalPosts = len(r.Posts)
	if rec.HasVideos() {
		r.PostsWithVideos++
	}
	return true
}

// Finalize orders posts by publish date when requested. Undated posts sort
// as the oldest.
func (r *CreatorReport) Finalize(opts BuildOptions) {
	if !opts.SortByDate {
		return
	}
	sort.SliceStable(r.Posts, func(i, j int) bool {
		a, b := r.Posts[i].PublishedAt, r.Posts[j].PublishedAt
		if opts.SortDescending {
			a, b = b, a
		}
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
}

// AllVideoURLs returns every URL in post order, duplicates included
func (r *CreatorReport) AllVideoURLs() []string {
	var urls []string
	for _, p := range r.Posts {
		urls = append(urls, p.VideoURLs...)
	}
	return urls
}

// HasVideos reports whether any post yielded a video URL
func (r *CreatorReport) HasVideos() bool {
	return r.TotalVideoURLs > 0
}

// Load reads a report written by the storage package
func Load(path string) (*CreatorReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report CreatorReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}
