package extractor

import (
	"fmt"
	"strings"

	"ptscraper/pkg/config"
	"ptscraper/pkg/models"
)

// Video is a single extracted video link
type Video struct {
	Provider Provider `json:"provider"`
	URL      string   `json:"url"`
}

// Warning is a non-fatal problem found while scanning a post
type Warning struct {
	PostID string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("post %s: %s", w.PostID, w.Reason)
}

// Result holds the videos found in one post, in discovery order
type Result struct {
	PostID   string
	Videos   []Video
	Warnings []Warning
}

// URLs returns the video URLs in order
func (r Result) URLs() []string {
	urls := make([]string, len(r.Videos))
	for i, v := range r.Videos {
		urls[i] = v.URL
	}
	return urls
}

// HasVideos reports whether anything was found
func (r Result) HasVideos() bool {
	return len(r.Videos) > 0
}

// Extractor scans posts for Vimeo and YouTube links
type Extractor struct {
	clean     bool
	providers map[Provider]bool
}

// New creates an extractor from configuration
func New(cfg config.ExtractionConfig) *Extractor {
	e := &Extractor{
		clean:     cfg.CleanURLs,
		providers: make(map[Provider]bool),
	}
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = []string{string(ProviderVimeo), string(ProviderYouTube)}
	}
	for _, p := range providers {
		e.providers[Provider(strings.ToLower(p))] = true
	}
	return e
}

// Default returns an extractor for both providers with URL cleaning on
func Default() *Extractor {
	return New(config.DefaultConfig().Extraction)
}

// Extract scans the embed descriptor first and then the post body.
// A post with nothing recognisable yields an empty, non-nil Videos slice.
func (e *Extractor) Extract(post *models.Post) Result {
	res := Result{PostID: post.ID, Videos: []Video{}}
	seen := make(map[string]int)

	if post.Embed != nil && !post.Embed.IsEmpty() {
		found, warning := e.scanEmbed(post.Embed)
		if warning != "" {
			res.Warnings = append(res.Warnings, Warning{PostID: post.ID, Reason: warning})
		}
		e.collect(&res, seen, found)
	}

	e.collect(&res, seen, findCandidates(post.Content))
	return res
}

// ExtractText scans free text, applying the same cleaning and dedup rules
func (e *Extractor) ExtractText(text string) []Video {
	res := Result{Videos: []Video{}}
	e.collect(&res, make(map[string]int), findCandidates(text))
	return res.Videos
}

func (e *Extractor) scanEmbed(embed *models.Embed) ([]candidate, string) {
	provider, known := providerFromMarker(embed.Provider)
	if embed.Provider != "" && !known {
		return nil, fmt.Sprintf("unsupported embed provider %q", embed.Provider)
	}
	if known && !e.providers[provider] {
		return nil, ""
	}

	found := findCandidates(embed.URL)
	found = append(found, findCandidates(embed.HTML)...)

	if known && len(found) == 0 {
		return nil, fmt.Sprintf("%s embed has no recognizable video URL", provider)
	}
	return found, ""
}

// collect appends candidates to the result, deduplicating by provider and
// video ID. A Vimeo link carrying a privacy hash replaces an earlier
// hashless link to the same video in place.
func (e *Extractor) collect(res *Result, seen map[string]int, found []candidate) {
	for _, c := range found {
		if !e.providers[c.provider] {
			continue
		}
		u := c.raw
		if e.clean {
			u = c.clean
		}

		idx, dup := seen[c.key()]
		if !dup {
			seen[c.key()] = len(res.Videos)
			res.Videos = append(res.Videos, Video{Provider: c.provider, URL: u})
			continue
		}
		if c.provider == ProviderVimeo && c.hash != "" {
			if _, hash, _ := ParseVimeo(res.Videos[idx].URL); hash == "" {
				res.Videos[idx].URL = u
			}
		}
	}
}
