package patreon

import (
	"encoding/json"
	"fmt"
	"time"

	"ptscraper/pkg/models"
)

// Document is a JSON:API response envelope
type Document struct {
	Data json.RawMessage `json:"data"`
	Meta Meta            `json:"meta"`
}

// Meta carries pagination information
type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// Pagination is the cursor block of a listing response
type Pagination struct {
	Total   int     `json:"total"`
	Cursors Cursors `json:"cursors"`
}

// Cursors holds the opaque cursor for the next page
type Cursors struct {
	Next *string `json:"next"`
}

// PostResource is a post as returned by the posts API
type PostResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes *PostAttributes `json:"attributes"`
}

// PostAttributes are the post fields this tool reads
type PostAttributes struct {
	Title       string     `json:"title"`
	PostType    string     `json:"post_type"`
	URL         string     `json:"url"`
	PublishedAt string     `json:"published_at"`
	Content     string     `json:"content"`
	Embed       *EmbedData `json:"embed"`
}

// EmbedData describes third-party media attached to a post
type EmbedData struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
	HTML     string `json:"html"`
	Subject  string `json:"subject"`
}

// PostsPage is a decoded posts listing
type PostsPage struct {
	Posts      []PostResource
	NextCursor string
	Total      int
}

// decodePostsPage decodes a listing document. A null or missing data
// member is treated as an empty page.
func decodePostsPage(doc *Document) (*PostsPage, error) {
	page := &PostsPage{Total: doc.Meta.Pagination.Total}
	if next := doc.Meta.Pagination.Cursors.Next; next != nil {
		page.NextCursor = *next
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return page, nil
	}
	if err := json.Unmarshal(doc.Data, &page.Posts); err != nil {
		return nil, fmt.Errorf("posts data: %w", err)
	}
	return page, nil
}

// ToPost converts a resource into a models.Post. Problems that leave the
// post usable are returned as warnings; a resource without an id yields
// ok=false and must be skipped.
func (r PostResource) ToPost(baseURL string) (post models.Post, warnings []string, ok bool) {
	if r.ID == "" {
		return models.Post{}, []string{"post resource without id skipped"}, false
	}

	post.ID = r.ID
	attrs := r.Attributes
	if attrs == nil {
		warnings = append(warnings, "post has no attributes")
		post.URL = PostURL(baseURL, r.ID)
		return post, warnings, true
	}

	post.Title = attrs.Title
	post.PostType = attrs.PostType
	post.Content = attrs.Content
	post.URL = attrs.URL
	if post.URL == "" {
		post.URL = PostURL(baseURL, r.ID)
	}

	if attrs.PublishedAt != "" {
		t, err := parseTimestamp(attrs.PublishedAt)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unparseable published_at %q", attrs.PublishedAt))
		} else {
			post.PublishedAt = &t
		}
	}

	if e := attrs.Embed; e != nil {
		post.Embed = &models.Embed{
			Provider: e.Provider,
			URL:      e.URL,
			HTML:     e.HTML,
			Subject:  e.Subject,
		}
	}

	return post, warnings, true
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
