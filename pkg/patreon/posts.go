package patreon

import (
	"context"
	"encoding/json"
	"fmt"

	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/models"
	"ptscraper/pkg/pagination"
)

// FetchPostsPage fetches one page of a campaign's posts. Resources that
// cannot be converted are logged as extraction warnings.
func (c *Client) FetchPostsPage(ctx context.Context, campaignID, referer, cursor string) (*pagination.Page, error) {
	var doc Document
	if err := c.getJSON(ctx, c.PostsAPIURL(campaignID, cursor), referer, &doc); err != nil {
		return nil, err
	}

	raw, err := decodePostsPage(&doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid posts page")
	}

	page := &pagination.Page{
		Posts:      make([]models.Post, 0, len(raw.Posts)),
		NextCursor: raw.NextCursor,
		Total:      raw.Total,
		Raw:        len(raw.Posts),
	}
	for _, res := range raw.Posts {
		post, warnings, ok := res.ToPost(c.baseURL)
		for _, w := range warnings {
			logger.LogExtractionWarning(c.logger, res.ID, w)
		}
		if ok {
			page.Posts = append(page.Posts, post)
		}
	}
	return page, nil
}

// PostsFetcher returns a PageFetcher over one campaign's posts
func (c *Client) PostsFetcher(campaignID, vanity string) pagination.PageFetcher {
	referer := c.CreatorPostsPageURL(vanity)
	return pagination.FetcherFunc(func(ctx context.Context, cursor string) (*pagination.Page, error) {
		return c.FetchPostsPage(ctx, campaignID, referer, cursor)
	})
}

// GetPostDetails fetches the full post, including embed data the listing
// omits
func (c *Client) GetPostDetails(ctx context.Context, id string) (*models.Post, error) {
	var doc Document
	if err := c.getJSON(ctx, c.PostAPIURL(id), "", &doc); err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return nil, errs.New(errs.ErrorTypeNotFound, 0, fmt.Sprintf("post %s has no data", id))
	}

	var res PostResource
	if err := json.Unmarshal(doc.Data, &res); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid post")
	}
	post, warnings, ok := res.ToPost(c.baseURL)
	for _, w := range warnings {
		logger.LogExtractionWarning(c.logger, id, w)
	}
	if !ok {
		return nil, errs.New(errs.ErrorTypeParsing, 0, fmt.Sprintf("post %s has no id", id))
	}
	return &post, nil
}

// EnrichPost replaces a video_embed post that lacks embed data with its full
// version. Failures other than a rejected session or cancellation are
// logged and the original post is kept.
func (c *Client) EnrichPost(ctx context.Context, post models.Post) (models.Post, error) {
	if !post.NeedsEnrichment() {
		return post, nil
	}

	full, err := c.GetPostDetails(ctx, post.ID)
	if err != nil {
		if errs.IsAuth(err) || ctx.Err() != nil {
			return post, err
		}
		c.logger.WarnWithFields("could not fetch post details", map[string]interface{}{
			"post_id": post.ID,
			"error":   err.Error(),
		})
		return post, nil
	}

	// keep listing fields the detail view left empty
	if full.Title == "" {
		full.Title = post.Title
	}
	if full.PublishedAt == nil {
		full.PublishedAt = post.PublishedAt
	}
	if full.Content == "" {
		full.Content = post.Content
	}
	if full.PostType == "" {
		full.PostType = post.PostType
	}
	return *full, nil
}
