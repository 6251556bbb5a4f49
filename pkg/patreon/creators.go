package patreon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/models"
)

// GetCreators lists the creators the user supports, deduplicated by vanity
// and sorted by name. With checkCompat every creator's page layout is probed.
func (c *Client) GetCreators(ctx context.Context, checkCompat bool) ([]models.Creator, error) {
	resp, err := c.getPage(ctx, c.MembershipsURL())
	if err != nil {
		return nil, err
	}

	data, err := ParseNextData(resp.body)
	if err != nil {
		return nil, fmt.Errorf("memberships page: %w", err)
	}

	seen := make(map[string]bool)
	var creators []models.Creator
	for _, user := range FindResourcesByType(data, "user") {
		attrs := digMap(user, "attributes")
		if isCreator, _ := attrs["is_creator"].(bool); !isCreator {
			continue
		}
		vanity := digString(attrs, "vanity")
		if vanity == "" || seen[vanity] {
			continue
		}
		seen[vanity] = true

		creators = append(creators, models.Creator{
			ID:     digString(user, "relationships", "campaign", "data", "id"),
			Name:   orDefault(digString(attrs, "full_name"), vanity),
			Vanity: vanity,
			URL:    CreatorURL(c.baseURL, vanity),
		})
	}

	sort.SliceStable(creators, func(i, j int) bool {
		return creators[i].Name < creators[j].Name
	})

	if checkCompat {
		for i := range creators {
			compatible, err := c.CheckCompatibility(ctx, creators[i].Vanity)
			if err != nil {
				return nil, err
			}
			creators[i].Compatible = &compatible
		}
	}

	c.logger.DebugWithFields("loaded creators", map[string]interface{}{
		"count": len(creators),
	})
	return creators, nil
}

// CheckCompatibility reports whether a creator uses the standard posts page.
// Creator Website pages redirect to /cw/ or render creator-page-v2. When the
// probe itself fails the creator is assumed compatible; only cancellation
// and rejected sessions are returned as errors.
func (c *Client) CheckCompatibility(ctx context.Context, vanity string) (bool, error) {
	pageURL := c.CreatorPostsPageURL(vanity)

	resp, err := c.fetch(ctx, http.MethodHead, pageURL, pageRequest, "")
	if err == nil {
		return !strings.Contains(resp.finalURL, "/cw/"), nil
	}

	var e *errs.Error
	if errors.As(err, &e) && e.Code == http.StatusMethodNotAllowed {
		resp, err = c.getPage(ctx, pageURL)
		if err == nil {
			return !isCreatorWebsite(resp.finalURL, resp.body), nil
		}
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errs.IsAuth(err) {
		return false, err
	}
	c.logger.DebugWithFields("compatibility probe failed; assuming compatible", map[string]interface{}{
		"creator": vanity,
		"error":   err.Error(),
	})
	return true, nil
}

// ResolveCampaign reads the campaign ID from the creator's posts page
func (c *Client) ResolveCampaign(ctx context.Context, vanity string) (string, error) {
	pageURL := c.CreatorPostsPageURL(vanity)

	resp, err := c.getPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if isCreatorWebsite(resp.finalURL, resp.body) {
		return "", errs.NewIncompatibleError(fmt.Sprintf(
			"creator %q uses the Creator Website layout, which hosts videos on Patreon instead of Vimeo/YouTube", vanity))
	}

	data, err := ParseNextData(resp.body)
	if err != nil {
		return "", fmt.Errorf("creator page %s: %w", vanity, err)
	}

	for _, campaign := range FindResourcesByType(data, "campaign") {
		if id := digString(campaign, "id"); id != "" {
			c.logger.DebugWithFields("resolved campaign", map[string]interface{}{
				"creator":     vanity,
				"campaign_id": id,
			})
			return id, nil
		}
	}
	return "", errs.New(errs.ErrorTypeNotFound, 0, fmt.Sprintf("could not find campaign for creator %q", vanity))
}
