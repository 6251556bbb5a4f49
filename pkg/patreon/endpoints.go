package patreon

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the Patreon site root
	BaseURL = "https://www.patreon.com"

	// HomePath carries the bootstrap data with the CSRF signature
	HomePath = "/home"

	// MembershipsPath lists the creators the user supports
	MembershipsPath = "/settings/memberships"

	// PostsPath is the JSON:API posts collection
	PostsPath = "/api/posts"
)

// HomeURL returns the home page URL
func (c *Client) HomeURL() string {
	return c.baseURL + HomePath
}

// MembershipsURL returns the memberships page URL
func (c *Client) MembershipsURL() string {
	return c.baseURL + MembershipsPath
}

// CreatorPostsPageURL returns the creator's posts page
func (c *Client) CreatorPostsPageURL(vanity string) string {
	return fmt.Sprintf("%s/c/%s/posts", c.baseURL, url.PathEscape(vanity))
}

// CreatorURL returns the public creator URL
func CreatorURL(baseURL, vanity string) string {
	if vanity == "" {
		return ""
	}
	if baseURL == "" {
		baseURL = BaseURL
	}
	return fmt.Sprintf("%s/%s", baseURL, vanity)
}

// PostURL returns the public URL of a post
func PostURL(baseURL, id string) string {
	if id == "" {
		return ""
	}
	if baseURL == "" {
		baseURL = BaseURL
	}
	return fmt.Sprintf("%s/posts/%s", baseURL, id)
}

// PostsAPIURL builds the posts listing URL for one page. An empty cursor
// requests the first page.
func (c *Client) PostsAPIURL(campaignID, cursor string) string {
	params := url.Values{}
	params.Set("filter[campaign_id]", campaignID)
	params.Set("filter[is_draft]", strconv.FormatBool(c.cfg.IncludeDrafts))
	params.Set("sort", orDefault(c.cfg.SortOrder, "-published_at"))
	params.Set("json-api-use-default-includes", "false")
	params.Set("json-api-version", orDefault(c.cfg.APIVersion, "1.0"))
	if cursor != "" {
		params.Set("page[cursor]", cursor)
	}
	return fmt.Sprintf("%s%s?%s", c.baseURL, PostsPath, params.Encode())
}

// PostAPIURL builds the URL for a single post
func (c *Client) PostAPIURL(id string) string {
	return fmt.Sprintf("%s%s/%s", c.baseURL, PostsPath, url.PathEscape(id))
}

// SanitizeVanity strips a leading @, surrounding slashes and a pasted
// creator URL down to the vanity name
func SanitizeVanity(vanity string) string {
	vanity = strings.TrimSpace(vanity)
	for _, prefix := range []string{"https://", "http://"} {
		vanity = strings.TrimPrefix(vanity, prefix)
	}
	vanity = strings.TrimPrefix(vanity, "www.")
	vanity = strings.TrimPrefix(vanity, "patreon.com")
	vanity = strings.Trim(vanity, "/")
	vanity = strings.TrimPrefix(vanity, "c/")
	vanity = strings.TrimPrefix(vanity, "cw/")
	if i := strings.IndexAny(vanity, "/?#"); i >= 0 {
		vanity = vanity[:i]
	}
	return strings.TrimPrefix(vanity, "@")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
