// Package models holds the platform-neutral records passed between the
// client, the pagination engine, the extractor and the output writers.
package models

import (
	"time"
)

// PostTypeVideoEmbed marks posts whose video lives in an embed descriptor
const PostTypeVideoEmbed = "video_embed"

// Post is a read-only snapshot of a single creator post
type Post struct {
	ID          string
	Title       string
	PostType    string
	URL         string
	PublishedAt *time.Time
	Content     string
	Embed       *Embed
}

// HasEmbed reports whether the post carries embed data
func (p *Post) HasEmbed() bool {
	return p.Embed != nil && !p.Embed.IsEmpty()
}

// NeedsEnrichment reports whether the post claims a video embed but the
// listing did not include it
func (p *Post) NeedsEnrichment() bool {
	return p.PostType == PostTypeVideoEmbed && !p.HasEmbed()
}

// Embed describes third-party media attached to a post
type Embed struct {
	Provider string
	URL      string
	HTML     string
	Subject  string
}

// IsEmpty reports whether the embed carries nothing to scan
func (e *Embed) IsEmpty() bool {
	return e.Provider == "" && e.URL == "" && e.HTML == ""
}

// Creator is a subscribed creator as listed on the memberships page
type Creator struct {
	ID         string // campaign ID, empty until resolved
	Name       string
	Vanity     string
	URL        string
	Compatible *bool
}

// DisplayName returns the name, falling back to the vanity
func (c Creator) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Vanity
}

// IsIncompatible reports whether a compatibility check ran and failed
func (c Creator) IsIncompatible() bool {
	return c.Compatible != nil && !*c.Compatible
}

// User is the account the session belongs to
type User struct {
	ID          string
	FullName    string
	Email       string
	PledgeCount int
}
