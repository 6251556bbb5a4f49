package scraper

import (
	"context"

	"ptscraper/pkg/metadata"
	"ptscraper/pkg/models"
	"ptscraper/pkg/pagination"
	"ptscraper/pkg/storage"
)

// PatreonClient defines the platform operations a scrape needs
type PatreonClient interface {
	ResolveCampaign(ctx context.Context, vanity string) (string, error)
	PostsFetcher(campaignID, vanity string) pagination.PageFetcher
	EnrichPost(ctx context.Context, post models.Post) (models.Post, error)
}

// ProgressReporter receives run progress for display
type ProgressReporter interface {
	CreatorStarted(creator models.Creator, index, total int)
	PageFetched(creator models.Creator, p pagination.Progress)
	CreatorFinished(creator models.Creator, report *metadata.CreatorReport, written storage.Written)
	CreatorSkipped(creator models.Creator, reason string)
}

type nopProgress struct{}

func (nopProgress) CreatorStarted(models.Creator, int, int)                                  {}
func (nopProgress) PageFetched(models.Creator, pagination.Progress)                          {}
func (nopProgress) CreatorFinished(models.Creator, *metadata.CreatorReport, storage.Written) {}
func (nopProgress) CreatorSkipped(models.Creator, string)                                    {}
