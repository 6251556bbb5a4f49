package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ptscraper/pkg/checkpoint"
	"ptscraper/pkg/config"
	"ptscraper/pkg/daterange"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/extractor"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/metadata"
	"ptscraper/pkg/models"
	"ptscraper/pkg/pagination"
	"ptscraper/pkg/storage"
)

// Options configures one run
type Options struct {
	Range    daterange.Range
	MaxPosts int // 0 means unlimited
	// Resume skips creators recorded in the run checkpoint
	Resume bool
	// UserID identifies the account in the run checkpoint
	UserID string
}

// Outcome is the result for one creator of a run
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// RunOutcome records what happened to one creator
type RunOutcome struct {
	Creator models.Creator
	Outcome Outcome
	Report  *metadata.CreatorReport
	Written storage.Written
	Reason  string
	Err     error
}

// Scraper orchestrates the per-creator scrape: pagination, enrichment,
// extraction and export
type Scraper struct {
	client        PatreonClient
	extractor     *extractor.Extractor
	storage       *storage.Manager
	checkpointMgr *checkpoint.Manager
	progress      ProgressReporter
	config        *config.Config
	logger        logger.Logger
	now           func() time.Time
}

// Option configures a Scraper
type Option func(*Scraper)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithStorage sets the output writer
func WithStorage(m *storage.Manager) Option {
	return func(s *Scraper) { s.storage = m }
}

// WithCheckpoint enables run checkpoints
func WithCheckpoint(m *checkpoint.Manager) Option {
	return func(s *Scraper) { s.checkpointMgr = m }
}

// WithProgress sets the progress reporter
func WithProgress(p ProgressReporter) Option {
	return func(s *Scraper) { s.progress = p }
}

// WithExtractor replaces the extractor built from configuration
func WithExtractor(e *extractor.Extractor) Option {
	return func(s *Scraper) { s.extractor = e }
}

// WithClock sets the time source used for scrape dates
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// New creates a new Scraper instance. Without WithStorage an output
// manager is created from cfg.Output.
func New(cfg *config.Config, client PatreonClient, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		client:   client,
		config:   cfg,
		progress: nopProgress{},
		logger:   logger.GetLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.extractor == nil {
		s.extractor = extractor.New(cfg.Extraction)
	}
	if s.storage == nil {
		m, err := storage.NewManager(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage manager: %w", err)
		}
		s.storage = m
	}
	return s, nil
}

func (s *Scraper) buildOptions() metadata.BuildOptions {
	return metadata.BuildOptions{
		IncludePostsWithoutVideos: s.config.Output.IncludePostsWithoutVideos,
		SortByDate:                s.config.Output.SortByDate,
		SortDescending:            s.config.Output.SortDescending,
	}
}

// ScrapeCreator collects one creator's posts in the date range and builds
// the report. Nothing is written to disk.
func (s *Scraper) ScrapeCreator(ctx context.Context, creator models.Creator, opts Options) (*metadata.CreatorReport, error) {
	log := s.logger.WithField("creator", creator.Vanity)

	campaignID := creator.ID
	if campaignID == "" {
		id, err := s.client.ResolveCampaign(ctx, creator.Vanity)
		if err != nil {
			return nil, err
		}
		campaignID = id
	}

	log.InfoWithFields("Scraping creator", map[string]interface{}{
		"campaign_id": campaignID,
		"date_range":  opts.Range.String(),
	})

	engine := pagination.NewEngine(s.client.PostsFetcher(campaignID, creator.Vanity), log)
	posts, stats, err := engine.Collect(ctx, pagination.Options{
		MaxPosts: opts.MaxPosts,
		Range:    opts.Range,
		OnPage: func(p pagination.Progress) {
			logger.LogPageProgress(log, creator.Vanity, p.Page, p.Fetched, p.Total)
			s.progress.PageFetched(creator, p)
		},
	})
	if err != nil {
		return nil, err
	}

	buildOpts := s.buildOptions()
	report := metadata.NewCreatorReport(creator, opts.Range, s.now())
	for _, post := range posts {
		if s.config.Scrape.EnrichVideoEmbeds {
			post, err = s.client.EnrichPost(ctx, post)
			if err != nil {
				return nil, err
			}
		}

		res := s.extractor.Extract(&post)
		for _, w := range res.Warnings {
			logger.LogExtractionWarning(log, w.PostID, w.Reason)
		}
		report.Add(metadata.NewPostRecord(post, res), buildOpts)
	}
	report.Finalize(buildOpts)

	log.InfoWithFields("Creator scraped", map[string]interface{}{
		"pages":             stats.Pages,
		"posts_fetched":     stats.Fetched,
		"posts_in_range":    stats.Kept,
		"posts_filtered":    stats.Filtered,
		"posts_undated":     stats.MissingDate,
		"posts_with_videos": report.PostsWithVideos,
		"video_urls":        report.TotalVideoURLs,
	})
	return report, nil
}

// Export writes the report in the configured formats
func (s *Scraper) Export(report *metadata.CreatorReport) (storage.Written, error) {
	written, err := s.storage.Save(report)
	if err != nil {
		return written, fmt.Errorf("failed to write output for %s: %w", report.CreatorVanity, err)
	}
	if written.Skipped {
		s.logger.InfoWithFields("No video URLs found, skipping export", map[string]interface{}{
			"creator": report.CreatorVanity,
		})
	}
	return written, nil
}

// Run scrapes creators one after another. Creator Website pages and
// creators finished by an earlier attempt are skipped. A rejected session,
// a pagination failure, an exhausted retry or cancellation stops the run
// and is returned; creators finished before keep their files. Other
// per-creator failures are recorded and the run moves on.
func (s *Scraper) Run(ctx context.Context, creators []models.Creator, opts Options) ([]RunOutcome, error) {
	cp := s.openCheckpoint(opts)

	outcomes := make([]RunOutcome, 0, len(creators))
	failed := 0
	for i, creator := range creators {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if creator.IsIncompatible() {
			outcomes = append(outcomes, s.skip(creator, "Creator Website layout is not supported"))
			continue
		}
		if cp != nil && cp.IsCreatorDone(creator.Vanity) {
			outcomes = append(outcomes, s.skip(creator, "already completed in an earlier attempt"))
			continue
		}

		s.progress.CreatorStarted(creator, i+1, len(creators))
		outcome, err := s.runCreator(ctx, creator, opts)
		outcomes = append(outcomes, outcome)
		if err != nil {
			return outcomes, err
		}

		switch outcome.Outcome {
		case OutcomeFailed:
			failed++
		case OutcomeDone:
			s.recordCheckpoint(cp, outcome)
		}
	}

	if cp != nil && failed == 0 {
		if err := s.checkpointMgr.Delete(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete checkpoint")
		}
	}
	return outcomes, nil
}

// runCreator returns a non-nil error only when the run must stop
func (s *Scraper) runCreator(ctx context.Context, creator models.Creator, opts Options) (RunOutcome, error) {
	outcome := RunOutcome{Creator: creator}

	report, err := s.ScrapeCreator(ctx, creator, opts)
	if err == nil {
		outcome.Report = report
		outcome.Written, err = s.Export(report)
	}

	switch {
	case err == nil:
		outcome.Outcome = OutcomeDone
		s.progress.CreatorFinished(creator, report, outcome.Written)
		return outcome, nil
	case errs.IsIncompatible(err):
		return s.skip(creator, "Creator Website layout is not supported"), nil
	case IsFatal(err):
		outcome.Outcome = OutcomeFailed
		outcome.Err = err
		s.logger.WithError(err).WithField("creator", creator.Vanity).Error("Run aborted")
		return outcome, err
	default:
		outcome.Outcome = OutcomeFailed
		outcome.Err = err
		outcome.Reason = err.Error()
		s.logger.WithError(err).WithField("creator", creator.Vanity).Error("Creator failed")
		return outcome, nil
	}
}

// IsFatal reports whether err must stop a multi-creator run
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errs.IsAuth(err) || errs.IsPagination(err) || errs.IsRetryableError(err)
}

func (s *Scraper) skip(creator models.Creator, reason string) RunOutcome {
	s.logger.WarnWithFields("Skipping creator", map[string]interface{}{
		"creator": creator.Vanity,
		"reason":  reason,
	})
	s.progress.CreatorSkipped(creator, reason)
	return RunOutcome{Creator: creator, Outcome: OutcomeSkipped, Reason: reason}
}

// filterKey identifies the settings a checkpoint was recorded under
func (s *Scraper) filterKey(opts Options) string {
	return strings.Join([]string{
		opts.Range.String(),
		strings.ToLower(s.config.Output.Format),
		fmt.Sprint(opts.MaxPosts),
	}, "|")
}

func (s *Scraper) openCheckpoint(opts Options) *checkpoint.Checkpoint {
	if s.checkpointMgr == nil {
		return nil
	}

	var (
		cp  *checkpoint.Checkpoint
		err error
	)
	if opts.Resume {
		cp, err = s.checkpointMgr.Resume(opts.UserID, s.filterKey(opts))
	} else {
		cp, err = s.checkpointMgr.Create(opts.UserID, s.filterKey(opts))
	}
	if err != nil {
		s.logger.WithError(err).Warn("Continuing without checkpoint")
		return nil
	}
	return cp
}

func (s *Scraper) recordCheckpoint(cp *checkpoint.Checkpoint, outcome RunOutcome) {
	if cp == nil {
		return
	}
	entry := checkpoint.CreatorEntry{
		Files:     outcome.Written.Paths(),
		Posts:     outcome.Report.TotalPosts,
		VideoURLs: outcome.Report.TotalVideoURLs,
	}
	if err := s.checkpointMgr.RecordCreator(cp, outcome.Creator.Vanity, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to update checkpoint")
	}
}

// Summary counts outcomes by kind
func Summary(outcomes []RunOutcome) (done, skipped, failed int) {
	for _, o := range outcomes {
		switch o.Outcome {
		case OutcomeDone:
			done++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	return done, skipped, failed
}
