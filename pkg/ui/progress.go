package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"ptscraper/pkg/metadata"
	"ptscraper/pkg/models"
	"ptscraper/pkg/pagination"
	"ptscraper/pkg/storage"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// ProgressDisplay prints per-creator progress for a run
type ProgressDisplay struct {
	mu        sync.Mutex
	current   string
	pages     int
	fetched   int
	total     int
	startTime time.Time
	done      int
	skipped   int
	urls      int
	isDebug   bool
}

// NewProgressDisplay creates a new progress display. In debug mode the
// in-place progress line is replaced by the log output.
func NewProgressDisplay(debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// CreatorStarted prints the creator header
func (p *ProgressDisplay) CreatorStarted(creator models.Creator, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = creator.Vanity
	p.pages, p.fetched, p.total = 0, 0, 0

	if quiet {
		return
	}
	fmt.Fprintf(Out, "\n%s %s %s\n",
		Magenta(fmt.Sprintf("[%d/%d]", index, total)),
		creator.DisplayName(),
		Dim("(@"+creator.Vanity+")"))
}

// PageFetched updates the progress line after each page
func (p *ProgressDisplay) PageFetched(creator models.Creator, prog pagination.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages = prog.Page
	p.fetched = prog.Fetched
	p.total = prog.Total

	if quiet || p.isDebug {
		return
	}
	fmt.Fprintf(Out, "\r  %s page %d | %s posts | %d in range",
		Cyan("[SCANNING]"), prog.Page, p.bar(), prog.Kept)
}

// CreatorFinished prints what was found and written
func (p *ProgressDisplay) CreatorFinished(creator models.Creator, report *metadata.CreatorReport, written storage.Written) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.urls += report.TotalVideoURLs

	if quiet {
		return
	}
	if !p.isDebug {
		fmt.Fprintln(Out)
	}
	fmt.Fprintf(Out, "  %s %d post(s), %d with videos, %d video URL(s)\n",
		Green("✓"), report.TotalPosts, report.PostsWithVideos, report.TotalVideoURLs)
	if written.Skipped {
		fmt.Fprintf(Out, "  %s No video URLs found, export skipped\n", Dim("ⓘ"))
		return
	}
	for _, path := range written.Paths() {
		fmt.Fprintf(Out, "  %s %s\n", Green("→"), path)
	}
}

// CreatorSkipped prints why a creator was not scraped
func (p *ProgressDisplay) CreatorSkipped(creator models.Creator, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if quiet {
		return
	}
	fmt.Fprintf(Out, "\n%s Skipping %s: %s\n", Yellow("⚠"), creator.DisplayName(), reason)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if quiet {
		return
	}
	elapsed := time.Since(p.startTime).Round(time.Second)
	fmt.Fprintf(Out, "\n%s %d creator(s) done, %d skipped, %d failed, %d video URL(s) in %s\n",
		Green("[COMPLETE]"), p.done, p.skipped, failed, p.urls, elapsed)
}

// bar renders fetched against the reported total, or a plain count when
// the total is unknown
func (p *ProgressDisplay) bar() string {
	if p.total <= 0 {
		return fmt.Sprintf("%d", p.fetched)
	}
	progress := float64(p.fetched) / float64(p.total)
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(barWidth))
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		p.fetched, p.total)
}
