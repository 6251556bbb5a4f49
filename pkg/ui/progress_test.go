package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ptscraper/pkg/daterange"
	"ptscraper/pkg/metadata"
	"ptscraper/pkg/models"
	"ptscraper/pkg/pagination"
	"ptscraper/pkg/storage"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	t.Setenv("NO_COLOR", "1")
	return &buf
}

func TestProgressDisplay(t *testing.T) {
	buf := captureOutput(t)
	creator := models.Creator{Name: "Alice", Vanity: "alice"}

	p := NewProgressDisplay(false)
	p.CreatorStarted(creator, 1, 2)
	p.PageFetched(creator, pagination.Progress{Page: 1, Fetched: 10, Kept: 8, Total: 20})

	report := metadata.NewCreatorReport(creator, daterange.Range{}, time.Now())
	report.TotalPosts, report.PostsWithVideos, report.TotalVideoURLs = 8, 3, 4
	p.CreatorFinished(creator, report, storage.Written{JSONPath: "out/alice/alice.json"})
	p.CreatorSkipped(models.Creator{Name: "Bob", Vanity: "bob"}, "Creator Website layout is not supported")
	p.Complete(0)

	out := buf.String()
	assert.Contains(t, out, "[1/2] Alice (@alice)")
	assert.Contains(t, out, "[██████████░░░░░░░░░░] 10/20")
	assert.Contains(t, out, "8 post(s), 3 with videos, 4 video URL(s)")
	assert.Contains(t, out, "→ out/alice/alice.json")
	assert.Contains(t, out, "Skipping Bob: Creator Website layout is not supported")
	assert.Contains(t, out, "1 creator(s) done, 1 skipped, 0 failed, 4 video URL(s)")
}

func TestProgressDisplaySkippedExport(t *testing.T) {
	buf := captureOutput(t)
	creator := models.Creator{Vanity: "carol"}

	p := NewProgressDisplay(false)
	p.PageFetched(creator, pagination.Progress{Page: 1, Fetched: 3})
	p.CreatorFinished(creator, metadata.NewCreatorReport(creator, daterange.Range{}, time.Now()), storage.Written{Skipped: true})

	assert.Contains(t, buf.String(), "| 3 posts")
	assert.Contains(t, buf.String(), "export skipped")
}

func TestQuietMode(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)
	defer SetQuietMode(false)

	PrintSuccess("done")
	PrintInfo("Creator", "alice")
	NewProgressDisplay(false).CreatorStarted(models.Creator{Vanity: "alice"}, 1, 1)
	PrintError("failed")

	assert.Equal(t, "✗ failed\n", buf.String())
}

func TestRenderCreatorList(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	compatible, incompatible := true, false
	out := RenderCreatorList([]models.Creator{
		{Name: "Alice", Vanity: "alice", Compatible: &compatible},
		{Name: "A very long creator name that will not fit", Vanity: "long", Compatible: &incompatible},
	})

	assert.Contains(t, out, "Subscribed Creators")
	assert.Contains(t, out, " 1. Alice")
	assert.Contains(t, out, "(@alice)")
	assert.Contains(t, out, "A very long creator name th…")
	assert.Equal(t, 1, strings.Count(out, notSupported))
	assert.Contains(t, out, "Creator Website format")
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}

	n := NewNotifierWithSender(sender)
	n.SendSuccess("Scrape complete", "2 creators")
	n.SendError("Scrape aborted", "session rejected")

	assert.Equal(t, []string{"Scrape complete", "Scrape aborted"}, sender.titles)
	assert.Contains(t, buf.String(), "Scrape complete: 2 creators")

	disabled := NewNotifier(false)
	disabled.sender = sender
	disabled.SendSuccess("ignored", "")
	assert.Len(t, sender.titles, 2)
}
