package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/patreon/patreontest"
	"ptscraper/pkg/ui"
)

// setupCLI points the command at a fake Patreon and isolates config, state
// and terminal output
func setupCLI(t *testing.T) (*patreontest.Server, *bytes.Buffer, string) {
	t.Helper()

	srv := patreontest.NewServer()
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("PTSCRAPER_BASE_URL", srv.URL)
	t.Setenv("PTSCRAPER_STATE_DIR", filepath.Join(home, "state"))
	t.Setenv("PTSCRAPER_REQUEST_DELAY", "1ms")
	t.Setenv("PTSCRAPER_REQUESTS_PER_MINUTE", "0")
	t.Setenv("PTSCRAPER_SESSION_ID", "")

	var out bytes.Buffer
	prev := ui.Out
	ui.Out = &out
	t.Cleanup(func() { ui.Out = prev })

	return srv, &out, home
}

func run(t *testing.T, args ...string) int {
	t.Helper()
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

func TestScrapeCommandEndToEnd(t *testing.T) {
	srv, out, home := setupCLI(t)
	srv.AddCreator(patreontest.Creator{Name: "Alice", Vanity: "alice", CampaignID: "c1"}, map[string]patreontest.Page{
		"": {Total: 2, Posts: []patreontest.Post{
			{ID: "1", Title: "First", PostType: "text_only", PublishedAt: "2024-03-01T10:00:00.000+00:00",
				Content: `<p><a href="https://vimeo.com/111">one</a> <a href="https://vimeo.com/111">again</a></p>`},
			{ID: "2", Title: "Old", PostType: "text_only", PublishedAt: "2023-03-01T10:00:00.000+00:00",
				Content: `<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>`},
		}},
	})

	cookies := writeCookies(t, home, "cookies.json", `[{"name":"session_id","value":"test-session"}]`)
	outDir := filepath.Join(home, "output")

	code := run(t, "scrape", "--auto",
		"--cookies", cookies,
		"--creator", "alice",
		"--start", "2024-01-01",
		"--format", "txt",
		"--output", outDir,
	)
	require.Equal(t, errs.ExitOK, code, out.String())

	files, err := filepath.Glob(filepath.Join(outDir, "alice", "alice_*.txt"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "https://vimeo.com/111\n", string(data), "date filter drops the 2023 post and duplicates are removed")

	assert.Contains(t, out.String(), "Logged in as Test User")
	assert.Contains(t, out.String(), "[COMPLETE]")
	assert.Empty(t, mustGlob(t, filepath.Join(home, "state", "checkpoints", "*.json")), "a clean run leaves no checkpoint")
}

func TestAuthCheckRejectedSession(t *testing.T) {
	_, out, home := setupCLI(t)
	cookies := writeCookies(t, home, "stale.json", `[{"name":"session_id","value":"expired"}]`)

	code := run(t, "auth", "check", "--cookies", cookies)
	assert.Equal(t, errs.ExitAuth, code)
	assert.Contains(t, out.String(), "✗ Error")
}

func mustGlob(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	return matches
}
