package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptscraper/pkg/checkpoint"
	"ptscraper/pkg/config"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/models"
	"ptscraper/pkg/ui"
)

var subscribed = []models.Creator{
	{ID: "c1", Name: "Alice", Vanity: "alice"},
	{ID: "c2", Name: "Bob", Vanity: "Bob"},
}

func vanities(creators []models.Creator) []string {
	var out []string
	for _, c := range creators {
		out = append(out, c.Vanity)
	}
	return out
}

func TestMatchCreators(t *testing.T) {
	got, err := matchCreators(subscribed, []string{"bob", "https://www.patreon.com/alice/posts", "BOB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "alice"}, vanities(got))
	assert.Equal(t, "c1", got[1].ID, "subscribed creators keep their campaign ID")

	got, err = matchCreators(subscribed, []string{"alice", "all"})
	require.NoError(t, err)
	assert.Equal(t, subscribed, got)

	got, err = matchCreators(subscribed, []string{"@stranger"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Creator{Name: "stranger", Vanity: "stranger"}, got[0])

	_, err = matchCreators(subscribed, []string{"https://www.patreon.com/"})
	assert.Error(t, err)
}

func TestFlagChoices(t *testing.T) {
	cfg := config.DefaultConfig()

	selected, rng, err := flagChoices(cfg, subscribed)
	require.NoError(t, err)
	assert.Len(t, selected, 2, "no creator list means every creator")
	assert.True(t, rng.IsZero())

	cfg.Interactive.SelectedCreators = []string{"alice"}
	cfg.Interactive.StartDate = "31/12/2024"
	cfg.Interactive.EndDate = "2024-01-01"
	selected, rng, err = flagChoices(cfg, subscribed)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, vanities(selected))
	require.NotNil(t, rng.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *rng.Start, "reversed bounds are swapped")

	cfg.Interactive.StartDate = "not a date"
	_, _, err = flagChoices(cfg, subscribed)
	assert.Error(t, err)
}

func writeCookies(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestResolveSessionFromCookieDirectory(t *testing.T) {
	dir := t.TempDir()
	writeCookies(t, dir, "export.json", `[{"name":"session_id","value":"abc123"},{"name":"country","value":"GB"}]`)

	cfg := config.DefaultConfig()
	cfg.Patreon.CookiesDir = dir
	cfg.State.Directory = t.TempDir()

	session, source, err := resolveSession(cfg, sessionSource{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", session.SessionID())
	assert.Equal(t, filepath.Join(dir, "export.json"), source)
}

func TestResolveSessionFromCookieFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	path := writeCookies(t, dir, "good.json", `{"cookies":[{"name":"session_id","value":"xyz"}]}`)
	session, _, err := resolveSession(cfg, sessionSource{cookieFile: path})
	require.NoError(t, err)
	assert.Equal(t, "xyz", session.SessionID())
	assert.Equal(t, cfg.Patreon.UserAgent, session.UserAgent())

	path = writeCookies(t, dir, "logged-out.json", `[{"name":"country","value":"GB"}]`)
	_, _, err = resolveSession(cfg, sessionSource{cookieFile: path})
	require.Error(t, err)
	assert.Equal(t, errs.ExitAuth, errs.ExitCode(err))

	_, _, err = resolveSession(cfg, sessionSource{cookieFile: filepath.Join(dir, "missing.json")})
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}

func TestNewClientOpensCache(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Path = filepath.Join(dir, "nested", "cache.db")

	path := writeCookies(t, dir, "cookies.json", `[{"name":"session_id","value":"abc"}]`)
	session, _, err := resolveSession(cfg, sessionSource{cookieFile: path})
	require.NoError(t, err)

	client, cleanup, err := newClient(cfg, session)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, cfg.Patreon.BaseURL, client.BaseURL())
	assert.FileExists(t, cfg.Cache.Path)
}

func TestCheckEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeCookies(t, dir, "cookies.json", `[{"name":"session_id","value":"abc"}]`)

	cfg := config.DefaultConfig()
	cfg.Patreon.CookiesDir = dir
	cfg.Output.Directory = filepath.Join(dir, "out")
	cfg.State.Directory = filepath.Join(dir, "state")

	problems, warnings := checkEnvironment(cfg)
	assert.Empty(t, problems)
	assert.Empty(t, warnings)
	assert.DirExists(t, cfg.Output.Directory)
	assert.DirExists(t, cfg.State.Directory)

	blocker := writeCookies(t, dir, "blocker", "")
	cfg.Output.Directory = filepath.Join(blocker, "out")
	problems, _ = checkEnvironment(cfg)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "cannot create output directory")
}

func TestDescribeCheckpoint(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var out bytes.Buffer
	prev := ui.Out
	ui.Out = &out
	t.Cleanup(func() { ui.Out = prev })

	mgr, err := checkpoint.NewManager(t.TempDir(), "1001")
	require.NoError(t, err)

	describeCheckpoint(mgr)
	assert.Contains(t, out.String(), "none found")

	cp, err := mgr.Create("1001", "any to any|both|0")
	require.NoError(t, err)
	require.NoError(t, mgr.RecordCreator(cp, "alice", checkpoint.CreatorEntry{}))

	out.Reset()
	describeCheckpoint(mgr)
	assert.Contains(t, out.String(), "1 creator(s) done, saved 0s ago")
}
