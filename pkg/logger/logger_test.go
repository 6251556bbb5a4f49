package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "chatty"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("creator", "alpha").
		WithFields(map[string]interface{}{"page": 2, "cached": true}).
		Info("page fetched")

	out := buf.String()
	assert.Contains(t, out, "page fetched")
	assert.Contains(t, out, `"creator":"alpha"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"cached":true`)
	assert.Contains(t, out, `"app":"ptscraper"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("cursor loop")).Error("scrape failed")
	assert.Contains(t, buf.String(), `"error":"cursor loop"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Info("hidden")
	l.Debug("hidden too")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://example.test/api/posts", 200, 10*time.Millisecond)
	LogRequest(tl, "GET", "https://example.test/api/posts", 403, time.Millisecond)
	LogRequest(tl, "GET", "https://example.test/api/posts", 502, time.Millisecond)

	levels := []string{}
	for _, m := range tl.GetMessages() {
		levels = append(levels, m.Level)
	}
	assert.Equal(t, []string{"DEBUG", "WARN", "ERROR"}, levels)
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()

	scoped := tl.WithField("creator", "alpha").WithError(errors.New("boom"))
	scoped.WarnWithFields("skipped", map[string]interface{}{"post_id": "42"})
	LogExtractionWarning(tl, "7", "unsupported embed provider")

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, "alpha", warns[0].Fields["creator"])
	assert.Equal(t, "42", warns[0].Fields["post_id"])
	assert.EqualError(t, warns[0].Error, "boom")
	assert.Equal(t, "7", warns[1].Fields["post_id"])
	assert.True(t, tl.HasMessage("Extraction warning"))
	assert.False(t, tl.HasError())
	assert.True(t, strings.HasPrefix(tl.String(), "[WARN] skipped"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	nop := NewNopLogger()
	SetLogger(nop)
	assert.Same(t, nop, GetLogger())
	SetLogger(nil)
}
