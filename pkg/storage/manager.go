package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ptscraper/pkg/config"
	"ptscraper/pkg/metadata"
)

// Written lists the files produced for one report
type Written struct {
	JSONPath string
	TXTPath  string
	// Skipped is set when nothing was written because the report has no videos
	Skipped bool
}

// Paths returns the non-empty paths
func (w Written) Paths() []string {
	var out []string
	for _, p := range []string{w.JSONPath, w.TXTPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Manager writes creator reports and raw URL lists under the output directory
type Manager struct {
	outputDir string
	cfg       config.OutputConfig
	written   []string
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(cfg config.OutputConfig) (*Manager, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = config.DefaultConfig().Output.TimestampFormat
	}

	return &Manager{
		outputDir: cfg.Directory,
		cfg:       cfg,
	}, nil
}

// Save writes the report in every configured format. Reports without a
// single video URL are skipped when SkipExportIfNoVideos is set.
func (m *Manager) Save(report *metadata.CreatorReport) (Written, error) {
	var w Written
	if m.cfg.SkipExportIfNoVideos && !report.HasVideos() {
		w.Skipped = true
		return w, nil
	}

	if m.cfg.WantJSON() {
		path, err := m.WriteJSON(report)
		if err != nil {
			return w, err
		}
		w.JSONPath = path
	}
	if m.cfg.WantTXT() {
		path, err := m.WriteTXT(report)
		if err != nil {
			return w, err
		}
		w.TXTPath = path
	}
	return w, nil
}

// WriteJSON writes the full report and returns its path
func (m *Manager) WriteJSON(report *metadata.CreatorReport) (string, error) {
	var (
		data []byte
		err  error
	)
	if m.cfg.PrettyJSON {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	path, err := m.pathFor(report, "json")
	if err != nil {
		return "", err
	}
	if err := m.writeFile(path, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTXT writes one video URL per line in post order and returns the path
func (m *Manager) WriteTXT(report *metadata.CreatorReport) (string, error) {
	urls := report.AllVideoURLs()
	if m.cfg.DedupeRawURLs {
		urls = Dedupe(urls)
	}

	var buf bytes.Buffer
	for _, u := range urls {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}

	path, err := m.pathFor(report, "txt")
	if err != nil {
		return "", err
	}
	if err := m.writeFile(path, &buf); err != nil {
		return "", err
	}
	return path, nil
}

// Dedupe drops repeated entries, keeping the first occurrence
func Dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// CreatorDir returns the directory a creator's files go to
func (m *Manager) CreatorDir(vanity string) string {
	if m.cfg.OrganizeByCreator {
		return filepath.Join(m.outputDir, safeName(vanity))
	}
	return m.outputDir
}

func (m *Manager) pathFor(report *metadata.CreatorReport, ext string) (string, error) {
	dir := m.CreatorDir(report.CreatorVanity)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create creator directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.%s", safeName(report.CreatorVanity), report.ScrapeDate.Format(m.cfg.TimestampFormat), ext)
	return filepath.Join(dir, name), nil
}

// writeFile writes through a temporary file and renames it into place
func (m *Manager) writeFile(filename string, r io.Reader) error {
	// Create temporary file first
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	// Copy data
	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile) // Clean up temp file
		return fmt.Errorf("failed to write %s: %w", filepath.Base(filename), err)
	}

	if closeErr != nil {
		os.Remove(tempFile) // Clean up temp file
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile) // Clean up temp file
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.written = append(m.written, filename)
	m.mu.Unlock()

	return nil
}

// safeName keeps a vanity usable as a single path element
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "creator"
	}
	return s
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// WrittenFiles returns every file written so far, in order
func (m *Manager) WrittenFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}
