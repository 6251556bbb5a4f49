package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"ptscraper/pkg/config"
	"ptscraper/pkg/daterange"
	"ptscraper/pkg/extractor"
	"ptscraper/pkg/metadata"
	"ptscraper/pkg/models"
)

func testReport(urls ...string) *metadata.CreatorReport {
	scraped := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	report := metadata.NewCreatorReport(models.Creator{Name: "Alice", Vanity: "alice"}, daterange.Range{}, scraped)
	res := extractor.Result{PostID: "1"}
	for _, u := range urls {
		res.Videos = append(res.Videos, extractor.Video{Provider: extractor.ProviderVimeo, URL: u})
	}
	report.Add(metadata.NewPostRecord(models.Post{ID: "1", Title: "One"}, res), metadata.BuildOptions{})
	return report
}

func testOutput(dir string) config.OutputConfig {
	out := config.DefaultConfig().Output
	out.Directory = dir
	return out
}

func TestManagerSave(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(testOutput(tempDir))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	written, err := manager.Save(testReport("https://vimeo.com/1", "https://vimeo.com/2", "https://vimeo.com/1"))
	if err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	expectedJSON := filepath.Join(tempDir, "alice", "alice_20240309_140507.json")
	expectedTXT := filepath.Join(tempDir, "alice", "alice_20240309_140507.txt")
	if written.JSONPath != expectedJSON {
		t.Errorf("Expected JSON path %s, got %s", expectedJSON, written.JSONPath)
	}
	if written.TXTPath != expectedTXT {
		t.Errorf("Expected TXT path %s, got %s", expectedTXT, written.TXTPath)
	}

	// Verify TXT content is deduplicated in order
	content, err := os.ReadFile(expectedTXT)
	if err != nil {
		t.Fatalf("Failed to read TXT file: %v", err)
	}
	if string(content) != "https://vimeo.com/1\nhttps://vimeo.com/2\n" {
		t.Errorf("Unexpected TXT content: %q", content)
	}

	// Verify JSON round-trips
	loaded, err := metadata.Load(expectedJSON)
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if loaded.TotalVideoURLs != 3 {
		t.Errorf("Expected 3 video URLs, got %d", loaded.TotalVideoURLs)
	}

	// No temporary files left behind
	entries, _ := os.ReadDir(filepath.Join(tempDir, "alice"))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}

	if len(manager.WrittenFiles()) != 2 {
		t.Errorf("Expected 2 written files, got %d", len(manager.WrittenFiles()))
	}
}

func TestManagerFormats(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
		wantTXT  bool
	}{
		{config.FormatJSON, true, false},
		{config.FormatTXT, false, true},
		{config.FormatBoth, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := testOutput(t.TempDir())
			out.Format = tt.format
			manager, err := NewManager(out)
			if err != nil {
				t.Fatalf("Failed to create manager: %v", err)
			}

			written, err := manager.Save(testReport("https://vimeo.com/1"))
			if err != nil {
				t.Fatalf("Failed to save report: %v", err)
			}
			if (written.JSONPath != "") != tt.wantJSON {
				t.Errorf("JSON written = %v, want %v", written.JSONPath != "", tt.wantJSON)
			}
			if (written.TXTPath != "") != tt.wantTXT {
				t.Errorf("TXT written = %v, want %v", written.TXTPath != "", tt.wantTXT)
			}
		})
	}
}

func TestManagerSkipsReportsWithoutVideos(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(testOutput(tempDir))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	written, err := manager.Save(testReport())
	if err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}
	if !written.Skipped || len(written.Paths()) != 0 {
		t.Errorf("Expected export to be skipped, got %+v", written)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "alice")); !os.IsNotExist(err) {
		t.Error("Expected no creator directory to be created")
	}

	out := testOutput(tempDir)
	out.SkipExportIfNoVideos = false
	manager, _ = NewManager(out)
	written, err = manager.Save(testReport())
	if err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}
	if written.Skipped || len(written.Paths()) != 2 {
		t.Errorf("Expected both files to be written, got %+v", written)
	}
}

func TestManagerFlatLayoutAndCompactJSON(t *testing.T) {
	tempDir := t.TempDir()
	out := testOutput(tempDir)
	out.OrganizeByCreator = false
	out.PrettyJSON = false
	out.DedupeRawURLs = false
	manager, err := NewManager(out)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	written, err := manager.Save(testReport("https://vimeo.com/1", "https://vimeo.com/1"))
	if err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}
	if filepath.Dir(written.JSONPath) != tempDir {
		t.Errorf("Expected file directly in %s, got %s", tempDir, written.JSONPath)
	}

	data, _ := os.ReadFile(written.JSONPath)
	if strings.Count(string(data), "\n") != 1 {
		t.Error("Expected compact JSON on a single line")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	txt, _ := os.ReadFile(written.TXTPath)
	if string(txt) != "https://vimeo.com/1\nhttps://vimeo.com/1\n" {
		t.Errorf("Expected duplicates to be kept, got %q", txt)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Dedupe() = %v", got)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"alice":   "alice",
		"a/b":     "a_b",
		"..":      "creator",
		"  bob  ": "bob",
		"":        "creator",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
