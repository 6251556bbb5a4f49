package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by OutputConfig.Format
const (
	FormatJSON = "json"
	FormatTXT  = "txt"
	FormatBoth = "both"
)

// Date filter prompt policies accepted by InteractiveConfig.DateFilter
const (
	DateFilterAsk    = "ask"
	DateFilterAlways = "always"
	DateFilterNever  = "never"
)

// Config holds all configuration options for the Patreon scraper
type Config struct {
	Patreon     PatreonConfig     `yaml:"patreon" json:"patreon"`
	Scrape      ScrapeConfig      `yaml:"scrape" json:"scrape"`
	Extraction  ExtractionConfig  `yaml:"extraction" json:"extraction"`
	Output      OutputConfig      `yaml:"output" json:"output"`
	Interactive InteractiveConfig `yaml:"interactive" json:"interactive"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	State       StateConfig       `yaml:"state" json:"state"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// PatreonConfig holds platform endpoints, headers and cookie locations
type PatreonConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	CookiesDir     string `yaml:"cookies_dir" json:"cookies_dir"`
	CookiesFile    string `yaml:"cookies_file" json:"cookies_file"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string `yaml:"accept_language" json:"accept_language"`
	APIVersion     string `yaml:"api_version" json:"api_version"`
	IncludeDrafts  bool   `yaml:"include_drafts" json:"include_drafts"`
	SortOrder      string `yaml:"sort_order" json:"sort_order"`
}

// ScrapeConfig holds per-creator scraping behaviour
type ScrapeConfig struct {
	MaxPostsPerCreator int           `yaml:"max_posts_per_creator" json:"max_posts_per_creator"`
	RequestTimeout     time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries         int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RetryBackoff       string        `yaml:"retry_backoff" json:"retry_backoff"` // constant or exponential
	EnrichVideoEmbeds  bool          `yaml:"enrich_video_embeds" json:"enrich_video_embeds"`
	CheckCompatibility bool          `yaml:"check_compatibility" json:"check_compatibility"`
}

// ExtractionConfig controls video URL matching
type ExtractionConfig struct {
	CleanURLs bool     `yaml:"clean_urls" json:"clean_urls"`
	Providers []string `yaml:"providers" json:"providers"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory                 string `yaml:"directory" json:"directory"`
	OrganizeByCreator         bool   `yaml:"organize_by_creator" json:"organize_by_creator"`
	Format                    string `yaml:"format" json:"format"`
	DedupeRawURLs             bool   `yaml:"dedupe_raw_urls" json:"dedupe_raw_urls"`
	TimestampFormat           string `yaml:"timestamp_format" json:"timestamp_format"`
	IncludePostsWithoutVideos bool   `yaml:"include_posts_without_videos" json:"include_posts_without_videos"`
	SkipExportIfNoVideos      bool   `yaml:"skip_export_if_no_videos" json:"skip_export_if_no_videos"`
	SortByDate                bool   `yaml:"sort_by_date" json:"sort_by_date"`
	SortDescending            bool   `yaml:"sort_descending" json:"sort_descending"`
	PrettyJSON                bool   `yaml:"pretty_json" json:"pretty_json"`
}

// InteractiveConfig holds prompt behaviour for terminal sessions
type InteractiveConfig struct {
	AutoMode         bool     `yaml:"auto_mode" json:"auto_mode"`
	SelectedCreators []string `yaml:"selected_creators" json:"selected_creators"`
	DateFilter       string   `yaml:"date_filter" json:"date_filter"`
	StartDate        string   `yaml:"start_date" json:"start_date"`
	EndDate          string   `yaml:"end_date" json:"end_date"`
	AutoConfirm      bool     `yaml:"auto_confirm" json:"auto_confirm"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	RequestDelay      time.Duration `yaml:"request_delay" json:"request_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// CacheConfig holds the API response cache configuration
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Path    string        `yaml:"path" json:"path"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// StateConfig holds where run checkpoints and stored sessions live
type StateConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Patreon: PatreonConfig{
			BaseURL:        "https://www.patreon.com",
			CookiesDir:     "cookies",
			CookiesFile:    "cookies.json",
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLanguage: "en-GB,en;q=0.9",
			APIVersion:     "1.0",
			IncludeDrafts:  false,
			SortOrder:      "-published_at",
		},
		Scrape: ScrapeConfig{
			MaxPostsPerCreator: 0, // 0 means no limit
			RequestTimeout:     30 * time.Second,
			MaxRetries:         1,
			RetryDelay:         2 * time.Second,
			RetryBackoff:       "constant",
			EnrichVideoEmbeds:  true,
			CheckCompatibility: true,
		},
		Extraction: ExtractionConfig{
			CleanURLs: true,
			Providers: []string{"vimeo", "youtube"},
		},
		Output: OutputConfig{
			Directory:                 "output",
			OrganizeByCreator:         true,
			Format:                    FormatBoth,
			DedupeRawURLs:             true,
			TimestampFormat:           "20060102_150405",
			IncludePostsWithoutVideos: true,
			SkipExportIfNoVideos:      true,
			SortByDate:                true,
			SortDescending:            true,
			PrettyJSON:                true,
		},
		Interactive: InteractiveConfig{
			AutoMode:    false,
			DateFilter:  DateFilterAsk,
			AutoConfirm: false,
		},
		RateLimit: RateLimitConfig{
			RequestDelay:      500 * time.Millisecond,
			RequestsPerMinute: 60,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    filepath.Join(".cache", "responses.db"),
			TTL:     time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setString("PTSCRAPER_BASE_URL", &c.Patreon.BaseURL)
	setString("PTSCRAPER_COOKIES_DIR", &c.Patreon.CookiesDir)
	setString("PTSCRAPER_COOKIES_FILE", &c.Patreon.CookiesFile)
	setString("PTSCRAPER_USER_AGENT", &c.Patreon.UserAgent)

	setInt("PTSCRAPER_MAX_POSTS", &c.Scrape.MaxPostsPerCreator)
	setInt("PTSCRAPER_MAX_RETRIES", &c.Scrape.MaxRetries)
	setString("PTSCRAPER_RETRY_BACKOFF", &c.Scrape.RetryBackoff)
	setDuration("PTSCRAPER_REQUEST_TIMEOUT", &c.Scrape.RequestTimeout)
	setBool("PTSCRAPER_ENRICH_VIDEO_EMBEDS", &c.Scrape.EnrichVideoEmbeds)

	setDuration("PTSCRAPER_REQUEST_DELAY", &c.RateLimit.RequestDelay)
	setInt("PTSCRAPER_REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	setString("PTSCRAPER_OUTPUT_DIR", &c.Output.Directory)
	setString("PTSCRAPER_OUTPUT_FORMAT", &c.Output.Format)

	setBool("PTSCRAPER_AUTO_MODE", &c.Interactive.AutoMode)
	setBool("PTSCRAPER_AUTO_CONFIRM", &c.Interactive.AutoConfirm)
	if v := os.Getenv("PTSCRAPER_CREATORS"); v != "" {
		c.Interactive.SelectedCreators = splitList(v)
	}

	setBool("PTSCRAPER_CACHE_ENABLED", &c.Cache.Enabled)
	setString("PTSCRAPER_CACHE_PATH", &c.Cache.Path)
	setString("PTSCRAPER_STATE_DIR", &c.State.Directory)

	setString("PTSCRAPER_LOG_LEVEL", &c.Logging.Level)
	setString("PTSCRAPER_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".ptscraper.yaml",
		".ptscraper.yml",
		filepath.Join(home, ".config", "ptscraper", "config.yaml"),
		filepath.Join(home, ".config", "ptscraper", "config.yml"),
		filepath.Join(home, ".ptscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Patreon.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base URL %q", c.Patreon.BaseURL))
	}
	if c.Patreon.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Patreon.CookiesFile == "" {
		errs = append(errs, errors.New("cookies file name is required"))
	}

	if c.Scrape.MaxPostsPerCreator < 0 {
		errs = append(errs, errors.New("max posts per creator cannot be negative"))
	}
	if c.Scrape.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Scrape.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	switch strings.ToLower(c.Scrape.RetryBackoff) {
	case "", "constant", "exponential":
	default:
		errs = append(errs, fmt.Errorf("retry backoff must be constant or exponential, got %q", c.Scrape.RetryBackoff))
	}

	if c.RateLimit.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validProviders := map[string]bool{"vimeo": true, "youtube": true}
	for _, p := range c.Extraction.Providers {
		if !validProviders[strings.ToLower(p)] {
			errs = append(errs, fmt.Errorf("unsupported video provider %q", p))
		}
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatJSON, FormatTXT, FormatBoth:
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}
	if c.Output.TimestampFormat == "" {
		errs = append(errs, errors.New("timestamp format is required"))
	}

	switch strings.ToLower(c.Interactive.DateFilter) {
	case DateFilterAsk, DateFilterAlways, DateFilterNever:
	default:
		errs = append(errs, fmt.Errorf("invalid date filter policy %q", c.Interactive.DateFilter))
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache path is required when caching is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// CookiePath returns the preferred cookie export location
func (c *Config) CookiePath() string {
	return filepath.Join(c.Patreon.CookiesDir, c.Patreon.CookiesFile)
}

// WantJSON reports whether JSON reports should be written
func (o OutputConfig) WantJSON() bool {
	f := strings.ToLower(o.Format)
	return f == FormatJSON || f == FormatBoth
}

// WantTXT reports whether raw URL lists should be written
func (o OutputConfig) WantTXT() bool {
	f := strings.ToLower(o.Format)
	return f == FormatTXT || f == FormatBoth
}

// StateDir returns the directory for checkpoints and stored sessions,
// falling back to the XDG data directory
func (c *Config) StateDir() string {
	if c.State.Directory != "" {
		return c.State.Directory
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ptscraper")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "ptscraper")
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v, ok := flags["dedupe-txt"].(bool); ok {
		c.Output.DedupeRawURLs = v
	}
	if v, ok := flags["max-posts"].(int); ok && v >= 0 {
		c.Scrape.MaxPostsPerCreator = v
	}
	if v, ok := flags["request-delay"].(time.Duration); ok {
		c.RateLimit.RequestDelay = v
	}
	if v, ok := flags["auto"].(bool); ok {
		c.Interactive.AutoMode = v
	}
	if v, ok := flags["yes"].(bool); ok {
		c.Interactive.AutoConfirm = v
	}
	if v, ok := flags["creator"].([]string); ok && len(v) > 0 {
		c.Interactive.SelectedCreators = v
	}
	if v, ok := flags["start"].(string); ok && v != "" {
		c.Interactive.StartDate = v
	}
	if v, ok := flags["end"].(string); ok && v != "" {
		c.Interactive.EndDate = v
	}
	if v, ok := flags["cache"].(bool); ok {
		c.Cache.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ptscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
