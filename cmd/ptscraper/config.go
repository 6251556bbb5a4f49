package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ptscraper/pkg/auth"
	"ptscraper/pkg/config"
	"ptscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Patreon Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (PTSCRAPER_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.ptscraper.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration that a scrape would use, merged from all sources.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Output and state directories can be created
  - A cookie export or saved session is available`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

const exampleConfig = `# Patreon Scraper Configuration File
#
# Every option can also be set with an environment variable prefixed with
# PTSCRAPER_, for example PTSCRAPER_OUTPUT_DIR or PTSCRAPER_LOG_LEVEL.

patreon:
  base_url: "https://www.patreon.com"
  # Cookie export location. When the file is missing and the directory holds
  # exactly one .json file, that file is used.
  cookies_dir: "cookies"
  cookies_file: "cookies.json"
  # Send the user agent of the browser the cookies came from
  user_agent: ""
  accept_language: "en-GB,en;q=0.9"

scrape:
  # 0 means no limit
  max_posts_per_creator: 0
  request_timeout: 30s
  # Retries after a 429, 5xx or network failure
  max_retries: 1
  retry_delay: 2s
  # constant waits retry_delay every time; exponential doubles it up to 30s
  retry_backoff: "constant"
  # Fetch post details when the listing carries a video embed without a URL
  enrich_video_embeds: true
  # Mark creators using the Creator Website layout as not supported
  check_compatibility: true

extraction:
  # Strip tracking parameters from matched URLs
  clean_urls: true
  providers: ["vimeo", "youtube"]

output:
  directory: "output"
  organize_by_creator: true
  # json, txt or both
  format: "both"
  dedupe_raw_urls: true
  timestamp_format: "20060102_150405"
  include_posts_without_videos: true
  skip_export_if_no_videos: true
  sort_by_date: true
  sort_descending: true
  pretty_json: true

interactive:
  auto_mode: false
  auto_confirm: false
  # ask, always or never
  date_filter: "ask"
  selected_creators: []
  start_date: ""
  end_date: ""

rate_limit:
  request_delay: 500ms
  requests_per_minute: 60
  burst_size: 1

cache:
  enabled: false
  path: ".cache/responses.db"
  ttl: 1h

state:
  # Checkpoints and saved sessions; defaults to ~/.local/share/ptscraper
  directory: ""

logging:
  # debug, info, warn, error
  level: "info"
  # Log to this file instead of the console
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".ptscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Export your Patreon cookies (see 'ptscraper auth --help')")
	fmt.Fprintln(ui.Out, "2. Run 'ptscraper config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "3. Start with 'ptscraper scrape'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (PTSCRAPER_*)")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "3. Configuration file: (searched in standard locations)")
	}
	fmt.Fprintln(ui.Out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	problems, warnings := checkEnvironment(cfg)

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(ui.Out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration is not usable")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Out, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Output: %s in %s\n", ui.FormatSummary(cfg.Output), cfg.Output.Directory)
	fmt.Fprintf(ui.Out, "  Request delay: %s, %d requests/minute\n", cfg.RateLimit.RequestDelay, cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(ui.Out, "  Max retries: %d\n", cfg.Scrape.MaxRetries)
	fmt.Fprintf(ui.Out, "  State directory: %s\n", cfg.StateDir())
	fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkEnvironment checks what Validate cannot: directories can be created
// and some session is available
func checkEnvironment(cfg *config.Config) (problems, warnings []string) {
	dirs := map[string]string{
		"output directory": cfg.Output.Directory,
		"state directory":  cfg.StateDir(),
	}
	if cfg.Logging.File != "" {
		dirs["log directory"] = filepath.Dir(cfg.Logging.File)
	}
	if cfg.Cache.Enabled {
		dirs["cache directory"] = filepath.Dir(cfg.Cache.Path)
	}
	for label, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s: %v", label, err))
		}
	}

	if _, err := auth.FindCookieFile(cfg.Patreon.CookiesDir, cfg.Patreon.CookiesFile); err != nil {
		manager, merr := auth.NewManager(cfg.StateDir())
		if merr != nil {
			warnings = append(warnings, fmt.Sprintf("no cookie export found (%v)", err))
		} else if _, rerr := manager.RetrieveDefault(); rerr != nil {
			warnings = append(warnings, fmt.Sprintf("no cookie export or saved session found (%v)", err))
		}
	}
	return problems, warnings
}
