package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"ptscraper/pkg/config"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ptscraper",
	Short: "Collect video URLs from the Patreon creators you support",
	Long: `Patreon Scraper walks the posts of the creators you support and collects
the Vimeo and YouTube video URLs embedded in them.

Features:
  - Uses your own browser session (cookie export, browser or saved session)
  - Cursor-based pagination with loop protection
  - Optional date range filter
  - JSON reports with post metadata and plain TXT URL lists
  - Paced requests with one retry on transient failures
  - Resume an interrupted multi-creator run

Running ptscraper without a subcommand is the same as 'ptscraper scrape'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			os.Setenv("NO_COLOR", "1")
		}
		if quiet {
			ui.SetQuietMode(true)
			logLevel = "error"
		}
		if verbose {
			logLevel = "debug"
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "show" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the command tree and returns the process exit status
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, ui.ErrQuit):
		return errs.ExitOK
	case errors.Is(err, context.Canceled):
		ui.PrintWarning("Interrupted")
		return errs.ExitInterrupted
	}

	ui.PrintError("Error", err)
	if errs.IsAuth(err) {
		fmt.Fprintln(os.Stderr, "\nYour Patreon session was rejected or is missing. Export fresh cookies and try again:")
		fmt.Fprintln(os.Stderr, "  ptscraper auth --help")
	}
	return errs.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.ptscraper.yaml or ~/.config/ptscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs")

	rootCmd.SetVersionTemplate(`Patreon Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the given flag overrides and sets up
// the global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.GetLogger().WithField("version", version).Debug("Patreon Scraper starting")
	return cfg, nil
}
