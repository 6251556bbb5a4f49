package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ptscraper/pkg/checkpoint"
	"ptscraper/pkg/config"
	"ptscraper/pkg/daterange"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/models"
	"ptscraper/pkg/patreon"
	"ptscraper/pkg/scraper"
	"ptscraper/pkg/storage"
	"ptscraper/pkg/ui"
)

var (
	// Scrape command flags
	creatorNames  []string
	startDate     string
	endDate       string
	outputFormat  string
	dedupeTXT     bool
	autoMode      bool
	assumeYes     bool
	cookieFile    string
	fromBrowser   string
	accountName   string
	maxPosts      int
	outputDir     string
	resumeRun     bool
	notifications bool
	useCache      bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect video URLs from subscribed creators",
	Long: `Collect the Vimeo and YouTube URLs from the posts of the creators you support.

In a terminal you are asked which creator to scrape, whether to filter by date,
which output format to write and whether to deduplicate the TXT list. Pass
--auto (or run without a terminal) to take every answer from flags and
configuration instead.

The session is taken from, in order:
  - --cookies, --from-browser or --account when given
  - the cookie export in the cookies directory
  - the default saved session (see 'ptscraper auth')`,
	Example: `  # Interactive run
  ptscraper scrape

  # One creator, 2024 only, TXT list without duplicates
  ptscraper scrape --auto --creator somecreator --start 2024-01-01 --end 2024-12-31 --format txt --dedupe-txt

  # Every creator, cookies read from Firefox
  ptscraper scrape --auto --creator all --from-browser firefox

  # Continue a run that was interrupted
  ptscraper scrape --auto --creator all --resume`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd)

	// Running without a subcommand scrapes
	addScrapeFlags(rootCmd)
	rootCmd.RunE = runScrape
	rootCmd.Args = cobra.NoArgs
}

func addScrapeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&creatorNames, "creator", nil, "creator vanity to scrape (repeatable, or 'all')")
	f.StringVar(&startDate, "start", "", "only posts published on or after this date (YYYY-MM-DD, DD/MM/YYYY, ...)")
	f.StringVar(&endDate, "end", "", "only posts published on or before this date")
	f.StringVar(&outputFormat, "format", "", "output format: json, txt or both")
	f.BoolVar(&dedupeTXT, "dedupe-txt", false, "drop repeated URLs from the TXT export")
	f.BoolVar(&autoMode, "auto", false, "never prompt; take all choices from flags and configuration")
	f.BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation before scraping")
	f.StringVar(&cookieFile, "cookies", "", "cookie export file to use")
	f.StringVar(&fromBrowser, "from-browser", "", "read cookies from a local browser (chrome, firefox, edge, ...)")
	f.StringVarP(&accountName, "account", "a", "", "use a saved session")
	f.IntVar(&maxPosts, "max-posts", 0, "stop after this many posts per creator (0 = no limit)")
	f.StringVarP(&outputDir, "output", "o", "", "output directory")
	f.BoolVar(&resumeRun, "resume", false, "skip creators finished by an interrupted run")
	f.BoolVar(&notifications, "notify", false, "send a desktop notification when the run ends")
	f.BoolVar(&useCache, "cache", false, "cache API responses in a local SQLite database")
}

// scrapeFlags collects the flags the user actually set
func scrapeFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("format") {
		flags["format"] = outputFormat
	}
	if changed("dedupe-txt") {
		flags["dedupe-txt"] = dedupeTXT
	}
	if changed("max-posts") {
		flags["max-posts"] = maxPosts
	}
	if changed("auto") {
		flags["auto"] = autoMode
	}
	if changed("yes") {
		flags["yes"] = assumeYes
	}
	if changed("creator") {
		flags["creator"] = creatorNames
	}
	if changed("start") {
		flags["start"] = startDate
	}
	if changed("end") {
		flags["end"] = endDate
	}
	if changed("cache") {
		flags["cache"] = useCache
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(scrapeFlags(cmd))
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	interactive := !cfg.Interactive.AutoMode && ui.IsInteractive()

	session, source, err := resolveSession(cfg, sessionSource{
		cookieFile:  cookieFile,
		browser:     fromBrowser,
		accountName: accountName,
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("Session", source)

	client, cleanup, err := newClient(cfg, session)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := client.Authenticate(ctx)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Logged in as %s (%d pledge(s))", user.FullName, user.PledgeCount))

	creators, err := client.GetCreators(ctx, cfg.Scrape.CheckCompatibility)
	if err != nil {
		return err
	}
	if len(creators) == 0 && len(cfg.Interactive.SelectedCreators) == 0 {
		ui.PrintWarning("No subscribed creators found")
		return nil
	}

	var selected []models.Creator
	var rng daterange.Range
	var prompter *ui.Prompter
	if interactive {
		prompter = ui.NewPrompter(os.Stdin, ui.Out)
		selected, rng, err = askChoices(cmd, prompter, cfg, creators)
	} else {
		selected, rng, err = flagChoices(cfg, creators)
	}
	if err != nil {
		return err
	}

	ui.PrintRule("Scrape settings")
	ui.PrintInfo("Creators", creatorSummary(selected))
	ui.PrintInfo("Date range", rng.String())
	ui.PrintInfo("Output", fmt.Sprintf("%s in %s", ui.FormatSummary(cfg.Output), cfg.Output.Directory))
	if interactive && !cfg.Interactive.AutoConfirm {
		ok, err := prompter.Confirm("\nStart scraping? (y/n): ")
		if err != nil {
			return err
		}
		if !ok {
			return ui.ErrQuit
		}
	}

	store, err := storage.NewManager(cfg.Output)
	if err != nil {
		return err
	}
	cpMgr, err := checkpoint.NewManager(cfg.StateDir(), user.ID)
	if err != nil {
		return err
	}
	if resumeRun {
		describeCheckpoint(cpMgr)
	}
	progress := ui.NewProgressDisplay(strings.EqualFold(cfg.Logging.Level, "debug"))

	s, err := scraper.New(cfg, client,
		scraper.WithLogger(log),
		scraper.WithStorage(store),
		scraper.WithCheckpoint(cpMgr.WithLogger(log)),
		scraper.WithProgress(progress),
	)
	if err != nil {
		return err
	}

	outcomes, runErr := s.Run(ctx, selected, scraper.Options{
		Range:    rng,
		MaxPosts: cfg.Scrape.MaxPostsPerCreator,
		Resume:   resumeRun,
		UserID:   user.ID,
	})
	done, skipped, failed := scraper.Summary(outcomes)
	progress.Complete(failed)

	notifier := ui.NewNotifier(notifications)
	if runErr != nil {
		notifier.SendError("Scrape aborted", runErr.Error())
		if len(store.WrittenFiles()) > 0 {
			ui.PrintWarning("Files written before the failure were kept; rerun with --resume to continue")
		}
		return runErr
	}

	log.InfoWithFields("Run finished", map[string]interface{}{
		"done":    done,
		"skipped": skipped,
		"failed":  failed,
	})
	if failed > 0 {
		for _, o := range outcomes {
			if o.Outcome == scraper.OutcomeFailed {
				ui.PrintError(o.Creator.DisplayName(), o.Reason)
			}
		}
		notifier.SendError("Scrape finished with failures", fmt.Sprintf("%d of %d creator(s) failed", failed, len(outcomes)))
		return fmt.Errorf("%d creator(s) failed", failed)
	}
	notifier.SendSuccess("Scrape complete", fmt.Sprintf("%d creator(s) done, %d skipped", done, skipped))
	return nil
}

// askChoices runs the interactive prompts. Values already given as flags
// are not asked again.
func askChoices(cmd *cobra.Command, p *ui.Prompter, cfg *config.Config, creators []models.Creator) ([]models.Creator, daterange.Range, error) {
	var selected []models.Creator
	var err error
	if len(cfg.Interactive.SelectedCreators) > 0 {
		selected, err = matchCreators(creators, cfg.Interactive.SelectedCreators)
	} else {
		ui.PrintCreatorList(creators)
		selected, err = p.SelectCreators(creators)
	}
	if err != nil {
		return nil, daterange.Range{}, err
	}

	var rng daterange.Range
	if cfg.Interactive.StartDate != "" || cfg.Interactive.EndDate != "" {
		rng, err = parseRange(cfg)
	} else {
		rng, err = p.AskDateRange(cfg.Interactive.DateFilter)
	}
	if err != nil {
		return nil, daterange.Range{}, err
	}

	if !cmd.Flags().Changed("format") {
		if cfg.Output.Format, err = p.SelectFormat(); err != nil {
			return nil, daterange.Range{}, err
		}
	}
	if cfg.Output.WantTXT() && !cmd.Flags().Changed("dedupe-txt") {
		if cfg.Output.DedupeRawURLs, err = p.AskDedupe(); err != nil {
			return nil, daterange.Range{}, err
		}
	}
	return selected, rng, nil
}

// flagChoices takes every choice from configuration. Without an explicit
// creator list every subscribed creator is scraped.
func flagChoices(cfg *config.Config, creators []models.Creator) ([]models.Creator, daterange.Range, error) {
	names := cfg.Interactive.SelectedCreators
	if len(names) == 0 {
		names = []string{"all"}
	}
	selected, err := matchCreators(creators, names)
	if err != nil {
		return nil, daterange.Range{}, err
	}
	rng, err := parseRange(cfg)
	return selected, rng, err
}

func parseRange(cfg *config.Config) (daterange.Range, error) {
	rng, swapped, err := daterange.ParseRange(cfg.Interactive.StartDate, cfg.Interactive.EndDate)
	if err != nil {
		return daterange.Range{}, err
	}
	if swapped {
		ui.PrintWarning("Start date is after end date, swapping")
	}
	return rng, nil
}

// matchCreators maps names to subscribed creators. "all" selects every
// creator; a name that is not a subscription is still attempted so the
// campaign lookup can report it.
func matchCreators(creators []models.Creator, names []string) ([]models.Creator, error) {
	byVanity := make(map[string]models.Creator, len(creators))
	for _, c := range creators {
		byVanity[strings.ToLower(c.Vanity)] = c
	}

	var selected []models.Creator
	seen := make(map[string]bool)
	for _, name := range names {
		if strings.EqualFold(name, "all") {
			return creators, nil
		}
		vanity := patreon.SanitizeVanity(name)
		if vanity == "" {
			return nil, fmt.Errorf("invalid creator %q", name)
		}
		key := strings.ToLower(vanity)
		if seen[key] {
			continue
		}
		seen[key] = true

		if c, ok := byVanity[key]; ok {
			selected = append(selected, c)
			continue
		}
		ui.PrintWarning("Not in your subscriptions, trying anyway", vanity)
		selected = append(selected, models.Creator{Name: vanity, Vanity: vanity})
	}
	return selected, nil
}

func creatorSummary(creators []models.Creator) string {
	if len(creators) == 1 {
		return creators[0].DisplayName()
	}
	return fmt.Sprintf("%d creators", len(creators))
}

// describeCheckpoint tells the user what --resume will pick up
func describeCheckpoint(m *checkpoint.Manager) {
	info, err := m.Info()
	switch {
	case err != nil:
		ui.PrintWarning("Checkpoint is unreadable and will be replaced", err)
	case info == nil:
		ui.PrintInfo("Checkpoint", "none found, starting from the first creator")
	default:
		ui.PrintInfo("Checkpoint", fmt.Sprintf("%d creator(s) done, saved %s ago",
			info.Completed, info.Age().Round(time.Second)))
	}
}
