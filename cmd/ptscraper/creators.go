package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ptscraper/pkg/ui"
)

var skipCompatCheck bool

// creatorsCmd represents the creators command
var creatorsCmd = &cobra.Command{
	Use:   "creators",
	Short: "List the creators you support",
	Long: `List the creators you support on Patreon.

Creators that use the Creator Website layout host their videos on Patreon
itself and are marked as not supported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}

		session, _, err := resolveSession(cfg, sessionSource{
			cookieFile:  cookieFile,
			browser:     fromBrowser,
			accountName: accountName,
		})
		if err != nil {
			return err
		}
		client, cleanup, err := newClient(cfg, session)
		if err != nil {
			return err
		}
		defer cleanup()

		if _, err := client.Authenticate(ctx); err != nil {
			return err
		}
		creators, err := client.GetCreators(ctx, cfg.Scrape.CheckCompatibility && !skipCompatCheck)
		if err != nil {
			return err
		}
		if len(creators) == 0 {
			ui.PrintWarning("No subscribed creators found")
			return nil
		}

		ui.PrintCreatorList(creators)
		fmt.Fprintf(ui.Out, "\n%d creator(s)\n", len(creators))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(creatorsCmd)

	creatorsCmd.Flags().BoolVar(&skipCompatCheck, "no-check", false, "skip the Creator Website layout check")
	creatorsCmd.Flags().StringVar(&cookieFile, "cookies", "", "cookie export file to use")
	creatorsCmd.Flags().StringVar(&fromBrowser, "from-browser", "", "read cookies from a local browser")
	creatorsCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a saved session")
}
