package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ptscraper/pkg/cache"
	"ptscraper/pkg/ui"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the API response cache",
}

// purgeCmd represents the cache purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfg.Cache.Path); os.IsNotExist(err) {
			ui.PrintInfo("No cache", cfg.Cache.Path)
			return nil
		}

		store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge(cmd.Context())
		if err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d expired cache entries from %s", n, cfg.Cache.Path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(purgeCmd)
}
