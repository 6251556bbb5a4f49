// Package scraper provides the core functionality for collecting video URLs
// from Patreon creators.
//
// The scraper package orchestrates a run, coordinating between the Patreon
// client, the pagination engine, the video extractor and the output writers.
//
// Architecture:
//
// The Scraper struct is the main component that:
//   - Resolves a creator's campaign and walks its posts one page at a time
//   - Fetches full post details for video embeds the listing left out
//   - Extracts Vimeo and YouTube links from embeds and post bodies
//   - Builds the per-creator report and writes it as JSON and/or TXT
//   - Records finished creators in a run checkpoint for --resume
//
// Usage:
//
//	client := patreon.NewClient(session, cfg.Patreon)
//	if _, err := client.Authenticate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.New(cfg, client)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcomes, err := s.Run(ctx, creators, scraper.Options{Range: rng})
//	if err != nil {
//	    os.Exit(errors.ExitCode(err))
//	}
//
// Failure handling:
//
// A rejected session, a repeated pagination cursor or a request that still
// fails after its retry stops the whole run. Creators finished earlier keep
// their files. Creators that use the Creator Website layout are skipped.
package scraper
