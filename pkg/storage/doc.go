// Package storage writes scrape results for the Patreon scraper.
//
// The storage package handles:
//   - Creating the output directory and, optionally, one directory per creator
//   - Writing the JSON report and the raw URL list with atomic write operations
//   - Naming files as {vanity}_{timestamp}.json and {vanity}_{timestamp}.txt
//   - Skipping export for creators without a single video URL
//
// Usage:
//
//	manager, err := storage.NewManager(cfg.Output)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	written, err := manager.Save(report)
//	if err != nil {
//	    log.Printf("Failed to save report: %v", err)
//	}
//	for _, path := range written.Paths() {
//	    fmt.Println("wrote", path)
//	}
package storage
