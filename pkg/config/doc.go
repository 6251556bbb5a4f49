// Package config loads ptscraper settings from defaults, a YAML file,
// .env files, PTSCRAPER_* environment variables and command line flags.
//
// Example:
//
//	cfg, err := config.Load("", map[string]interface{}{
//		"output":    "./exports",
//		"max-posts": 200,
//		"format":    "json",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A minimal config file:
//
//	output:
//	  directory: ./exports
//	  format: both
//	rate_limit:
//	  request_delay: 1s
//	interactive:
//	  auto_mode: true
//	  selected_creators: [somecreator]
package config
