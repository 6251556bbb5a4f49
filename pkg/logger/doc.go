// Package logger provides structured logging for ptscraper on top of zerolog.
//
// A single Logger is built from config.LoggingConfig and installed globally
// with Initialize. Components receive a Logger explicitly and derive scoped
// loggers with WithField/WithFields:
//
//	log := logger.GetLogger().WithField("creator", "somecreator")
//	log.InfoWithFields("Scrape finished", map[string]interface{}{
//		"posts":  120,
//		"videos": 37,
//	})
//
// Console output is colourised and written to stderr. When a log file is
// configured, JSON lines are appended to it as well.
//
// Tests use NewNopLogger to discard output or NewTestLogger to assert on
// captured messages.
package logger
