// Package ratelimit paces requests to the Patreon site. All requests of a
// run share one Pacer, built on golang.org/x/time/rate, so the configured
// delay applies between pages as well as between detail lookups.
package ratelimit
