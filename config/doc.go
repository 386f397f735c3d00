// Package config loads opkit settings from TOML files.
//
// A file only needs the settings it changes; everything else keeps the
// defaults from Default.
//
//	[queue]
//	concurrency = 4
//	rate_limit = 50.0
//	burst = 2
//
//	[retry]
//	max_attempts = 5
//	initial_backoff = "250ms"
//	max_backoff = "10s"
//	multiplier = 1.5
//
//	[schedule]
//	seconds = true
//
// Load validates the merged result and reports the first offending
// field by its TOML name.
package config
