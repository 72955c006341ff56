// Package config handles loading and parsing the Traverse configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/traverse/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. TRAVERSE_* environment variables override whatever was loaded
//
// # TOML Format
//
//	api_url = "https://api.traverse.dev"
//	username = "grace"
//	token = "..."
//	cache_dir = "~/.local/share/traverse/cache"
//	cache_ttl = "2h"
//	persist_failures = "degrade"   # or "fail"
//	poll_interval = "5m"
//	reminder_hour = 18
//	log_level = "info"
//	log_file = "~/.local/state/traverse/traverse.log"
//
// Every field is optional. Tilde expansion is performed on paths.
//
// Load does not validate; callers run Validate once overrides are applied.
// Missing config files are not an error so a fresh install works with only
// TRAVERSE_USERNAME set.
package config
