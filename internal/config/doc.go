// Package config loads, normalizes, and validates reelpost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the documented environment
// fallbacks (ACCESS_TOKEN, INSTAGRAM_ACCOUNT_ID, GEMINI_API_KEY,
// POST_INTERVAL_MINUTES), including values supplied through a .env file in
// the working directory. The Config type centralizes every knob the daemon
// and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
