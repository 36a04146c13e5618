// Package config loads, normalizes, and validates replaykit configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files from ~/.config/replaykit/config.toml or
// ./replaykit.toml, and applies REPLAYKIT_* environment overrides. Obtain
// settings through Load so downstream code receives expanded paths and
// canonical decoder and log settings.
package config
