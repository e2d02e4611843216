// Package config loads, normalizes, and validates slidescribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SLIDESCRIBE_LOG_LEVEL
// environment override. The Config type centralizes every knob the extraction
// workflow and CLI need: detection tuning, output naming, tool binaries and
// logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum spellings, and clear validation errors.
package config
