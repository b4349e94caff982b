// Package config loads, normalizes, and validates sndx configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CHROMIUM_PATH. The Config type centralizes every knob the extract pipeline
// needs: output and profile directories, portal endpoints, browser launch
// flags, encoder settings, and logging.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
