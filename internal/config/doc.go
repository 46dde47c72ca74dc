// Package config loads, normalizes, and validates video-editor configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the VIDEO_EDITOR_BIND environment
// override. The Config type centralizes every knob the primary, its workers,
// and the CLI need, so storage, data, and log directories are resolved in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
