// Package config loads, normalizes, and validates keyframer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FFMPEG and FFPROBE. The Config type centralizes every knob the CLI and
// pipeline need so binary locations and directory names are resolved once.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
