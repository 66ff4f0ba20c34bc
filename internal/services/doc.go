// Package services defines shared utilities consumed by the pipeline stages
// and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, methods, and shot
//     indexes for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into validation, configuration, and external tool errors, and map them
//     to CLI exit codes.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
