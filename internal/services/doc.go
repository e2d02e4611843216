// Package services defines shared utilities consumed by the extraction
// workflow and its supporting packages.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper, and Classify which maps a
//     failure to the configuration / parse / degraded / external taxonomy the
//     CLI and history store report.
//
// Use these helpers when wiring new stage logic so error reporting stays
// uniform across the pipeline.
package services
