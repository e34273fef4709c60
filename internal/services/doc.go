// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp slugs, stage names, platforms, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so stage failures can be
//     classified (missing prerequisite, validation, transient) without string
//     matching.
//   - The Outcome value used for best-effort side actions whose failure must
//     not abort the primary workflow.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
