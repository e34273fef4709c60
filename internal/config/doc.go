// Package config loads, normalizes, and validates menucast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MINIMAX_API_KEY and PIPELINE_BATCH_SIZE. Model names pass through a static
// alias table so legacy identifiers resolve to the canonical backend names.
//
// A Config is built once at process start and handed to every component
// constructor; library code never reads the environment itself.
package config
