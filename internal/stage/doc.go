// Package stage defines the contract between the pipeline orchestrator and the
// individual generation stages, plus the per-stage status vocabulary.
package stage
