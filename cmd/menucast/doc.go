// Package main hosts the menucast CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, sets up structured
// logging, and wires the artifact store, menu catalog, MiniMax client, and
// pipeline for the commands that need them. Single-item processing, batches,
// the daily run, QA reports, backups, and preflight checks are thin wrappers
// around the internal packages; keep new behavior in those packages and
// surface it here through commands or flags.
package main
