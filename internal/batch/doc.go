// Package batch discovers unprocessed menu items and runs them through the
// pipeline one at a time, writing an immutable report per run.
//
// A run lock in the state directory keeps two batches from sharing one build
// tree. Each run is also recorded in the history database when one is wired.
package batch
