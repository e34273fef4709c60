// Package artifacts implements the artifact store: the deterministic layout of
// images, audio, video, JSON documents, bundles, reports, and processed
// markers under the build root.
//
// The content document is the only artifact written by more than one stage.
// UpdateContent and MergeContent serialize its read-modify-write cycle with a
// per-slug file lock so fields written by one stage survive another.
package artifacts
