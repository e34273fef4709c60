// Package preflight provides readiness checks for the directories, disk
// space, and backend credentials a pipeline run depends on.
//
// The CLI runs them through "menucast preflight", and batch/daily runs call
// RunAll first so a doomed run fails before spending API credits.
package preflight
