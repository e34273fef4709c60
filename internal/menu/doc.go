// Package menu loads the declarative menu definition (menu/*.yaml) into an
// immutable Catalog and locates the source photos for each item.
//
// Each YAML document names a course and a list of sections; each section
// lists items keyed by slug. Missing names and descriptions are derived from
// the slug so that an item can be processed before its copy is written.
package menu
