// Package pipeline turns a team or competition into a calendar.
//
// A run reads the subject's entry from a cache.Store. A fresh entry is used
// as is; a missing, stale or unreadable one triggers a fetch and parse whose
// result replaces the entry before the calendar is built. Failures of the
// fetch or the parse are returned to the caller unchanged so it can tell an
// unknown subject from a page whose layout has changed.
package pipeline
