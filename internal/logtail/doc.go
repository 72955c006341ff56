// Package logtail reads the tail of the Traverse log file.
//
// Read extracts the last N lines of a file with a ring buffer, so memory use
// is O(N) regardless of file size. Tail decodes those lines as zap JSON
// entries and filters them by level; Entry.Format renders one entry as
//
//	15:04:05 INFO  refresh committed batch=6f1c… elapsed=412ms friends=3
//
// Lines that are not JSON (panics, stray writes) are passed through as Raw.
// A missing log file reads as empty.
package logtail
