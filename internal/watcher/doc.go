// Package watcher triggers pipeline runs from file-system activity. It
// observes the snapshot data directory and coalesces bursts of file events
// into a single run via a trailing-edge debounce: the run fires only after
// the directory has been quiet for the configured interval.
package watcher
