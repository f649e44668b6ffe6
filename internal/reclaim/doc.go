// Package reclaim removes orphaned advisory lock artifacts that external git
// processes leave behind inside a repository's metadata area when they crash
// or are killed mid-operation. Only artifacts older than a staleness
// threshold are removed; younger artifacts may belong to a live operation.
package reclaim
