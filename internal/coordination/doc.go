// Package coordination implements the git operation coordinator: a
// single-writer gate around caller-supplied git operations combined with
// stale artifact reclamation, persisted run history, and failure-triggered
// cooldown. At most one execution may be inside the exclusive section at a
// time, system-wide; callers that cannot enter receive a skipped outcome and
// are expected to retry on their own schedule.
package coordination
