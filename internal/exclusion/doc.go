// Package exclusion implements the host-local exclusive section guarding git
// operations. The section is backed by an advisory flock on a well-known file
// outside the managed repository, so it survives repository reinitialization
// and is shared across processes on the same host.
package exclusion
