// Package gitsync implements the coordinated stage, commit, and push
// sequence against the managed repository, including no-op detection when
// the working tree carries no changes.
package gitsync
