package link

import "github.com/pkg/errors"

// LinkFailure wraps a filesystem error encountered during materialization
// (spec.md §7). The Executor (internal/txn) catches it and drives
// rollback.
type LinkFailure struct {
	Path string
	Err  error
}

func (e *LinkFailure) Error() string {
	return errors.Wrapf(e.Err, "link: failed to materialize %s", e.Path).Error()
}
func (e *LinkFailure) Unwrap() error { return e.Err }

// PostLinkScriptFailure is fatal by default (spec.md §7): the script's
// stderr is surfaced, but the conda-meta file is still written before
// this is returned so an operator can diagnose and unlink.
type PostLinkScriptFailure struct {
	Package string
	Stderr  string
	Err     error
}

func (e *PostLinkScriptFailure) Error() string {
	return errors.Wrapf(e.Err, "link: post-link script for %s failed: %s", e.Package, e.Stderr).Error()
}
func (e *PostLinkScriptFailure) Unwrap() error { return e.Err }

// PreLinkScriptError is returned when the extracted package carries a
// pre-link script; spec.md §4.6 requires these be rejected outright.
type PreLinkScriptError struct {
	Package string
}

func (e *PreLinkScriptError) Error() string {
	return "link: " + e.Package + " carries a pre-link script, which is rejected outright"
}
