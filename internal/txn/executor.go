package txn

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/link"
	"github.com/mamba-org/mamba-sub007/internal/pool"
	"github.com/mamba-org/mamba-sub007/internal/solver"
	"github.com/mamba-org/mamba-sub007/internal/unlink"
)

// PackageSource resolves a package to its already-extracted source
// directory. Archive fetch and extraction are external collaborators
// (spec.md §1, "package-archive ... extraction (interface only)");
// Executor only ever needs the result of that extraction.
type PackageSource interface {
	ExtractedDir(pkg link.PackageSpec) (string, error)
}

// Executor drives one Transaction against a prefix (spec.md Component I,
// §4 row I: "Drive a whole transaction: pre-checks, ordering, invoking G
// then F per step, rollback on failure"). It serializes the whole run
// behind a PrefixLock and applies Unlink-then-Link per step in order.
// Grounded on the teacher's (golang/dep) txn_writer.go SafeWriter.Write:
// move-aside before overwrite, restore on failure — generalized here
// from "one vendored file" to "one transaction of many link/unlink
// steps".
type Executor struct {
	prefix      string
	linker      *link.Linker
	unlinker    *unlink.Unlinker
	source      PackageSource
	lockTimeout time.Duration
	log         *logrus.Entry
}

// NewExecutor returns an Executor bound to prefix. A nil log falls back
// to the standard logger. lockTimeout of zero blocks indefinitely for
// the prefix lock.
func NewExecutor(prefix string, linker *link.Linker, unlinker *unlink.Unlinker, source PackageSource, lockTimeout time.Duration, log *logrus.Entry) *Executor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		prefix:      prefix,
		linker:      linker,
		unlinker:    unlinker,
		source:      source,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// completedStep records what actually happened for one Transaction step,
// enough to invert it during rollback.
type completedStep struct {
	removed   *link.PackageSpec
	installed *link.PackageSpec
}

// Run applies t's steps in order, holding the prefix lock for the whole
// duration (spec.md §5 "Shared resources": the prefix "is ... not
// shared with other concurrent transactions against the same prefix").
// requestedSpecs maps an install step's package name to the user-facing
// spec string that requested it (spec.md §4.6 Inputs); a missing entry
// records the empty string.
//
// A *link.LinkFailure aborts the transaction and rolls back every step
// already completed, in reverse order (spec.md §7). Any other error —
// notably *link.PostLinkScriptFailure — is fatal to the run but does not
// roll back the step that produced it: its conda-meta record is already
// committed, so an operator can unlink it by hand (spec.md §7).
func (e *Executor) Run(ctx context.Context, p *pool.Pool, t *solver.Transaction, requestedSpecs map[string]string) error {
	lock := NewPrefixLock(e.prefix)
	if err := lock.Lock(e.lockTimeout); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.log.WithError(err).Warn("txn: releasing prefix lock")
		}
	}()

	var done []completedStep
	for i, step := range t.Steps {
		// Cancellation is only observed between steps, never mid-file-copy
		// (spec.md §5 "Cancellation"); a cancelled context rolls back
		// exactly like a LinkFailure would.
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.log.WithField("step", i).Warn("txn: context cancelled, rolling back completed steps")
			e.rollback(ctx, done)
			return ctxErr
		}

		cs, err := e.applyStep(ctx, p, step, requestedSpecs)
		if err == nil {
			done = append(done, cs)
			continue
		}

		if lf, ok := err.(*link.LinkFailure); ok {
			e.log.WithError(lf).WithField("step", i).Error("txn: link failed, rolling back completed steps")
			e.rollback(ctx, done)
			return lf
		}

		e.log.WithError(err).WithField("step", i).Error("txn: step failed, stopping without rollback")
		if cs.removed != nil || cs.installed != nil {
			done = append(done, cs) // record so a later caller can still reason about partial state
		}
		return err
	}
	return nil
}

// applyStep runs Unlink (if Remove is set) then Link (if Install is
// set) for one step, per spec.md §5's ordering guarantee: "removes
// happen before installs for the same name slot".
func (e *Executor) applyStep(ctx context.Context, p *pool.Pool, step solver.Step, requestedSpecs map[string]string) (completedStep, error) {
	var cs completedStep

	if step.Remove != pool.InvalidSolvableId {
		spec := link.SpecFromSolvable(p, step.Remove)
		if err := e.unlinker.Unlink(e.prefix, spec); err != nil {
			return cs, errors.Wrapf(err, "txn: unlinking %s", spec.Name)
		}
		cs.removed = &spec
	}

	if step.Install != pool.InvalidSolvableId {
		spec := link.SpecFromSolvable(p, step.Install)
		srcDir, err := e.source.ExtractedDir(spec)
		if err != nil {
			return cs, errors.Wrapf(err, "txn: resolving source for %s", spec.Name)
		}
		if _, err := e.linker.Link(ctx, srcDir, e.prefix, spec, requestedSpecs[spec.Name]); err != nil {
			cs.installed = &spec // the conda-meta record may already be committed (PostLinkScriptFailure)
			return cs, err
		}
		cs.installed = &spec
	}

	return cs, nil
}

// rollback inverts every completed step in reverse order: an install is
// undone with Unlink, a remove is undone by re-resolving its source and
// re-Linking it. The failure that triggered rollback is what Run
// returns; rollback errors are only logged, matching the teacher's
// best-effort restore in txn_writer.go.
func (e *Executor) rollback(ctx context.Context, done []completedStep) {
	for i := len(done) - 1; i >= 0; i-- {
		cs := done[i]
		if cs.installed != nil {
			if err := e.unlinker.Unlink(e.prefix, *cs.installed); err != nil {
				e.log.WithError(err).WithField("package", cs.installed.Name).Error("txn: rollback unlink failed")
			}
		}
		if cs.removed != nil {
			srcDir, err := e.source.ExtractedDir(*cs.removed)
			if err != nil {
				e.log.WithError(err).WithField("package", cs.removed.Name).Error("txn: rollback re-link source unavailable")
				continue
			}
			if _, err := e.linker.Link(ctx, srcDir, e.prefix, *cs.removed, ""); err != nil {
				e.log.WithError(err).WithField("package", cs.removed.Name).Error("txn: rollback re-link failed")
			}
		}
	}
}
