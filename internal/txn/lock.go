// Package txn implements Components E/I: the ordered Transaction is
// driven through Unlink-then-Link per step, with a prefix advisory lock
// held for the duration and rollback on failure (spec.md §5, §4.6, §4.7).
// Grounded on the teacher's (golang/dep) txn_writer.go SafeWriter:
// move-aside/restore-on-failure discipline, generalized from "one file"
// to "one transaction of many link/unlink steps".
package txn

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
)

// deadlineContext returns a context that expires after d; used only to
// bound TryLockContext's polling loop, not propagated further.
func deadlineContext(d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	_ = cancel // the context's own timer releases resources at expiry
	return ctx
}

// LockPath is the advisory lockfile spec.md §5 names:
// <prefix>/.mamba.lock.
func LockPath(prefix string) string {
	return filepath.Join(prefix, ".mamba.lock")
}

// PrefixLock wraps github.com/theckman/go-flock for the prefix-level
// advisory lock a transaction must hold for its whole duration (spec.md
// §5): "the prefix filesystem is ... not shared with other concurrent
// transactions against the same prefix".
type PrefixLock struct {
	fl *flock.Flock
}

// NewPrefixLock returns (but does not acquire) the advisory lock for
// prefix.
func NewPrefixLock(prefix string) *PrefixLock {
	return &PrefixLock{fl: flock.NewFlock(LockPath(prefix))}
}

// Lock blocks, polling every 50ms, until the lock is acquired or timeout
// elapses. A zero timeout waits indefinitely.
func (l *PrefixLock) Lock(timeout time.Duration) error {
	if timeout <= 0 {
		return errors.Wrap(l.fl.Lock(), "txn: acquiring prefix lock")
	}
	ok, err := l.fl.TryLockContext(deadlineContext(timeout), 50*time.Millisecond)
	if err != nil {
		return errors.Wrap(err, "txn: acquiring prefix lock")
	}
	if !ok {
		return errors.Errorf("txn: timed out acquiring prefix lock after %s", timeout)
	}
	return nil
}

// Unlock releases the lock.
func (l *PrefixLock) Unlock() error {
	return errors.Wrap(l.fl.Unlock(), "txn: releasing prefix lock")
}
