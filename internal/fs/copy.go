// Package fs holds the small set of filesystem helpers Linker/Unlinker
// share: a hardlink/softlink/copy-fallback primitive and the
// IsRegular/IsDir probes, grounded directly on the teacher's (golang/dep)
// fs.go and its vendored github.com/termie/go-shutil copy helpers.
package fs

import (
	"os"

	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"
)

// PathType mirrors the subset of spec.md §3's path_type enum that file
// materialization itself can produce. Directory/pyc/entry-point variants
// are assigned by the Linker, not by this package.
type PathType string

const (
	PathHardlink PathType = "hardlink"
	PathSoftlink PathType = "softlink"
)

// IsRegular is true if name is a regular file (golang-dep fs.go).
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, errors.Errorf("%q is a directory, should be a file", name)
	}
	return true, nil
}

// IsDir is true if name is a directory (golang-dep fs.go).
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, errors.Errorf("%q is not a directory", name)
	}
	return true, nil
}

// LinkOrCopy materializes src at dst trying, in order, hardlink then
// (if allowSoftlink) softlink then a byte copy, per spec.md §4.6 step 4.
// A copy that succeeds is still reported as PathHardlink: conda's own
// on-disk convention records copy-fallback entries the same way it
// records true hardlinks, since from the prefix's point of view both are
// a plain regular file.
func LinkOrCopy(src, dst string, allowSoftlink, alwaysCopy, alwaysSoftlink bool) (PathType, error) {
	if !alwaysCopy && !alwaysSoftlink {
		if err := os.Link(src, dst); err == nil {
			return PathHardlink, nil
		}
	}
	if allowSoftlink && (alwaysSoftlink || !alwaysCopy) {
		if err := os.Symlink(src, dst); err == nil {
			return PathSoftlink, nil
		}
	}
	if err := shutil.CopyFile(src, dst, false); err != nil {
		return "", errors.Wrapf(err, "fs: copying %s to %s", src, dst)
	}
	return PathHardlink, nil
}

// CopySymlink reproduces a symlink entry as a symlink pointing at the same
// target, per spec.md §4.6 step 4 ("Symlink entries are reproduced as
// symlinks").
func CopySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, "fs: reading symlink target of %s", src)
	}
	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, "fs: recreating symlink %s -> %s", dst, target)
	}
	return nil
}
