// Package unlink implements Component G: the reverse of Linker, driven
// entirely by the conda-meta record written at link time (spec.md §4.7).
// Grounded on spec.md §4.7 directly and the teacher's (golang/dep)
// prune.go empty-directory removal idiom, generalized from "vendor dir"
// to "any prefix subtree".
package unlink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/link"
)

// Unlinker reverses a Linker's materialization using the recorded
// metadata file as the sole source of truth (spec.md §3).
type Unlinker struct {
	log *logrus.Entry
}

// New returns an Unlinker; a nil log falls back to the standard logger.
func New(log *logrus.Entry) *Unlinker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Unlinker{log: log}
}

// Unlink reads <prefix>/conda-meta/<name>-<ver>-<build>.json, removes
// every listed path, prunes any parent directory left empty (excluding
// the prefix root itself), and finally deletes the record file. Unlink
// is idempotent with respect to already-missing files: each miss is
// logged as a warning, never an error (spec.md §4.7).
func (u *Unlinker) Unlink(prefix string, pkg link.PackageSpec) error {
	metaPath := filepath.Join(prefix, "conda-meta", link.MetaFileName(pkg))
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			u.log.WithField("package", pkg.Name).Warn("unlink: conda-meta record already missing")
			return nil
		}
		return errors.Wrap(err, "unlink: reading conda-meta record")
	}

	var rec link.MetadataRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return errors.Wrap(err, "unlink: parsing conda-meta record")
	}

	for _, p := range rec.PathsData.Paths {
		full := filepath.Join(prefix, p.Path)
		removeErr := os.Remove(full)
		switch {
		case removeErr == nil:
		case os.IsNotExist(removeErr):
			u.log.WithField("path", p.Path).Warn("unlink: file already missing")
		default:
			return errors.Wrapf(removeErr, "unlink: removing %s", p.Path)
		}
		u.pruneEmptyParents(prefix, filepath.Dir(full))
	}

	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "unlink: removing conda-meta record")
	}
	return nil
}

// pruneEmptyParents removes dir, and then its parent, and so on, as long
// as each is empty and is not prefix itself (spec.md §4.7). godirwalk's
// readDirents helper is used here only to decide emptiness cheaply,
// matching spec_full.md §3.5's choice of godirwalk for unlink's
// directory walks.
func (u *Unlinker) pruneEmptyParents(prefix, dir string) {
	cleanPrefix := filepath.Clean(prefix)
	for {
		cleanDir := filepath.Clean(dir)
		if cleanDir == cleanPrefix || !isWithin(cleanPrefix, cleanDir) {
			return
		}
		empty, err := isEmptyDir(cleanDir)
		if err != nil || !empty {
			return
		}
		if err := os.Remove(cleanDir); err != nil {
			return
		}
		dir = filepath.Dir(cleanDir)
	}
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

func isWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
