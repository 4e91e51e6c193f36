package repodata

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// Load implements the full spec.md §4.3 algorithm: try the binary cache
// first, fall back to a JSON parse, then write a fresh cache.
//
// jsonPath is the path to the repodata.json to parse on a cache miss;
// cachePath is the companion binary-cache file (CachePath(jsonPath) if the
// caller has no override).
func Load(jsonPath, cachePath string, p *pool.Pool, repo pool.RepoId, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ok, err := LoadCached(cachePath, p, repo, opts)
	if err != nil {
		return err
	}
	if ok {
		log.WithField("repo", opts.RepoURL).Debug("repodata: loaded from binary cache")
		return nil
	}

	f, err := os.Open(jsonPath)
	if err != nil {
		return errors.Wrapf(err, "repodata: opening %s", jsonPath)
	}
	defer f.Close()

	if err := LoadJSON(f, p, repo, opts); err != nil {
		return err
	}

	if err := WriteCache(cachePath, p, repo, opts); err != nil {
		// Write failure on cache is a warning, not fatal (spec.md §4.3).
		log.WithError(err).Warn("repodata: failed to write binary cache")
	}
	return nil
}

// LoadReader is like Load but reads JSON from an already-open reader,
// skipping the cache entirely (used when the caller has no on-disk path,
// e.g. a freshly downloaded response body held in memory).
func LoadReader(r io.Reader, p *pool.Pool, repo pool.RepoId, opts Options) error {
	return LoadJSON(r, p, repo, opts)
}
