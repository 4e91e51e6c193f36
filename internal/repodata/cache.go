package repodata

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// ToolVersion is bumped whenever the binary cache's encoding changes
// incompatibly; a mismatch is treated exactly like a fingerprint mismatch
// (silent fallback to full JSON parse), per spec.md §4.3 step 1.
const ToolVersion = "mamba-sub007-cache-v1"

var metaBucket = []byte("__meta__")
var metaKey = []byte("header")
var solvablesBucket = []byte("solvables")

// cacheHeader is the embedded RepodataOrigin + tool-version record checked
// before any solvable bucket read (spec.md §4.3 step 1, §6).
type cacheHeader struct {
	Fingerprint    OriginFingerprint `json:"fingerprint"`
	ToolVersion    string            `json:"tool_version"`
	PipAsPythonDep bool              `json:"pip_as_python_dep"`
}

// CachePath returns the on-disk bolt file for a given repodata.json path,
// mirroring the teacher's internal/gps/source_cache_bolt.go naming
// convention (sourceCachePath + ".db").
func CachePath(repodataJSONPath string) string {
	return repodataJSONPath + ".cache.db"
}

// LoadCached attempts spec.md §4.3 step 1: if a companion binary-cache file
// exists and its header matches fp/opts, the solvables are loaded from it
// directly and ok is true. Any mismatch, corruption, or missing file is a
// CacheMiss: ok is false and err is nil (spec.md §7 — CacheMiss is not an
// error).
func LoadCached(cachePath string, p *pool.Pool, repo pool.RepoId, opts Options) (ok bool, err error) {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	if _, statErr := os.Stat(cachePath); statErr != nil {
		return false, nil
	}

	db, err := bolt.Open(cachePath, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		log.WithError(err).Debug("repodata: cache open failed, falling back to JSON parse")
		return false, nil
	}
	defer db.Close()

	var loaded bool
	var recs []cachedSolvable
	err = db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(metaBucket)
		if mb == nil {
			return nil
		}
		raw := mb.Get(metaKey)
		if raw == nil {
			return nil
		}
		var hdr cacheHeader
		if jsonErr := json.Unmarshal(raw, &hdr); jsonErr != nil {
			return nil
		}
		if hdr.ToolVersion != ToolVersion {
			return nil
		}
		if !hdr.Fingerprint.Equal(opts.Fingerprint) {
			return nil
		}
		if hdr.PipAsPythonDep != opts.PipAsPythonDep {
			return nil
		}

		sb := tx.Bucket(solvablesBucket)
		if sb == nil {
			return nil
		}
		c := sb.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec cachedSolvable
			if decErr := json.Unmarshal(v, &rec); decErr != nil {
				return errors.Wrapf(decErr, "repodata: corrupt cache entry %s", k)
			}
			recs = append(recs, rec)
		}
		loaded = true
		return nil
	})
	if err != nil {
		return false, nil // treat corruption as a cache miss, not fatal
	}
	if loaded {
		// Materialize only once every entry decoded, so a corrupt entry
		// leaves the pool untouched for the JSON fallback.
		for _, rec := range recs {
			rec.materialize(p, repo)
		}
		p.Repo(repo).Internalize()
	}
	return loaded, nil
}

// WriteCache writes the binary cache atomically: write to a temp file then
// rename (spec.md §4.3 step 7), grounded on the teacher's general
// atomic-write discipline (txn_writer.go).
func WriteCache(cachePath string, p *pool.Pool, repo pool.RepoId, opts Options) error {
	tmp := cachePath + ".tmp"
	os.Remove(tmp)

	db, err := bolt.Open(tmp, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "repodata: opening temp cache file")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		mb, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		hdr := cacheHeader{
			Fingerprint:    opts.Fingerprint,
			ToolVersion:    ToolVersion,
			PipAsPythonDep: opts.PipAsPythonDep,
		}
		raw, err := json.Marshal(hdr)
		if err != nil {
			return err
		}
		if err := mb.Put(metaKey, raw); err != nil {
			return err
		}

		sb, err := tx.CreateBucketIfNotExists(solvablesBucket)
		if err != nil {
			return err
		}
		for _, sid := range p.Repo(repo).Solvables() {
			rec := encodeSolvable(p, sid)
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			key := []byte(rec.FileName)
			if len(key) == 0 {
				key = itob(int(sid))
			}
			if err := sb.Put(key, raw); err != nil {
				return err
			}
		}
		return nil
	})
	db.Close()
	if err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "repodata: writing cache")
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o775); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "repodata: creating cache directory")
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "repodata: renaming cache into place")
	}
	return nil
}

func itob(i int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(i))
	return buf[:]
}
