// Package repodata implements Component B: parsing repodata.json into pool
// solvables, with a binary serialization cache keyed by an origin
// fingerprint (spec.md §4.3). JSON decoding follows the teacher's
// (golang/dep) rawLock/json.Decoder raw-struct idiom from lock.go.
package repodata

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// entry is the raw JSON shape of one package record under "packages" or
// "packages.conda" (spec.md §6).
type entry struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Build         string   `json:"build"`
	BuildNumber   uint64   `json:"build_number"`
	Depends       []string `json:"depends"`
	Constrains    []string `json:"constrains"`
	TrackFeatures []string `json:"track_features"`
	Features      []string `json:"features"`
	License       string   `json:"license"`
	Noarch        jsonNoarch `json:"noarch"`
	Size          uint64   `json:"size"`
	Timestamp     int64    `json:"timestamp"`
	MD5           string   `json:"md5"`
	SHA256        string   `json:"sha256"`
	Subdir        string   `json:"subdir"`
}

// jsonNoarch accepts both the legacy boolean form and the string form
// ("python" / "generic") that real repodata.json files use.
type jsonNoarch string

func (n *jsonNoarch) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	switch s {
	case "true":
		*n = "generic"
	case "false", "null":
		*n = ""
	default:
		*n = jsonNoarch(s)
	}
	return nil
}

// rawRepodata is the top-level repodata.json shape (spec.md §6).
type rawRepodata struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]entry `json:"packages"`
	PackagesConda map[string]entry `json:"packages.conda"`
}

// Options controls a single Load call (spec.md §4.3).
type Options struct {
	RepoURL string
	Subdir  string

	// TarBz2Only, when set, skips the "packages.conda" map (step 2).
	TarBz2Only bool

	// PipAsPythonDep enables the transform described in spec.md §4.3 step
	// 5.
	PipAsPythonDep bool

	Fingerprint OriginFingerprint

	Log *logrus.Entry
}

// ParseError is returned when repodata.json itself is malformed. It is
// local to the repo being parsed; other repos may still load (spec.md §7).
type ParseError struct {
	Repo string
	Err  error
}

func (e *ParseError) Error() string {
	return errors.Wrapf(e.Err, "repodata: failed to parse %s", e.Repo).Error()
}
func (e *ParseError) Unwrap() error { return e.Err }

// LoadJSON parses repodata.json from r into repo, per spec.md §4.3 steps
// 2-6. It does not consult or write the binary cache; callers needing the
// cache-aware path should use Load.
func LoadJSON(r io.Reader, p *pool.Pool, repo pool.RepoId, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var raw rawRepodata
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return &ParseError{Repo: opts.RepoURL, Err: err}
	}

	subdir := opts.Subdir
	if subdir == "" {
		subdir = raw.Info.Subdir
	}

	pipSolvables := map[pool.SolvableId]bool{}
	pythonSolvables := map[pool.SolvableId]bool{}

	load := func(filename string, e entry) {
		sid := p.AddSolvable(repo)
		s := p.Solvable(sid)
		s.Name = p.AddString(e.Name)
		s.EVR = p.AddString(e.Version)
		s.BuildNumber = e.BuildNumber
		s.BuildString = e.Build
		s.FileName = filename
		s.License = e.License
		s.Size = e.Size
		s.Timestamp = e.Timestamp
		s.MD5 = e.MD5
		s.SHA256 = e.SHA256
		s.Noarch = string(e.Noarch)
		s.Subdir = subdir
		s.URL = joinURL(opts.RepoURL, subdir, filename)

		for _, d := range e.Depends {
			s.Dependencies = append(s.Dependencies, parseDepString(p, d))
		}
		for _, c := range e.Constrains {
			s.Constraints = append(s.Constraints, parseDepString(p, c))
		}
		for _, f := range e.TrackFeatures {
			s.TrackFeatures = append(s.TrackFeatures, p.AddString(f))
		}

		p.EnsureSelfProvide(sid)
		if len(s.TrackFeatures) > 0 {
			// synthetic provide `name[track_features]==evr` (spec.md §4.3
			// step 4).
			ns := p.AddString(e.Name + "[track_features]")
			s.Provides = append(s.Provides, p.AddDependency(ns, pool.RelEQ, s.EVR))
		}
		if s.BuildString != "" {
			// synthetic provide `name[build_string]==evr`.
			ns := p.AddString(e.Name + "[build_string]")
			s.Provides = append(s.Provides, p.AddDependency(ns, pool.RelEQ, s.EVR))
		}

		if e.Name == "python" {
			pythonSolvables[sid] = true
		}
		if e.Name == "pip" {
			pipSolvables[sid] = true
		}
	}

	for filename, e := range raw.Packages {
		load(filename, e)
	}
	if !opts.TarBz2Only {
		for filename, e := range raw.PackagesConda {
			load(filename, e)
		}
	}

	if opts.PipAsPythonDep {
		pipDep := p.AddDependency(p.AddString("pip"), pool.RelGE, p.AddString(""))
		pythonDep := p.AddDependency(p.AddString("python"), pool.RelGE, p.AddString(""))
		for sid := range pythonSolvables {
			s := p.Solvable(sid)
			s.Dependencies = append(s.Dependencies, pipDep)
		}
		for sid := range pipSolvables {
			s := p.Solvable(sid)
			s.Dependencies = append(s.Dependencies, pythonDep)
		}
	}

	p.Repo(repo).Internalize()
	log.WithFields(logrus.Fields{"repo": opts.RepoURL, "count": p.Repo(repo).Solvables()}).Debug("repodata loaded")
	return nil
}

func joinURL(repoURL, subdir, filename string) string {
	parts := []string{strings.TrimRight(repoURL, "/")}
	if subdir != "" {
		parts = append(parts, subdir)
	}
	parts = append(parts, filename)
	return strings.Join(parts, "/")
}

// parseDepString turns a MatchSpec-shaped depends[]/constrains[] entry into
// a DependencyId. Complex relation expressions decompose into the pool's
// opaque encoding; here we intern a single EQ-or-range dependency keyed by
// the raw constraint string, leaving full disjunction parsing to the
// solver's rule generator via pool.ParseConstraint.
func parseDepString(p *pool.Pool, raw string) pool.DependencyId {
	ms, err := pool.ParseMatchSpec(raw)
	if err != nil {
		// Malformed depends entries are tolerated as opaque name-only
		// deps; the solver will simply fail to find a provider if the
		// string was not resolvable at all.
		return p.AddDependency(p.AddString(raw), pool.RelGE, p.AddString(""))
	}
	name := p.AddString(ms.Name)
	version := p.AddString(ms.Version)
	return p.AddDependency(name, pool.RelGE, version)
}
