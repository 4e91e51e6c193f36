package repodata

import "github.com/mamba-org/mamba-sub007/internal/pool"

// cachedSolvable is the on-disk encoding of one pool.Solvable: a flat
// record built by encodeSolvable, stored as JSON via encoding/json, and
// turned back into a pool solvable by materialize.
type cachedSolvable struct {
	Name          string   `json:"name"`
	EVR           string   `json:"evr"`
	BuildNumber   uint64   `json:"build_number"`
	BuildString   string   `json:"build_string"`
	FileName      string   `json:"file_name"`
	License       string   `json:"license"`
	MD5           string   `json:"md5"`
	SHA256        string   `json:"sha256"`
	Noarch        string   `json:"noarch"`
	Size          uint64   `json:"size"`
	Timestamp     int64    `json:"timestamp"`
	URL           string   `json:"url"`
	Channel       string   `json:"channel"`
	Subdir        string   `json:"subdir"`
	Dependencies  []string `json:"dependencies"`
	Constraints   []string `json:"constraints"`
	TrackFeatures []string `json:"track_features"`
}

// encodeSolvable flattens a pool.Solvable into its cached form. Dependency
// ids are re-expressed as plain strings (name + constraint) rather than
// pool-local ids, since a fresh Pool on the reading side will mint new ids.
func encodeSolvable(p *pool.Pool, sid pool.SolvableId) cachedSolvable {
	s := p.Solvable(sid)
	rec := cachedSolvable{
		Name:        p.String(s.Name),
		EVR:         p.String(s.EVR),
		BuildNumber: s.BuildNumber,
		BuildString: s.BuildString,
		FileName:    s.FileName,
		License:     s.License,
		MD5:         s.MD5,
		SHA256:      s.SHA256,
		Noarch:      s.Noarch,
		Size:        s.Size,
		Timestamp:   s.Timestamp,
		URL:         s.URL,
		Channel:     s.Channel,
		Subdir:      s.Subdir,
	}
	for _, d := range s.Dependencies {
		rec.Dependencies = append(rec.Dependencies, encodeDep(p, d))
	}
	for _, c := range s.Constraints {
		rec.Constraints = append(rec.Constraints, encodeDep(p, c))
	}
	for _, f := range s.TrackFeatures {
		rec.TrackFeatures = append(rec.TrackFeatures, p.String(f))
	}
	return rec
}

func encodeDep(p *pool.Pool, id pool.DependencyId) string {
	name, _, version := p.Dependency(id)
	n := p.String(name)
	v := p.String(version)
	if v == "" {
		return n
	}
	return n + " " + v
}

// materialize reconstructs a pool.Solvable from its cached form into the
// given repo, reproducing the same provides/self-provide invariants that
// LoadJSON establishes.
func (rec cachedSolvable) materialize(p *pool.Pool, repo pool.RepoId) pool.SolvableId {
	sid := p.AddSolvable(repo)
	s := p.Solvable(sid)
	s.Name = p.AddString(rec.Name)
	s.EVR = p.AddString(rec.EVR)
	s.BuildNumber = rec.BuildNumber
	s.BuildString = rec.BuildString
	s.FileName = rec.FileName
	s.License = rec.License
	s.MD5 = rec.MD5
	s.SHA256 = rec.SHA256
	s.Noarch = rec.Noarch
	s.Size = rec.Size
	s.Timestamp = rec.Timestamp
	s.URL = rec.URL
	s.Channel = rec.Channel
	s.Subdir = rec.Subdir

	for _, d := range rec.Dependencies {
		s.Dependencies = append(s.Dependencies, decodeDepString(p, d))
	}
	for _, c := range rec.Constraints {
		s.Constraints = append(s.Constraints, decodeDepString(p, c))
	}
	for _, f := range rec.TrackFeatures {
		s.TrackFeatures = append(s.TrackFeatures, p.AddString(f))
	}

	p.EnsureSelfProvide(sid)
	if len(rec.TrackFeatures) > 0 {
		ns := p.AddString(rec.Name + "[track_features]")
		s.Provides = append(s.Provides, p.AddDependency(ns, pool.RelEQ, s.EVR))
	}
	if rec.BuildString != "" {
		ns := p.AddString(rec.Name + "[build_string]")
		s.Provides = append(s.Provides, p.AddDependency(ns, pool.RelEQ, s.EVR))
	}
	return sid
}

func decodeDepString(p *pool.Pool, raw string) pool.DependencyId {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ' ' {
			return p.AddDependency(p.AddString(raw[:i]), pool.RelGE, p.AddString(raw[i+1:]))
		}
	}
	return p.AddDependency(p.AddString(raw), pool.RelGE, p.AddString(""))
}
