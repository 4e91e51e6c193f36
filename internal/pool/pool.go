// Package pool implements Component A of the core: an arena of interned
// strings, dependencies, repositories, and solvables addressed by stable
// integer ids, plus the whatprovides reverse index the solver depends on
// (spec.md §3, §4.2).
//
// A Pool is single-owner: it must not be mutated from more than one
// goroutine at a time, and must not be read concurrently with a mutation.
// This mirrors the teacher's (golang/dep gps) informal discipline around
// *solver/*selection — there is no internal locking.
package pool

import (
	"github.com/pkg/errors"
)

// Selector names the kind of job_expr passed to SelectSolvables.
type Selector int

const (
	SelectProvides Selector = iota
	SelectName
	SelectOneOf
	SelectAll
)

// JobExpr is the (selector, DependencyId) tuple spec.md §4.2 describes for
// SelectSolvables.
type JobExpr struct {
	Selector Selector
	Dep      DependencyId
}

// Pool owns every interned string, dependency, repo and solvable for one
// solve lifetime (spec.md §3 Lifecycles).
type Pool struct {
	strings *stringTable

	deps    []dependency
	depKeys map[depKey]DependencyId

	repos       []*Repo
	installed   RepoId
	solvables   []Solvable // index 0 is unused/reserved

	// whatprovides maps a DependencyId to the ordered list of SolvableIds
	// that satisfy it. Must be rebuilt (CreateWhatprovides) after any bulk
	// solvable mutation and before SelectSolvables or the solver may run.
	whatprovides     map[DependencyId][]SolvableId
	whatprovidesDirty bool
}

// New returns an empty Pool with no installed repo.
func New() *Pool {
	return &Pool{
		strings:   newStringTable(),
		depKeys:   make(map[depKey]DependencyId),
		installed: NoRepo,
		solvables: make([]Solvable, 1), // reserve index 0
	}
}

// AddString interns s; idempotent, never fails.
func (p *Pool) AddString(s string) StringId { return p.strings.addString(s) }

// FindString looks up s without interning it.
func (p *Pool) FindString(s string) (StringId, bool) { return p.strings.findString(s) }

// String resolves id back to its text; traps if id is out of range.
func (p *Pool) String(id StringId) string { return p.strings.mustString(id) }

// FindByPrefix returns every interned string with the given prefix, for
// "did you mean" style diagnostics (e.g. problems.Render's unresolved-
// dependency suggestions); the solver's own lookups never call this.
func (p *Pool) FindByPrefix(prefix string) []string { return p.strings.prefixSearch(prefix) }

// AddDependency interns (name, flag, version); idempotent on the triple.
func (p *Pool) AddDependency(name StringId, flag RelationFlag, version StringId) DependencyId {
	k := depKey{name: name, relation: flag, version: version}
	if id, ok := p.depKeys[k]; ok {
		return id
	}
	id := DependencyId(len(p.deps))
	p.deps = append(p.deps, dependency{Name: name, Relation: flag, Version: version})
	p.depKeys[k] = id
	return id
}

// Dependency resolves id back to its triple; traps if out of range.
func (p *Pool) Dependency(id DependencyId) (name StringId, flag RelationFlag, version StringId) {
	if int(id) < 0 || int(id) >= len(p.deps) {
		panic("pool: dependency id out of range")
	}
	d := p.deps[id]
	return d.Name, d.Relation, d.Version
}

// AddRepo creates an empty repo and returns its id.
func (p *Pool) AddRepo(name string) RepoId {
	id := RepoId(len(p.repos))
	p.repos = append(p.repos, &Repo{ID: id, Name: name})
	return id
}

// Repo resolves id to its *Repo; traps if out of range.
func (p *Pool) Repo(id RepoId) *Repo {
	if int(id) < 0 || int(id) >= len(p.repos) {
		panic("pool: repo id out of range")
	}
	return p.repos[id]
}

// Repos returns every repo id in insertion order.
func (p *Pool) Repos() []RepoId {
	out := make([]RepoId, len(p.repos))
	for i := range p.repos {
		out[i] = RepoId(i)
	}
	return out
}

// SetInstalledRepo designates id as the installed repo. At most one repo
// may hold this designation at a time; pass NoRepo to clear it.
func (p *Pool) SetInstalledRepo(id RepoId) {
	if id != NoRepo {
		p.Repo(id) // traps if out of range
	}
	p.installed = id
}

// InstalledRepo returns the currently designated installed repo, or NoRepo.
func (p *Pool) InstalledRepo() RepoId { return p.installed }

// AddSolvable creates a new solvable owned by repo and returns its id. The
// caller is responsible for setting Name/EVR and the self-provide before
// the pool is used for solving (spec.md §3 invariant).
func (p *Pool) AddSolvable(repo RepoId) SolvableId {
	r := p.Repo(repo)
	id := SolvableId(len(p.solvables))
	p.solvables = append(p.solvables, Solvable{repo: repo})
	r.solvables = append(r.solvables, id)
	p.whatprovidesDirty = true
	return id
}

// Solvable resolves id to a mutable pointer into the arena; traps if out of
// range. Callers must not retain the pointer beyond the Pool's lifetime.
func (p *Pool) Solvable(id SolvableId) *Solvable {
	if int(id) <= 0 || int(id) >= len(p.solvables) {
		panic("pool: solvable id out of range")
	}
	return &p.solvables[id]
}

// NumSolvables returns the count of real (non-reserved) solvables.
func (p *Pool) NumSolvables() int { return len(p.solvables) - 1 }

// EnsureSelfProvide adds `name == evr` to s.Provides if not already
// present, enforcing the spec.md §3 invariant. Callers that construct a
// Solvable by hand (tests, synthetic virtual packages) should call this
// once Name/EVR are set.
func (p *Pool) EnsureSelfProvide(id SolvableId) {
	s := p.Solvable(id)
	self := p.AddDependency(s.Name, RelEQ, s.EVR)
	for _, d := range s.Provides {
		if d == self {
			return
		}
	}
	s.Provides = append(s.Provides, self)
	p.whatprovidesDirty = true
}

// CreateWhatprovides rebuilds the DependencyId -> []SolvableId reverse
// index. O(n_solvables * avg_provides) (spec.md §4.2). Must be called
// after any bulk mutation and before SelectSolvables or Solve.
func (p *Pool) CreateWhatprovides() {
	idx := make(map[DependencyId][]SolvableId)
	for i := 1; i < len(p.solvables); i++ {
		sid := SolvableId(i)
		s := &p.solvables[i]
		for _, dep := range s.Provides {
			idx[dep] = append(idx[dep], sid)
		}
	}
	p.whatprovides = idx
	p.whatprovidesDirty = false
}

// whatprovidesReady traps if CreateWhatprovides has not been called since
// the last mutation; every read path that depends on the index goes
// through this guard.
func (p *Pool) whatprovidesReady() {
	if p.whatprovides == nil || p.whatprovidesDirty {
		panic("pool: whatprovides index is stale; call CreateWhatprovides first")
	}
}

// WhatProvides returns the solvables satisfying dep, in the order recorded
// by CreateWhatprovides (insertion order of provides).
func (p *Pool) WhatProvides(dep DependencyId) []SolvableId {
	p.whatprovidesReady()
	return p.whatprovides[dep]
}

// SelectSolvables resolves job_expr against the whatprovides index
// (spec.md §4.2).
func (p *Pool) SelectSolvables(expr JobExpr) ([]SolvableId, error) {
	p.whatprovidesReady()
	switch expr.Selector {
	case SelectProvides, SelectOneOf, SelectAll:
		return append([]SolvableId(nil), p.whatprovides[expr.Dep]...), nil
	case SelectName:
		name, _, _ := p.Dependency(expr.Dep)
		var out []SolvableId
		for i := 1; i < len(p.solvables); i++ {
			if p.solvables[i].Name == name {
				out = append(out, SolvableId(i))
			}
		}
		return out, nil
	default:
		return nil, errors.Errorf("pool: unknown selector %d", expr.Selector)
	}
}

// WhatMatchesDep is the reverse lookup over a named dependency array (e.g.
// REQUIRES): it returns every solvable that has dep somewhere in the named
// attribute array (spec.md §4.2).
func (p *Pool) WhatMatchesDep(keyname string, dep DependencyId) []SolvableId {
	var out []SolvableId
	for i := 1; i < len(p.solvables); i++ {
		s := &p.solvables[i]
		var arr []DependencyId
		switch keyname {
		case "REQUIRES":
			arr = s.Dependencies
		case "CONSTRAINS":
			arr = s.Constraints
		case "PROVIDES":
			arr = s.Provides
		default:
			continue
		}
		for _, d := range arr {
			if d == dep {
				out = append(out, SolvableId(i))
				break
			}
		}
	}
	return out
}
