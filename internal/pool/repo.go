package pool

// Repo is a named collection of solvables in the pool, typically sourced
// from one repodata.json (GLOSSARY). Priority is stored for the caller
// wiring channels together; the solver does not read it. Solver tie-breaks
// take repo priorities from solver.SolveParameters.RepoPriority, where a
// higher value wins.
type Repo struct {
	ID       RepoId
	Name     string
	Priority int

	solvables []SolvableId

	// internalized marks that internalize() has been called: all
	// subsequent attribute reads reflect the committed state (spec.md
	// §4.3 step 6). The Pool implementation here has no deferred
	// attribute writes to flush, but the flag is still tracked so callers
	// that assume RepoLoader's contract can assert it was honored.
	internalized bool
}

// Solvables returns the ids of every solvable owned by this repo, in
// insertion order.
func (r *Repo) Solvables() []SolvableId {
	out := make([]SolvableId, len(r.solvables))
	copy(out, r.solvables)
	return out
}

// Internalize commits deferred per-solvable attributes (spec.md §4.3 step
// 6). All attribute reads after this call must reflect the internalized
// state.
func (r *Repo) Internalize() { r.internalized = true }

// Internalized reports whether Internalize has been called.
func (r *Repo) Internalized() bool { return r.internalized }
