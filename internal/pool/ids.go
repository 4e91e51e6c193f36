package pool

// Distinct id spaces, all process-local arena indices (spec.md §3). Ids are
// stable for the lifetime of the owning Pool; they are never shared across
// pools.
type (
	StringId     int
	DependencyId int
	SolvableId   int
	RepoId       int
	RuleId       int
	ProblemId    int
)

// InvalidStringId etc. are the "not set" sentinels, all -1. Interned
// strings, dependencies and repos are numbered from 0, so 0 is a valid id
// in those spaces; only SolvableId 0 is reserved (see Pool.solvables).
const (
	InvalidStringId     StringId     = -1
	InvalidDependencyId DependencyId = -1
	InvalidSolvableId   SolvableId   = -1
	InvalidRepoId       RepoId       = -1
)

// NoRepo is the sentinel used to clear the installed-repo designation.
const NoRepo RepoId = InvalidRepoId
