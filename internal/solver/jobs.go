package solver

import "github.com/mamba-org/mamba-sub007/internal/pool"

// JobKind is the action requested by one Job (spec.md §4.4).
type JobKind int

const (
	JobInstall JobKind = iota
	JobUpdate
	JobRemove
	JobLock
	JobAllowUninstall
	JobErase
)

// Job carries either a DependencyId or a SolvableId, per spec.md §4.4.
type Job struct {
	Kind     JobKind
	Dep      pool.DependencyId
	HasDep   bool
	Solvable pool.SolvableId
}

// InstallDep is a convenience constructor for the common "install a
// MatchSpec-shaped dependency" job.
func InstallDep(dep pool.DependencyId) Job { return Job{Kind: JobInstall, Dep: dep, HasDep: true} }

// RemoveDep requests that any solvable satisfying dep be removed.
func RemoveDep(dep pool.DependencyId) Job { return Job{Kind: JobRemove, Dep: dep, HasDep: true} }
