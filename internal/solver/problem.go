package solver

import "github.com/mamba-org/mamba-sub007/internal/pool"

// RootSource is the sentinel Source value meaning "this requirement came
// from a job, not from an installed/selected package" (spec.md §4.5: Root
// node).
const RootSource = pool.InvalidSolvableId

// UnresolvedTarget is the sentinel Target value meaning "no solvable
// satisfies this dependency" (spec.md §4.5: UnresolvedDependency leaf).
const UnresolvedTarget = pool.InvalidSolvableId

// Problem identifies one violated rule and the solvables/deps involved
// (spec.md §4.4.3). The solver must surface all problems, not just the
// first.
type Problem struct {
	Kind   RuleKind
	Source pool.SolvableId // RootSource if this is a job-level requirement
	Target pool.SolvableId // UnresolvedTarget if nothing satisfies Dep
	Dep    pool.DependencyId
	Spec   string // rendered MatchSpec text, for display without a Pool handle
}
