package solver

import (
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// SolveParameters hold all arguments to a Solve run (spec.md §4.4),
// grounded on the teacher's SolveParameters struct shape in solver.go.
type SolveParameters struct {
	Pool  *pool.Pool
	Jobs  []Job
	Flags Flag

	// RepoPriority maps a RepoId to its channel priority; higher values
	// win (spec.md §4.4.4 step 3). Repos absent from the map default to 0.
	RepoPriority map[pool.RepoId]int

	// Pinned marks solvables the caller has explicitly pinned (spec.md
	// §4.4.4 step 1).
	Pinned map[pool.SolvableId]bool

	Trace       bool
	TraceLogger *logrus.Entry
}

// solveState is the mutable working set threaded through resolution.
type solveState struct {
	params SolveParameters
	p      *pool.Pool
	log    *logrus.Entry

	installed map[pool.StringId]pool.SolvableId // name -> currently-installed solvable, from the installed repo

	selected map[pool.StringId]selection
	order    []pool.StringId // insertion order of `selected`, for determinism
	problems []Problem
}

type selection struct {
	solvable pool.SolvableId
	source   pool.SolvableId // RootSource if from a job
	dep      pool.DependencyId
}

type pendingReq struct {
	source pool.SolvableId // RootSource if from a job
	dep    pool.DependencyId
	isJob  bool
}

// Solve runs rule generation + search (spec.md §4.4.3) and returns either a
// Transaction, or a non-empty Problem list on failure. It never returns
// both: len(problems) > 0 iff transaction == nil.
func Solve(params SolveParameters) (*Transaction, []Problem, error) {
	log := params.TraceLogger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	st := &solveState{
		params:    params,
		p:         params.Pool,
		log:       log,
		installed: map[pool.StringId]pool.SolvableId{},
		selected:  map[pool.StringId]selection{},
	}

	if ir := params.Pool.InstalledRepo(); ir != pool.NoRepo {
		for _, sid := range params.Pool.Repo(ir).Solvables() {
			st.installed[params.Pool.Solvable(sid).Name] = sid
		}
	}

	var queue []pendingReq
	var removeJobs []pool.DependencyId
	for _, j := range params.Jobs {
		switch j.Kind {
		case JobInstall, JobUpdate, JobLock:
			if j.HasDep {
				queue = append(queue, pendingReq{source: RootSource, dep: j.Dep, isJob: true})
			}
		case JobRemove, JobErase:
			if j.HasDep {
				removeJobs = append(removeJobs, j.Dep)
			}
		}
	}

	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]
		st.process(req, &queue)
	}

	if len(st.problems) > 0 {
		if st.params.Trace {
			log.WithField("count", len(st.problems)).Debug("solve: unresolved, surfacing all problems")
		}
		return nil, st.problems, nil
	}

	txn := st.buildTransaction(removeJobs)
	return txn, nil, nil
}

// process resolves one pending requirement, mutating st.selected and
// pushing the winning candidate's own dependencies onto *queue.
func (st *solveState) process(req pendingReq, queue *[]pendingReq) {
	name, _, versionID := st.p.Dependency(req.dep)
	constraint := st.p.String(versionID)
	spec := st.p.String(name)
	if constraint != "" {
		spec = spec + " " + constraint
	}

	candidateIDs, err := st.p.SelectSolvables(pool.JobExpr{Selector: pool.SelectName, Dep: req.dep})
	if err != nil {
		st.problems = append(st.problems, Problem{Kind: RuleJobUnsupported, Source: req.source, Target: UnresolvedTarget, Dep: req.dep, Spec: spec})
		return
	}

	var filtered []pool.SolvableId
	for _, c := range candidateIDs {
		s := st.p.Solvable(c)
		if pool.SatisfiesConstraint(st.p.String(s.EVR), constraint) {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		kind := RulePkgNothingProvidesDep
		if req.isJob {
			if len(candidateIDs) == 0 {
				kind = RuleJobUnknownPackage
			} else {
				kind = RuleJobNothingProvidesDep
			}
		}
		st.problems = append(st.problems, Problem{Kind: kind, Source: req.source, Target: UnresolvedTarget, Dep: req.dep, Spec: spec})
		return
	}

	ranker := &candidateRanker{
		p:                  st.p,
		candidates:         filtered,
		pinned:             st.params.Pinned,
		installed:          st.installed,
		repoPriority:       st.params.RepoPriority,
		strictRepoPriority: st.params.Flags.has(FlagStrictRepoPriority),
	}
	best, ok := ranker.best()
	if !ok {
		st.problems = append(st.problems, Problem{Kind: RulePkgNothingProvidesDep, Source: req.source, Target: UnresolvedTarget, Dep: req.dep, Spec: spec})
		return
	}

	if existing, ok := st.selected[name]; ok {
		if existing.solvable == best {
			return // already selected, nothing new to expand
		}
		existingEVR := st.p.String(st.p.Solvable(existing.solvable).EVR)
		if pool.SatisfiesConstraint(existingEVR, constraint) {
			// The already-selected candidate also satisfies this new
			// requirement; no conflict.
			return
		}
		// Same-name conflict: record problems for BOTH the original
		// selection and this new requirement so the ProblemsGraph can
		// render edges from both sources into the conflicting versions
		// (spec.md §4.5, §8 scenario 4).
		st.problems = append(st.problems,
			Problem{Kind: RulePkgSameName, Source: existing.source, Target: existing.solvable, Dep: existing.dep, Spec: st.specFor(existing.dep)},
			Problem{Kind: RulePkgSameName, Source: req.source, Target: best, Dep: req.dep, Spec: spec},
		)
		return
	}

	st.selected[name] = selection{solvable: best, source: req.source, dep: req.dep}
	st.order = append(st.order, name)

	bs := st.p.Solvable(best)
	for _, d := range bs.Dependencies {
		*queue = append(*queue, pendingReq{source: best, dep: d})
	}
	for _, c := range bs.Constraints {
		*queue = append(*queue, pendingReq{source: best, dep: c})
	}
}

func (st *solveState) specFor(dep pool.DependencyId) string {
	name, _, versionID := st.p.Dependency(dep)
	s := st.p.String(name)
	if v := st.p.String(versionID); v != "" {
		s += " " + v
	}
	return s
}

// buildTransaction walks the installed repo and the selection decisions to
// emit an ordered Transaction (spec.md §4.4.3 "Output construction").
func (st *solveState) buildTransaction(removeJobs []pool.DependencyId) *Transaction {
	txn := &Transaction{}

	toRemove := map[pool.SolvableId]bool{}
	for _, dep := range removeJobs {
		ids, _ := st.p.SelectSolvables(pool.JobExpr{Selector: pool.SelectName, Dep: dep})
		for _, id := range ids {
			if sel, ok := st.installedSelf(id); ok {
				toRemove[sel] = true
			}
		}
	}

	handledNames := map[pool.StringId]bool{}

	// st.order reflects breadth-first discovery order (dependents before
	// their dependencies); re-derive a post-order topological sort so the
	// emitted steps satisfy "dependency installed before dependent"
	// (spec.md §5).
	for _, name := range st.topoOrder() {
		sel := st.selected[name]
		handledNames[name] = true
		installedID, wasInstalled := st.installed[name]
		if wasInstalled && installedID == sel.solvable {
			continue // already installed at the selected version; no-op
		}
		var removed pool.SolvableId = pool.InvalidSolvableId
		if wasInstalled {
			removed = installedID
		}
		txn.Steps = append(txn.Steps, classifyPair(st.p, removed, sel.solvable))
	}

	for name, id := range st.installed {
		if handledNames[name] {
			continue
		}
		if toRemove[id] {
			txn.Steps = append(txn.Steps, classifyPair(st.p, id, pool.InvalidSolvableId))
		}
	}

	return txn
}

// topoOrder returns selected package names in an order where every
// dependency precedes its dependents, derived by post-order DFS over the
// requires/constrains edges restricted to selected names. Ties (equal
// standing in the DFS) resolve by the insertion order recorded in
// st.order, which is itself deterministic given deterministic candidate
// ranking (spec.md §5, §4.4.3).
func (st *solveState) topoOrder() []pool.StringId {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[pool.StringId]int{}
	var result []pool.StringId

	var visit func(name pool.StringId)
	visit = func(name pool.StringId) {
		if state[name] == done || state[name] == visiting {
			return
		}
		state[name] = visiting
		sel, ok := st.selected[name]
		if ok {
			s := st.p.Solvable(sel.solvable)
			allDeps := append(append([]pool.DependencyId(nil), s.Dependencies...), s.Constraints...)
			for _, d := range allDeps {
				dn, _, _ := st.p.Dependency(d)
				if _, selected := st.selected[dn]; selected {
					visit(dn)
				}
			}
		}
		state[name] = done
		result = append(result, name)
	}

	for _, name := range st.order {
		visit(name)
	}
	return result
}

func (st *solveState) installedSelf(id pool.SolvableId) (pool.SolvableId, bool) {
	name := st.p.Solvable(id).Name
	if inst, ok := st.installed[name]; ok && inst == id {
		return id, true
	}
	return pool.InvalidSolvableId, false
}
