package solver

import (
	"container/heap"
	"strings"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// candidateRanker orders candidates for one dependency per the
// deterministic tie-break chain in spec.md §4.4.4. It is a container/heap
// priority queue, grounded directly on the teacher's own use of
// container/heap in solver.go's version queue.
type candidateRanker struct {
	p                  *pool.Pool
	candidates         []pool.SolvableId
	pinned             map[pool.SolvableId]bool
	installed          map[pool.StringId]pool.SolvableId
	repoPriority       map[pool.RepoId]int
	strictRepoPriority bool
}

// best returns the single best candidate per the ten-step ordering. If
// strictRepoPriority is set, candidates from a repo lower-priority than the
// best-priority repo present are excluded entirely (step 4) before ranking.
func (r *candidateRanker) best() (pool.SolvableId, bool) {
	cands := r.candidates
	if len(cands) == 0 {
		return pool.InvalidSolvableId, false
	}
	if r.strictRepoPriority {
		maxPrio := -1 << 31
		for _, c := range cands {
			if pr := r.repoPriority[r.p.Solvable(c).Repo()]; pr > maxPrio {
				maxPrio = pr
			}
		}
		filtered := cands[:0:0]
		for _, c := range cands {
			if r.repoPriority[r.p.Solvable(c).Repo()] == maxPrio {
				filtered = append(filtered, c)
			}
		}
		cands = filtered
	}

	h := &candidateHeap{ranker: r, ids: append([]pool.SolvableId(nil), cands...)}
	heap.Init(h)
	return h.ids[0], true
}

// candidateHeap implements heap.Interface with Less encoding the full
// step-1..step-10 tie-break order (spec.md §4.4.4); index 0 after Init is
// the single best candidate ("first non-tie wins", top-down).
type candidateHeap struct {
	ranker *candidateRanker
	ids    []pool.SolvableId
}

func (h *candidateHeap) Len() int      { return len(h.ids) }
func (h *candidateHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *candidateHeap) Push(x interface{}) { h.ids = append(h.ids, x.(pool.SolvableId)) }
func (h *candidateHeap) Pop() interface{} {
	old := h.ids
	n := len(old)
	v := old[n-1]
	h.ids = old[:n-1]
	return v
}

func (h *candidateHeap) Less(i, j int) bool {
	return h.ranker.better(h.ids[i], h.ids[j])
}

// better reports whether a should be preferred over b, per the ten-step
// chain. First non-tie wins.
func (r *candidateRanker) better(a, b pool.SolvableId) bool {
	if a == b {
		return false
	}

	// (1) explicitly pinned
	if r.pinned[a] != r.pinned[b] {
		return r.pinned[a]
	}

	sa, sb := r.p.Solvable(a), r.p.Solvable(b)

	// (2) already installed at a compatible version
	instA := r.installed[sa.Name] == a
	instB := r.installed[sb.Name] == b
	if instA != instB {
		return instA
	}

	// (3) higher repo priority / (4) strict repo priority is pre-filtered
	// by best(), but the chain still prefers higher priority among
	// survivors.
	pa, pb := r.repoPriority[sa.Repo()], r.repoPriority[sb.Repo()]
	if pa != pb {
		return pa > pb
	}

	// (5)+(6) higher epoch, higher version (CompareEVR folds both).
	if c := pool.CompareEVR(r.p.String(sa.EVR), r.p.String(sb.EVR)); c != 0 {
		return c > 0
	}

	// (7) higher build_number
	if sa.BuildNumber != sb.BuildNumber {
		return sa.BuildNumber > sb.BuildNumber
	}

	// (8) fewer track_features
	if len(sa.TrackFeatures) != len(sb.TrackFeatures) {
		return len(sa.TrackFeatures) < len(sb.TrackFeatures)
	}

	// (9) lexicographically smaller build_string
	if sa.BuildString != sb.BuildString {
		return strings.Compare(sa.BuildString, sb.BuildString) < 0
	}

	// (10) lower SolvableId (insertion order)
	return a < b
}
