package problems

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// unionFind is a path-compressing, union-by-rank disjoint-set over NodeID,
// grounded on the teacher's preference for small hand-rolled data
// structures (typed_radix.go) rather than a generic algorithms package.
type unionFind struct {
	parent []NodeID
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]NodeID, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = NodeID(i)
	}
	return uf
}

func (uf *unionFind) find(x NodeID) NodeID {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) union(a, b NodeID) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// GroupNode is a compressed node: a package name plus the sorted union of
// versions/build-strings of every merged member, or a dep spec for
// unresolved/constraint/root groups (spec.md §3 "compressed variant").
type GroupNode struct {
	Kind         NodeKind
	Name         string
	Versions     []string
	BuildStrings []string
	Rule         Node
}

// GroupEdge is a merged edge: the set of MatchSpecs that justified
// collapsing parallel arcs between two groups.
type GroupEdge struct {
	From  GroupID
	To    GroupID
	Specs []string
}

// GroupID indexes CompressedGraph.Nodes.
type GroupID int

// CompressedGraph is the merged graph spec.md §4.5 describes: nodes that
// share a name and an identical neighborhood collapsed into one, with a
// group-id keyed conflict map.
type CompressedGraph struct {
	Pool        *pool.Pool
	Nodes       []GroupNode
	Edges       []GroupEdge
	ConflictMap map[GroupID]map[GroupID]struct{}
	Root        GroupID

	rootOf map[NodeID]GroupID
}

// Compress runs the fixed-point union-find merge described in spec.md
// §4.5 and §8 ("converges in one pass on any input" is the invariant
// under test — the loop below iterates to an explicit fixed point rather
// than assuming one pass suffices, which is the safe superset of that
// guarantee).
func Compress(g *Graph) *CompressedGraph {
	n := len(g.Nodes)
	uf := newUnionFind(n)

	for {
		changed := false
		groupOf := func(id NodeID) NodeID { return uf.find(id) }

		buckets := map[string][]NodeID{}
		for id := 0; id < n; id++ {
			key := mergeKey(g, NodeID(id), groupOf)
			buckets[key] = append(buckets[key], NodeID(id))
		}
		for _, members := range buckets {
			for i := 1; i < len(members); i++ {
				if uf.find(members[0]) != uf.find(members[i]) {
					uf.union(members[0], members[i])
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	return buildCompressed(g, uf)
}

// mergeKey is the equivalence key spec.md §4.5 defines: same name (or dep
// spec for non-package nodes), same successor group-id set, same
// predecessor group-id set, same conflict group-id set.
func mergeKey(g *Graph, id NodeID, groupOf func(NodeID) NodeID) string {
	node := g.Nodes[id]
	var name string
	switch node.Kind {
	case NodeRoot:
		name = "\x00root"
	case NodePackage:
		name = "pkg:" + g.Pool.String(g.Pool.Solvable(node.Solvable).Name)
	default:
		name = "dep:" + node.Spec
	}

	succ := idSet(g.successors(id), groupOf)
	pred := idSet(g.predecessors(id), groupOf)
	var conf []NodeID
	for other := range g.ConflictMap[id] {
		conf = append(conf, other)
	}
	conflict := idSet(conf, groupOf)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(succ)
	b.WriteByte('|')
	b.WriteString(pred)
	b.WriteByte('|')
	b.WriteString(conflict)
	return b.String()
}

func idSet(ids []NodeID, groupOf func(NodeID) NodeID) string {
	seen := map[NodeID]struct{}{}
	var groups []int
	for _, id := range ids {
		gid := groupOf(id)
		if _, ok := seen[gid]; ok {
			continue
		}
		seen[gid] = struct{}{}
		groups = append(groups, int(gid))
	}
	sort.Ints(groups)
	parts := make([]string, len(groups))
	for i, v := range groups {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func buildCompressed(g *Graph, uf *unionFind) *CompressedGraph {
	cg := &CompressedGraph{
		Pool:        g.Pool,
		ConflictMap: map[GroupID]map[GroupID]struct{}{},
		rootOf:      map[NodeID]GroupID{},
	}

	rootToGroup := map[NodeID]GroupID{}
	for id := 0; id < len(g.Nodes); id++ {
		nid := NodeID(id)
		root := uf.find(nid)
		gid, ok := rootToGroup[root]
		if !ok {
			gid = GroupID(len(cg.Nodes))
			rootToGroup[root] = gid
			cg.Nodes = append(cg.Nodes, GroupNode{Kind: g.Nodes[nid].Kind})
		}
		cg.rootOf[nid] = gid
		mergeInto(&cg.Nodes[gid], g, nid)
	}
	cg.Root = cg.rootOf[g.root]

	for gid := range cg.Nodes {
		sort.Strings(cg.Nodes[gid].Versions)
		sort.Strings(cg.Nodes[gid].BuildStrings)
	}

	edgeIdx := map[[2]GroupID]int{}
	for _, e := range g.Edges {
		fromG, toG := cg.rootOf[e.From], cg.rootOf[e.To]
		if fromG == toG {
			continue
		}
		key := [2]GroupID{fromG, toG}
		if idx, ok := edgeIdx[key]; ok {
			cg.Edges[idx].Specs = appendUnique(cg.Edges[idx].Specs, e.Spec)
			continue
		}
		edgeIdx[key] = len(cg.Edges)
		cg.Edges = append(cg.Edges, GroupEdge{From: fromG, To: toG, Specs: []string{e.Spec}})
	}

	for from, tos := range g.ConflictMap {
		fromG := cg.rootOf[from]
		for to := range tos {
			toG := cg.rootOf[to]
			if fromG == toG {
				continue
			}
			if cg.ConflictMap[fromG] == nil {
				cg.ConflictMap[fromG] = map[GroupID]struct{}{}
			}
			cg.ConflictMap[fromG][toG] = struct{}{}
		}
	}

	return cg
}

func mergeInto(gn *GroupNode, g *Graph, id NodeID) {
	n := g.Nodes[id]
	switch n.Kind {
	case NodePackage:
		s := g.Pool.Solvable(n.Solvable)
		gn.Name = g.Pool.String(s.Name)
		gn.Versions = appendUnique(gn.Versions, g.Pool.String(s.EVR))
		gn.BuildStrings = appendUnique(gn.BuildStrings, s.BuildString)
	case NodeRoot:
		gn.Name = "root"
	default:
		gn.Name = n.Spec
	}
	if n.Rule != "" {
		gn.Rule = n
	}
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// IsRoot reports whether id names the graph's Root group.
func (cg *CompressedGraph) IsRoot(id GroupID) bool { return cg.Nodes[id].Kind == NodeRoot }
