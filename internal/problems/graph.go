// Package problems implements Component D: turning a solver's non-empty
// problem list into a directed graph explaining the conflict, then merging
// equivalent nodes and rendering the result as a readable tree (spec.md
// §4.5). Grounded directly on
// original_source/libmamba/include/mamba/core/problems_graph.hpp
// (MNode/MEdgeInfo/MGroupNode/MProblemsGraphs), reimplemented with typed
// integer ids over slices rather than pointer-heavy C++ containers, in
// keeping with the teacher's (golang/dep) preference for hand-rolled,
// typed-id graphs (typed_radix.go) over a generic graph library.
package problems

import (
	"github.com/mamba-org/mamba-sub007/internal/pool"
	"github.com/mamba-org/mamba-sub007/internal/solver"
)

// NodeID indexes Graph.Nodes.
type NodeID int

// NodeKind is one of the four node variants spec.md §3 defines for
// ProblemsGraph.
type NodeKind int

const (
	NodeRoot NodeKind = iota
	NodePackage
	NodeUnresolvedDependency
	NodeConstraint
)

// Node is one vertex of the initial (uncompressed) conflict graph. Exactly
// one of Solvable/Spec is meaningful, selected by Kind; Root nodes carry
// neither.
type Node struct {
	Kind     NodeKind
	Solvable pool.SolvableId // valid iff Kind == NodePackage
	Spec     string          // MatchSpec text; valid iff Kind == NodeUnresolvedDependency or NodeConstraint
	Rule     solver.RuleKind // annotation set by "other rule kinds" (spec.md §4.5 last bullet); may be zero value
}

// Name returns the node's display name: the package name if
// this is a Package node, its dep spec otherwise, or "root".
func (n Node) Name(p *pool.Pool) string {
	switch n.Kind {
	case NodeRoot:
		return "root"
	case NodePackage:
		return p.String(p.Solvable(n.Solvable).Name)
	default:
		return n.Spec
	}
}

// Edge is a directed, MatchSpec-labeled arc of the initial graph.
type Edge struct {
	From NodeID
	To   NodeID
	Spec string
}

// Graph is the initial (uncompressed) per-problem conflict graph plus the
// symmetric conflict_map spec.md §3/§8 describes.
type Graph struct {
	Pool  *pool.Pool
	Nodes []Node
	Edges []Edge

	// ConflictMap stores symmetric pairs of node ids in same-name conflict
	// (spec.md §3). AddConflict is the only mutator and always inserts
	// both directions, so the §8 symmetry invariant holds by construction.
	ConflictMap map[NodeID]map[NodeID]struct{}

	root     NodeID
	nodeKey  map[nodeKey]NodeID
}

type nodeKey struct {
	kind     NodeKind
	solvable pool.SolvableId
	spec     string
}

// Build converts a non-empty solver problem list into an initial conflict
// graph (spec.md §4.5). Construction rules follow the problem's RuleKind:
//
//   - PKG_REQUIRES/PKG_CONSTRAINS/JOB: an edge from Root (job) or the
//     source solvable (package requirement) to the target, or to an
//     UnresolvedDependency leaf if nothing satisfies the dep.
//   - PKG_NOTHING_PROVIDES_DEP/JOB_NOTHING_PROVIDES_DEP/JOB_UNKNOWN_PACKAGE:
//     an edge straight to an UnresolvedDependency leaf.
//   - PKG_CONFLICTS/PKG_SAME_NAME: a symmetric conflict_map entry between
//     the two solvables, not an edge.
//   - anything else: annotate the source node with the rule kind.
func Build(p *pool.Pool, probs []solver.Problem) *Graph {
	g := &Graph{
		Pool:        p,
		ConflictMap: map[NodeID]map[NodeID]struct{}{},
		nodeKey:     map[nodeKey]NodeID{},
	}
	g.root = g.getOrCreate(Node{Kind: NodeRoot})

	for _, pr := range probs {
		switch pr.Kind {
		case solver.RulePkgRequires, solver.RulePkgConstrains, solver.RuleJob:
			from := g.root
			if pr.Source != solver.RootSource {
				from = g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Source})
			}
			var to NodeID
			if pr.Target == solver.UnresolvedTarget {
				kind := NodeUnresolvedDependency
				if pr.Kind == solver.RulePkgConstrains {
					kind = NodeConstraint
				}
				to = g.getOrCreate(Node{Kind: kind, Spec: pr.Spec})
			} else {
				to = g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Target})
			}
			g.Edges = append(g.Edges, Edge{From: from, To: to, Spec: pr.Spec})

		case solver.RulePkgNothingProvidesDep, solver.RuleJobNothingProvidesDep, solver.RuleJobUnknownPackage:
			from := g.root
			if pr.Source != solver.RootSource {
				from = g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Source})
			}
			to := g.getOrCreate(Node{Kind: NodeUnresolvedDependency, Spec: pr.Spec})
			g.Edges = append(g.Edges, Edge{From: from, To: to, Spec: pr.Spec})

		case solver.RulePkgConflicts, solver.RulePkgSameName:
			if pr.Source == solver.RootSource || pr.Target == solver.UnresolvedTarget {
				continue
			}
			from := g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Source})
			to := g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Target})
			g.AddConflict(from, to)

		default:
			var id NodeID
			if pr.Source == solver.RootSource {
				id = g.root
			} else {
				id = g.getOrCreate(Node{Kind: NodePackage, Solvable: pr.Source})
			}
			n := g.Nodes[id]
			n.Rule = pr.Kind
			g.Nodes[id] = n
		}
	}
	return g
}

// AddConflict records a symmetric conflict between a and b: a is always
// inserted into conflicts(b) and vice versa (spec.md §8 invariant).
func (g *Graph) AddConflict(a, b NodeID) {
	if g.ConflictMap[a] == nil {
		g.ConflictMap[a] = map[NodeID]struct{}{}
	}
	if g.ConflictMap[b] == nil {
		g.ConflictMap[b] = map[NodeID]struct{}{}
	}
	g.ConflictMap[a][b] = struct{}{}
	g.ConflictMap[b][a] = struct{}{}
}

// Root returns the graph's single Root node id.
func (g *Graph) Root() NodeID { return g.root }

func (g *Graph) getOrCreate(n Node) NodeID {
	k := nodeKey{kind: n.Kind, solvable: n.Solvable, spec: n.Spec}
	if n.Kind == NodeRoot {
		k = nodeKey{kind: NodeRoot}
	}
	if id, ok := g.nodeKey[k]; ok {
		return id
	}
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	g.nodeKey[k] = id
	return id
}

// successors/predecessors are used by the compressor to compute each
// node's neighborhood.
func (g *Graph) successors(id NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

func (g *Graph) predecessors(id NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.Edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}
