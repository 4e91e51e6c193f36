package problems

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// Indent strings spec.md §4.5 fixes verbatim: the tree renderer never
// computes its own indentation glyphs.
const (
	indentContinue   = "│  "
	indentEmpty      = "   "
	indentBranch     = "├─ "
	indentBranchLast = "└─ "
)

// DefaultTruncationThreshold is the default version-set size above which
// Render truncates a compressed node's version list (spec.md §4.5).
const DefaultTruncationThreshold = 5

// RenderOptions configures Render.
type RenderOptions struct {
	// Threshold is the truncation threshold; 0 selects DefaultTruncationThreshold.
	Threshold int
}

// TruncatedCount reports, per rendered node, how many versions were
// elided so callers can produce "(and N more)" tails (spec.md §4.5).
type TruncatedCount struct {
	Name  string
	Count int
}

// Render walks cg from Root with a fixed-indent prefix-tree traversal and
// returns the rendered text plus the list of nodes that were truncated.
func Render(cg *CompressedGraph, opts RenderOptions) (string, []TruncatedCount) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultTruncationThreshold
	}

	var b strings.Builder
	var truncated []TruncatedCount
	visited := map[GroupID]bool{}

	childrenOf := func(id GroupID) []GroupEdge {
		var out []GroupEdge
		for _, e := range cg.Edges {
			if e.From == id {
				out = append(out, e)
			}
		}
		return out
	}

	var walk func(id GroupID, prefix string, isLast bool, isTop bool)
	walk = func(id GroupID, prefix string, isLast bool, isTop bool) {
		if visited[id] {
			return
		}
		visited[id] = true

		line, count := renderNode(cg, id, threshold)
		if count > 0 {
			truncated = append(truncated, TruncatedCount{Name: cg.Nodes[id].Name, Count: count})
		}

		if isTop {
			b.WriteString(line)
			b.WriteByte('\n')
		} else {
			branch := indentBranch
			if isLast {
				branch = indentBranchLast
			}
			b.WriteString(prefix)
			b.WriteString(branch)
			b.WriteString(line)
			b.WriteByte('\n')
		}

		childPrefix := prefix
		if !isTop {
			if isLast {
				childPrefix += indentEmpty
			} else {
				childPrefix += indentContinue
			}
		}

		children := childrenOf(id)
		for i, e := range children {
			walk(e.To, childPrefix, i == len(children)-1, false)
		}
	}

	walk(cg.Root, "", true, true)
	return b.String(), truncated
}

// renderNode renders a single compressed node's label. Available nodes
// (packages with at least one listed version) and unavailable ones
// (unresolved/constraint groups) are styled distinctly per spec.md §4.5;
// here that distinction is a literal prefix since the core never owns a
// terminal color palette (a CLI collaborator may restyle).
func renderNode(cg *CompressedGraph, id GroupID, threshold int) (string, int) {
	n := cg.Nodes[id]
	switch n.Kind {
	case NodeRoot:
		return "root", 0
	case NodePackage:
		versions, truncatedCount := truncateList(n.Versions, threshold)
		return fmt.Sprintf("package %s versions [%s]", n.Name, strings.Join(versions, ", ")), truncatedCount
	default:
		msg := fmt.Sprintf("unavailable: nothing provides %s", n.Name)
		if hint := didYouMean(cg.Pool, specNamePrefix(n.Name)); hint != "" {
			msg += hint
		}
		return msg, 0
	}
}

// specNamePrefix extracts the leading package-name token from a dep spec
// string like "numpy>=1.20,<2.0" or "numpy[build=py39_0]".
func specNamePrefix(spec string) string {
	for i, c := range spec {
		switch c {
		case ' ', '<', '>', '=', '!', '~', '[', '(':
			return spec[:i]
		}
	}
	return spec
}

// didYouMean renders a suggestion clause from the pool's interned strings
// sharing name's prefix, excluding an exact match, via Pool.FindByPrefix
// (internal/pool's armon/go-radix index). Returns "" when nothing else
// shares the prefix.
func didYouMean(p *pool.Pool, name string) string {
	if p == nil || name == "" {
		return ""
	}
	var suggestions []string
	for _, s := range p.FindByPrefix(name) {
		if s != name {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) == 0 {
		return ""
	}
	sort.Strings(suggestions)
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return fmt.Sprintf(" (did you mean: %s?)", strings.Join(suggestions, ", "))
}

func truncateList(items []string, threshold int) ([]string, int) {
	if len(items) <= threshold {
		return items, 0
	}
	kept := append([]string(nil), items[:threshold]...)
	extra := len(items) - threshold
	kept = append(kept, fmt.Sprintf("… (and %d more)", extra))
	return kept, extra
}
