package problems

import (
	"strings"
	"testing"

	"github.com/mamba-org/mamba-sub007/internal/pool"
	"github.com/mamba-org/mamba-sub007/internal/solver"
)

func addPkg(p *pool.Pool, repo pool.RepoId, name, version string) pool.SolvableId {
	sid := p.AddSolvable(repo)
	s := p.Solvable(sid)
	s.Name = p.AddString(name)
	s.EVR = p.AddString(version)
	p.EnsureSelfProvide(sid)
	return sid
}

// TestCompressUnsolvableMenuPyicons exercises spec.md §8 scenario 4: two
// jobs pinning incompatible versions of pyicons should compress into one
// Root, one pyicons group carrying both versions, and two edges in.
func TestCompressUnsolvableMenuPyicons(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	pyicons1 := addPkg(p, repo, "pyicons", "1.0")
	pyicons2 := addPkg(p, repo, "pyicons", "2.0")
	menu := addPkg(p, repo, "menu", "1.4")
	p.CreateWhatprovides()

	probs := []solver.Problem{
		{Kind: solver.RulePkgSameName, Source: solver.RootSource, Target: pyicons1, Spec: "pyicons =1.*"},
		{Kind: solver.RulePkgSameName, Source: menu, Target: pyicons2, Spec: "pyicons =2.*"},
	}

	g := Build(p, probs)
	cg := Compress(g)

	var pyiconsGroup *GroupNode
	for i := range cg.Nodes {
		if cg.Nodes[i].Name == "pyicons" {
			pyiconsGroup = &cg.Nodes[i]
		}
	}
	if pyiconsGroup == nil {
		t.Fatal("expected a compressed pyicons node")
	}
	if len(pyiconsGroup.Versions) != 2 {
		t.Fatalf("expected pyicons group to carry both versions, got %v", pyiconsGroup.Versions)
	}

	rendered, truncated := Render(cg, RenderOptions{})
	if len(truncated) != 0 {
		t.Fatalf("did not expect truncation for 2 versions, got %+v", truncated)
	}
	if !strings.Contains(rendered, "pyicons") {
		t.Fatalf("expected rendered tree to mention pyicons, got %q", rendered)
	}
}

func TestConflictMapSymmetry(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	a := addPkg(p, repo, "a", "1.0")
	b := addPkg(p, repo, "b", "1.0")
	p.CreateWhatprovides()

	g := Build(p, []solver.Problem{{Kind: solver.RulePkgConflicts, Source: a, Target: b, Spec: "a-b conflict"}})

	aNode := g.getOrCreate(Node{Kind: NodePackage, Solvable: a})
	bNode := g.getOrCreate(Node{Kind: NodePackage, Solvable: b})

	if _, ok := g.ConflictMap[aNode][bNode]; !ok {
		t.Fatal("expected a to conflict with b")
	}
	if _, ok := g.ConflictMap[bNode][aNode]; !ok {
		t.Fatal("expected symmetric conflict: b must also conflict with a")
	}
}
