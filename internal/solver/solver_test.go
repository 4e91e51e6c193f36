package solver

import (
	"testing"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

func addPkg(p *pool.Pool, repo pool.RepoId, name, version string, deps ...string) pool.SolvableId {
	sid := p.AddSolvable(repo)
	s := p.Solvable(sid)
	s.Name = p.AddString(name)
	s.EVR = p.AddString(version)
	for _, d := range deps {
		ms, err := pool.ParseMatchSpec(d)
		if err != nil {
			panic(err)
		}
		depID := p.AddDependency(p.AddString(ms.Name), pool.RelGE, p.AddString(ms.Version))
		s.Dependencies = append(s.Dependencies, depID)
	}
	p.EnsureSelfProvide(sid)
	return sid
}

func TestSolveSimple(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	addPkg(p, repo, "pkg", "2.0.0", "foo>2.0")
	addPkg(p, repo, "pkg", "3.0.0", "foo>3.0")
	addPkg(p, repo, "foo", "2.5")
	addPkg(p, repo, "foo", "3.5")
	p.CreateWhatprovides()

	pkgDep := p.AddDependency(p.AddString("pkg"), pool.RelGE, p.AddString(">1.0"))
	txn, problems, err := Solve(SolveParameters{
		Pool: p,
		Jobs: []Job{InstallDep(pkgDep)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %+v", problems)
	}
	if len(txn.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d: %+v", len(txn.Steps), txn.Steps)
	}

	first := p.Solvable(txn.Steps[0].Install)
	second := p.Solvable(txn.Steps[1].Install)
	if p.String(first.Name) != "foo" || p.String(first.EVR) != "3.5" {
		t.Fatalf("expected first step to install foo-3.5, got %s-%s", p.String(first.Name), p.String(first.EVR))
	}
	if p.String(second.Name) != "pkg" || p.String(second.EVR) != "3.0.0" {
		t.Fatalf("expected second step to install pkg-3.0.0, got %s-%s", p.String(second.Name), p.String(second.EVR))
	}
}

func TestSolveUnsolvable(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	addPkg(p, repo, "pyicons", "1.0")
	addPkg(p, repo, "pyicons", "2.0")
	addPkg(p, repo, "menu", "1.4", "pyicons=2.*")
	p.CreateWhatprovides()

	menuDep := p.AddDependency(p.AddString("menu"), pool.RelGE, p.AddString(""))
	pyiconsDep := p.AddDependency(p.AddString("pyicons"), pool.RelGE, p.AddString("=1.*"))

	txn, problems, err := Solve(SolveParameters{
		Pool: p,
		Jobs: []Job{InstallDep(menuDep), InstallDep(pyiconsDep)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if txn != nil {
		t.Fatalf("expected no transaction, got %+v", txn)
	}
	if len(problems) == 0 {
		t.Fatal("expected a non-empty problem list")
	}
}

func TestSolveDeterministic(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	addPkg(p, repo, "pkg", "2.0.0", "foo>2.0")
	addPkg(p, repo, "pkg", "3.0.0", "foo>3.0")
	addPkg(p, repo, "foo", "2.5")
	addPkg(p, repo, "foo", "3.5")
	p.CreateWhatprovides()

	pkgDep := p.AddDependency(p.AddString("pkg"), pool.RelGE, p.AddString(">1.0"))
	params := SolveParameters{Pool: p, Jobs: []Job{InstallDep(pkgDep)}}

	txn1, _, _ := Solve(params)
	txn2, _, _ := Solve(params)
	if len(txn1.Steps) != len(txn2.Steps) {
		t.Fatal("non-deterministic step count")
	}
	for i := range txn1.Steps {
		if txn1.Steps[i] != txn2.Steps[i] {
			t.Fatalf("non-deterministic step %d: %+v vs %+v", i, txn1.Steps[i], txn2.Steps[i])
		}
	}
}
