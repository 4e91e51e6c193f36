package pool

import "testing"

func TestCompareEVR(t *testing.T) {
	chain := []string{
		"1.0a1", "1.0a2", "1.0b1", "1.0rc1", "1.0", "1.0.post1", "1.0.1",
	}
	for i := 0; i < len(chain)-1; i++ {
		if CompareEVR(chain[i], chain[i+1]) >= 0 {
			t.Errorf("expected %q < %q", chain[i], chain[i+1])
		}
	}

	if CompareEVR("2!1.0", "1!99.0") <= 0 {
		t.Error("expected 2!1.0 > 1!99.0")
	}
	if CompareEVR("1.0+local", "1.0") <= 0 {
		t.Error("expected 1.0+local > 1.0")
	}
	if CompareEVR("1.0", "1.0") != 0 {
		t.Error("expected 1.0 == 1.0")
	}
}

func TestMatchSpecParse(t *testing.T) {
	ms, err := ParseMatchSpec("numpy >=1.20,<2.0 py39_0")
	if err != nil {
		t.Fatal(err)
	}
	if ms.Name != "numpy" || ms.Version != ">=1.20,<2.0" || ms.BuildString != "py39_0" {
		t.Fatalf("got %+v", ms)
	}

	round, err := ParseMatchSpec(ms.String())
	if err != nil {
		t.Fatal(err)
	}
	if round.Name != ms.Name || round.Version != ms.Version || round.BuildString != ms.BuildString {
		t.Fatalf("round trip mismatch: %+v vs %+v", round, ms)
	}
}

func TestSatisfiesConstraint(t *testing.T) {
	if SatisfiesConstraint("1.5", ">=1.20,<2.0") {
		t.Error("1.5 should not satisfy >=1.20,<2.0")
	}
	if !SatisfiesConstraint("1.25", ">=1.20,<2.0") {
		t.Error("1.25 should satisfy >=1.20,<2.0")
	}
	if !SatisfiesConstraint("1.0", ">=1.2,<2|=1.0") {
		t.Error("1.0 should satisfy the second disjunct =1.0")
	}
}

func TestDesugarVersion(t *testing.T) {
	if got := DesugarVersion("1.2.*"); got != ">=1.2,<1.3" {
		t.Fatalf("got %q", got)
	}
}

func TestPoolSelfProvide(t *testing.T) {
	p := New()
	repo := p.AddRepo("defaults")
	sid := p.AddSolvable(repo)
	s := p.Solvable(sid)
	s.Name = p.AddString("numpy")
	s.EVR = p.AddString("1.20.0")
	p.EnsureSelfProvide(sid)

	name, flag, evr := p.Dependency(s.Provides[0])
	if name != s.Name || flag != RelEQ || evr != s.EVR {
		t.Fatalf("self provide mismatch")
	}
}
