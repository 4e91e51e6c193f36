package repodata

import (
	"strings"
	"testing"

	"github.com/mamba-org/mamba-sub007/internal/pool"
)

const sampleRepodata = `{
  "info": {"subdir": "linux-64"},
  "packages": {
    "foo-2.5-0.tar.bz2": {"name": "foo", "version": "2.5", "build": "0", "build_number": 0, "depends": []},
    "foo-3.5-0.tar.bz2": {"name": "foo", "version": "3.5", "build": "0", "build_number": 0, "depends": []},
    "pkg-3.0.0-0.tar.bz2": {"name": "pkg", "version": "3.0.0", "build": "0", "build_number": 0, "depends": ["foo>3.0"]}
  },
  "packages.conda": {}
}`

func TestLoadJSON(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")

	err := LoadJSON(strings.NewReader(sampleRepodata), p, repo, Options{RepoURL: "https://repo.example/linux-64"})
	if err != nil {
		t.Fatal(err)
	}
	if p.NumSolvables() != 3 {
		t.Fatalf("expected 3 solvables, got %d", p.NumSolvables())
	}
	if !p.Repo(repo).Internalized() {
		t.Fatal("expected repo to be internalized")
	}
}

func TestLoadJSONMalformed(t *testing.T) {
	p := pool.New()
	repo := p.AddRepo("defaults")
	err := LoadJSON(strings.NewReader("{not json"), p, repo, Options{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ParseError
	if !asParseError(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func asParseError(err error, target **ParseError) bool {
	if pe, ok := err.(*ParseError); ok {
		*target = pe
		return true
	}
	return false
}
