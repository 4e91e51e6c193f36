package txn

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamba-org/mamba-sub007/internal/activation"
	"github.com/mamba-org/mamba-sub007/internal/link"
	"github.com/mamba-org/mamba-sub007/internal/pool"
	"github.com/mamba-org/mamba-sub007/internal/solver"
	"github.com/mamba-org/mamba-sub007/internal/unlink"
)

type noopWrapper struct{}

func (noopWrapper) Command(ctx context.Context, prefix, script string, env []string) (*exec.Cmd, func(), error) {
	return exec.Command("true"), func() {}, nil
}

var _ activation.Wrapper = noopWrapper{}

// fakeSource lays down a minimal extracted package tree on first
// request and reuses it afterward, so rollback's re-extraction request
// for a just-removed package resolves the same way a real package cache
// would (spec.md §5: "the package cache directory is shared across
// prefixes ... and concurrent processes").
type fakeSource struct {
	root  string
	files map[string]string // package name -> relative file content
}

func (s *fakeSource) ExtractedDir(pkg link.PackageSpec) (string, error) {
	dir := filepath.Join(s.root, pkg.Name+"-"+pkg.Version)
	if _, err := os.Stat(filepath.Join(dir, "info", "index.json")); err == nil {
		return dir, nil
	}

	content, ok := s.files[pkg.Name]
	if !ok {
		content = "payload\n"
	}
	relPath := "bin/" + pkg.Name
	if err := os.MkdirAll(filepath.Join(dir, "info"), 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, relPath), []byte(content), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "info", "index.json"), []byte(`{"noarch": null}`), 0o644); err != nil {
		return "", err
	}
	paths := link.PathsJSON{PathsVersion: 1, Paths: []link.PathEntry{{Path: relPath, PathType: "hardlink"}}}
	raw, err := json.Marshal(paths)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "info", "paths.json"), raw, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

func addPkg(p *pool.Pool, repo pool.RepoId, name, version string) pool.SolvableId {
	sid := p.AddSolvable(repo)
	s := p.Solvable(sid)
	s.Name = p.AddString(name)
	s.EVR = p.AddString(version)
	p.EnsureSelfProvide(sid)
	return sid
}

func newExecutor(t *testing.T, prefix, cacheRoot string) *Executor {
	t.Helper()
	linker := link.New(link.TransactionContext{BinDir: "bin"}, noopWrapper{}, nil)
	unlinker := unlink.New(nil)
	source := &fakeSource{root: cacheRoot}
	return NewExecutor(prefix, linker, unlinker, source, 0, nil)
}

// TestExecutorInstallThenRemove exercises a plain Install step followed
// by a plain Remove step, each driving Link/Unlink through the same
// Executor (spec.md Component I).
func TestExecutorInstallThenRemove(t *testing.T) {
	prefix := t.TempDir()
	cacheRoot := t.TempDir()
	p := pool.New()
	repo := p.AddRepo("defaults")
	foo := addPkg(p, repo, "foo", "1.0")
	p.CreateWhatprovides()

	e := newExecutor(t, prefix, cacheRoot)

	install := &solver.Transaction{Steps: []solver.Step{{Kind: solver.StepInstall, Remove: pool.InvalidSolvableId, Install: foo}}}
	require.NoError(t, e.Run(context.Background(), p, install, nil))

	_, err := os.Stat(filepath.Join(prefix, "bin", "foo"))
	require.NoError(t, err)

	remove := &solver.Transaction{Steps: []solver.Step{{Kind: solver.StepRemove, Remove: foo, Install: pool.InvalidSolvableId}}}
	require.NoError(t, e.Run(context.Background(), p, remove, nil))

	_, err = os.Stat(filepath.Join(prefix, "bin", "foo"))
	require.True(t, os.IsNotExist(err))
}

// TestExecutorRollsBackOnLinkFailure exercises spec.md §7: a LinkFailure
// on a later step rolls back every step already completed in the same
// transaction, in reverse order.
func TestExecutorRollsBackOnLinkFailure(t *testing.T) {
	prefix := t.TempDir()
	cacheRoot := t.TempDir()
	p := pool.New()
	repo := p.AddRepo("defaults")
	good := addPkg(p, repo, "good", "1.0")
	bad := addPkg(p, repo, "bad", "1.0")
	p.CreateWhatprovides()

	e := newExecutor(t, prefix, cacheRoot)

	// Pre-create bad's extracted source with info/ metadata listing a
	// single path whose source file is absent, so Link surfaces a
	// *link.LinkFailure.
	badDir := filepath.Join(cacheRoot, "bad-1.0")
	require.NoError(t, os.MkdirAll(filepath.Join(badDir, "info"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "info", "index.json"), []byte(`{"noarch": null}`), 0o644))
	paths := link.PathsJSON{PathsVersion: 1, Paths: []link.PathEntry{{Path: "bin/bad", PathType: "hardlink"}}}
	raw, err := json.Marshal(paths)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "info", "paths.json"), raw, 0o644))
	// No bin/bad source file is ever written, so linkOne's Lstat(src) fails.

	txn := &solver.Transaction{Steps: []solver.Step{
		{Kind: solver.StepInstall, Remove: pool.InvalidSolvableId, Install: good},
		{Kind: solver.StepInstall, Remove: pool.InvalidSolvableId, Install: bad},
	}}

	err = e.Run(context.Background(), p, txn, nil)
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(prefix, "bin", "good"))
	require.True(t, os.IsNotExist(err), "rollback must unlink the already-completed good step")
	_, err = os.Stat(filepath.Join(prefix, "conda-meta", "good-1.0-.json"))
	require.True(t, os.IsNotExist(err))
}
