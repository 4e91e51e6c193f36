package unlink

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamba-org/mamba-sub007/internal/link"
)

type noopWrapper struct{}

func (noopWrapper) Command(ctx context.Context, prefix, script string, env []string) (*exec.Cmd, func(), error) {
	return exec.Command("true"), func() {}, nil
}

// TestLinkThenUnlinkRoundTrip links a package with no post-link script,
// unlinks it, and checks that its file, the file's emptied parent
// directories and its conda-meta record are all gone.
func TestLinkThenUnlinkRoundTrip(t *testing.T) {
	src := t.TempDir()
	prefix := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "info"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "share", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "share", "app", "data.txt"), []byte("hello\n"), 0o644))

	paths := link.PathsJSON{
		PathsVersion: 1,
		Paths: []link.PathEntry{
			{Path: "share/app/data.txt", PathType: "hardlink"},
		},
	}
	rawPaths, err := json.Marshal(paths)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, "info", "paths.json"), rawPaths, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "info", "index.json"), []byte(`{"noarch": null}`), 0o644))

	l := link.New(link.TransactionContext{BinDir: "bin"}, noopWrapper{}, nil)
	pkg := link.PackageSpec{Name: "app", Version: "1.0", Build: "0"}
	_, err = l.Link(context.Background(), src, prefix, pkg, "app")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(prefix, "share", "app", "data.txt"))
	require.NoError(t, err)

	u := New(nil)
	require.NoError(t, u.Unlink(prefix, pkg))

	_, err = os.Stat(filepath.Join(prefix, "share", "app", "data.txt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(prefix, "share", "app"))
	require.True(t, os.IsNotExist(err), "empty parent directories must be pruned")
	_, err = os.Stat(filepath.Join(prefix, "conda-meta", link.MetaFileName(pkg)))
	require.True(t, os.IsNotExist(err), "conda-meta record must be removed")

	// Pruning continues up to (not including) the prefix, so share/ is
	// gone too. conda-meta/ itself is not a package path and is kept.
	shareEntries, err := os.ReadDir(filepath.Join(prefix, "share"))
	require.True(t, os.IsNotExist(err) || len(shareEntries) == 0)
}

// TestUnlinkIdempotentOnMissingFiles exercises spec.md §4.7: Unlink must
// not fail when listed files are already gone.
func TestUnlinkIdempotentOnMissingFiles(t *testing.T) {
	prefix := t.TempDir()
	pkg := link.PackageSpec{Name: "gone", Version: "1.0", Build: "0"}

	rec := link.MetadataRecord{Name: pkg.Name, Version: pkg.Version, Build: pkg.Build}
	rec.PathsData.Paths = []link.RecordedPath{{Path: "bin/already-gone", PathType: "hardlink"}}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "conda-meta"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "conda-meta", link.MetaFileName(pkg)), raw, 0o644))

	u := New(nil)
	require.NoError(t, u.Unlink(prefix, pkg))
}
