package link

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamba-org/mamba-sub007/internal/activation"
)

// noopWrapper satisfies activation.Wrapper without spawning a process;
// used by tests that don't exercise the noarch pyc/post-link paths.
type noopWrapper struct{}

func (noopWrapper) Command(ctx context.Context, prefix, script string, env []string) (*exec.Cmd, func(), error) {
	return exec.Command("true"), func() {}, nil
}

var _ activation.Wrapper = noopWrapper{}

// TestLinkPrefixRewriteText exercises spec.md §8 scenario 5: a text file
// with a prefix_placeholder shebang gets rewritten to the real prefix.
func TestLinkPrefixRewriteText(t *testing.T) {
	src := t.TempDir()
	prefix := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "info"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))

	placeholder := "/opt/placeholder/prefix"
	content := "#!" + placeholder + "/bin/python\nprint('hi')\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "app"), []byte(content), 0o755))

	paths := PathsJSON{
		PathsVersion: 1,
		Paths: []PathEntry{
			{Path: "bin/app", PathType: "hardlink", PrefixPlaceholder: placeholder, FileMode: "text"},
		},
	}
	rawPaths, err := json.Marshal(paths)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, "info", "paths.json"), rawPaths, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "info", "index.json"), []byte(`{"noarch": null}`), 0o644))

	l := New(TransactionContext{BinDir: "bin"}, noopWrapper{}, nil)
	pkg := PackageSpec{Name: "app", Version: "1.0", Build: "0"}

	rec, err := l.Link(context.Background(), src, prefix, pkg, "app")
	require.NoError(t, err)

	destContent, err := os.ReadFile(filepath.Join(prefix, "bin", "app"))
	require.NoError(t, err)
	require.Contains(t, string(destContent), "#!"+prefix+"/bin/python\n")

	sum := sha256.Sum256(destContent)
	want := hex.EncodeToString(sum[:])

	var gotHash string
	for _, p := range rec.PathsData.Paths {
		if p.Path == "bin/app" {
			gotHash = p.SHA256InPrefix
		}
	}
	require.Equal(t, want, gotHash)

	// The conda-meta record's existence is the atomicity marker (spec.md
	// §4.6 "Final commit").
	_, err = os.Stat(filepath.Join(prefix, "conda-meta", MetaFileName(pkg)))
	require.NoError(t, err)
}
