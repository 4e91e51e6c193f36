package link

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// runPostLinkScript places and executes info/<name>-post-link.{sh,bat}
// if present (spec.md §4.6 "Script invocation"). Pre-link scripts are
// rejected before Link ever reaches this point (see PreLinkScriptError
// in Link itself).
func (l *Linker) runPostLinkScript(ctx context.Context, srcDir, prefix string, pkg PackageSpec) error {
	ext := ".sh"
	if l.ctx.Windows {
		ext = ".bat"
	}
	name := pkg.Name + "-post-link" + ext
	src := filepath.Join(srcDir, "info", name)
	if _, err := os.Stat(src); err != nil {
		return nil
	}

	dest := filepath.Join(prefix, l.ctx.BinDir, "."+name)
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o775); err != nil {
		return err
	}
	if err := os.WriteFile(dest, content, 0o755); err != nil {
		return err
	}

	env := ScriptEnv(prefix, pkg.Name, pkg.Version, fmt.Sprint(pkg.BuildNumber), filepath.Join(prefix, l.ctx.BinDir))

	cmd, cleanup, err := l.wrapper.Command(ctx, prefix, dest, env)
	if err != nil {
		return err
	}
	defer cleanup()

	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return &PostLinkScriptFailure{Package: pkg.Name, Stderr: string(out), Err: runErr}
	}
	return nil
}

// ScriptEnv builds the fixed env-var set passed to post-link scripts:
// ROOT_PREFIX, PREFIX, PKG_NAME, PKG_VERSION, PKG_BUILDNUM, PATH. Its only
// caller is runPostLinkScript; internal/unlink runs no scripts.
func ScriptEnv(prefix, name, version, buildNumber, binDir string) []string {
	return []string{
		"ROOT_PREFIX=" + prefix,
		"PREFIX=" + prefix,
		"PKG_NAME=" + name,
		"PKG_VERSION=" + version,
		"PKG_BUILDNUM=" + buildNumber,
		"PATH=" + binDir,
	}
}
