// Package activation defines the narrow boundary through which the Linker
// invokes external processes (post-link scripts, pyc compilation), per
// spec.md §9's design note: "the target must keep this boundary: an
// ActivationWrapper trait produces a (command, tempfile) pair given a
// prefix and a script path". Grounded on the teacher's (golang/dep)
// vcs_repo.go discipline of never calling exec.Command scattered through
// business logic — the whole repo funnels external-binary invocation
// through one narrow ctxRepo-shaped interface; this package is that same
// shape for script/pyc invocation.
package activation

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// Wrapper produces a ready-to-run *exec.Cmd for a script that must see
// the target prefix's activated environment (PATH, PREFIX, etc.), per
// spec.md §4.6 "Execution is activated: the script runs inside a
// temporary wrapper that sources the shell activation for the prefix".
type Wrapper interface {
	// Command builds the command to run scriptPath inside prefix's
	// activated environment, with extraEnv appended to the child's
	// environment. It returns the *exec.Cmd and a cleanup func the caller
	// must invoke once the command has finished (removes any temp
	// wrapper file).
	Command(ctx context.Context, prefix, scriptPath string, extraEnv []string) (*exec.Cmd, func(), error)
}

// ShellWrapper is the POSIX/cmd.exe ActivationWrapper: it writes a small
// temporary wrapper script that sources (POSIX) or calls (Windows) the
// prefix's activation machinery, then execs scriptPath from within it.
type ShellWrapper struct {
	// BinDir is "Scripts" on Windows, "bin" elsewhere (spec.md §6).
	BinDir string
}

// NewShellWrapper returns the platform-appropriate ActivationWrapper.
func NewShellWrapper() *ShellWrapper {
	binDir := "bin"
	if runtime.GOOS == "windows" {
		binDir = "Scripts"
	}
	return &ShellWrapper{BinDir: binDir}
}

func (w *ShellWrapper) Command(ctx context.Context, prefix, scriptPath string, extraEnv []string) (*exec.Cmd, func(), error) {
	wrapper, err := os.CreateTemp("", "mamba-sub007-activate-*"+w.scriptExt())
	if err != nil {
		return nil, nil, errors.Wrap(err, "activation: creating temp wrapper")
	}
	cleanup := func() { os.Remove(wrapper.Name()) }

	content := w.wrapperBody(prefix, scriptPath)
	if _, err := wrapper.WriteString(content); err != nil {
		wrapper.Close()
		cleanup()
		return nil, nil, errors.Wrap(err, "activation: writing temp wrapper")
	}
	if err := wrapper.Close(); err != nil {
		cleanup()
		return nil, nil, errors.Wrap(err, "activation: closing temp wrapper")
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(wrapper.Name(), 0o755); err != nil {
			cleanup()
			return nil, nil, errors.Wrap(err, "activation: chmod temp wrapper")
		}
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd.exe", "/C", wrapper.Name())
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", wrapper.Name())
	}
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Env = append(cmd.Env, "PATH="+filepath.Join(prefix, w.BinDir)+string(os.PathListSeparator)+os.Getenv("PATH"))
	return cmd, cleanup, nil
}

func (w *ShellWrapper) scriptExt() string {
	if runtime.GOOS == "windows" {
		return ".bat"
	}
	return ".sh"
}

func (w *ShellWrapper) wrapperBody(prefix, scriptPath string) string {
	if runtime.GOOS == "windows" {
		return "@echo off\r\ncall \"" + filepath.Join(prefix, "condabin", "activate.bat") + "\" \"" + prefix + "\"\r\ncall \"" + scriptPath + "\"\r\n"
	}
	return "#!/bin/sh\nset -e\n. \"" + filepath.Join(prefix, "etc", "profile.d", "conda.sh") + "\" 2>/dev/null || true\nexport PATH=\"" + filepath.Join(prefix, "bin") + ":$PATH\"\nsh \"" + scriptPath + "\"\n"
}
