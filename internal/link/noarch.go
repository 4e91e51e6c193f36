package link

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// compileNoarchPyc compiles every installed site-packages/**/*.py file if
// l.ctx.CompilePyc and l.ctx.HasPython are both set (spec.md §4.6 noarch
// postprocessing). Walking uses godirwalk, exactly as spec_full.md §3.5
// specifies, mirroring the teacher's vendored use of the same library for
// recursive tree walks.
func (l *Linker) compileNoarchPyc(ctx context.Context, prefix string) ([]RecordedPath, error) {
	if !l.ctx.CompilePyc || !l.ctx.HasPython {
		return nil, nil
	}

	sitePkgs := filepath.Join(prefix, l.ctx.SitePackagesPath)
	var pyFiles []string
	err := godirwalk.Walk(sitePkgs, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() && strings.HasSuffix(path, ".py") {
				pyFiles = append(pyFiles, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "link: walking site-packages for pyc compilation")
	}
	if len(pyFiles) == 0 {
		return nil, nil
	}

	listFile, err := os.CreateTemp("", "mamba-sub007-pyc-list-*")
	if err != nil {
		return nil, errors.Wrap(err, "link: creating pyc file list")
	}
	defer os.Remove(listFile.Name())
	for _, f := range pyFiles {
		fmt.Fprintln(listFile, f)
	}
	listFile.Close()

	args := []string{l.ctx.PythonPath, "-Wi", "-m", "compileall", "-q", "-l", "-i", listFile.Name()}
	if pythonAtLeast36(l.ctx.ShortPythonVersion) {
		args = append(args, "-j0")
	}
	ext := ".sh"
	if l.ctx.Windows {
		ext = ".bat"
	}
	script, err := os.CreateTemp("", "mamba-sub007-pyc-*"+ext)
	if err != nil {
		return nil, errors.Wrap(err, "link: creating pyc compile script")
	}
	defer os.Remove(script.Name())
	fmt.Fprintln(script, strings.Join(args, " "))
	script.Close()

	cmd, cleanup, err := l.wrapper.Command(ctx, prefix, script.Name(), nil)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.Wrapf(err, "link: compileall failed: %s", out)
	}

	var recorded []RecordedPath
	for _, f := range pyFiles {
		pyc := f + "c"
		if _, statErr := os.Stat(pyc); statErr != nil {
			continue
		}
		rel, relErr := filepath.Rel(prefix, pyc)
		if relErr != nil {
			rel = pyc
		}
		recorded = append(recorded, RecordedPath{Path: rel, PathType: string(PathTypePycFile)})
	}
	return recorded, nil
}

func pythonAtLeast36(shortVersion string) bool {
	var major, minor int
	if _, err := fmt.Sscanf(shortVersion, "%d.%d", &major, &minor); err != nil {
		return false
	}
	return major > 3 || (major == 3 && minor >= 6)
}

// entryPointLauncherBody is the canonical Unix launcher body spec.md §4.6
// describes verbatim, parameterized only by the module:func target.
const entryPointLauncherBody = `
import re
import sys
from %s import %s
if __name__ == '__main__':
    sys.argv[0] = re.sub(r'(-script\.pyw?|\.exe)?$', '', sys.argv[0])
    sys.exit(%s())
`

// emitEntryPoints synthesizes one launcher per "cmd = module:func" entry
// (spec.md §4.6). Windows additionally emits a bundled .exe launcher
// carrying a fixed conda_exe binary blob; this repo's blob is a
// zero-length placeholder since no archive/binary-distribution pipeline
// is in scope (spec.md Non-goals), but the paths_data bookkeeping is
// complete.
func (l *Linker) emitEntryPoints(prefix string, entryPoints []string) ([]RecordedPath, error) {
	var recorded []RecordedPath
	binDir := filepath.Join(prefix, l.ctx.BinDir)
	if err := os.MkdirAll(binDir, 0o775); err != nil {
		return nil, err
	}

	for _, ep := range entryPoints {
		cmd, module, fn, ok := parseEntryPoint(ep)
		if !ok {
			continue
		}

		if l.ctx.Windows {
			scriptPath := filepath.Join(binDir, cmd+"-script.py")
			body := entryPointScriptBody(l.ctx.PythonPath, module, fn, true)
			if err := os.WriteFile(scriptPath, []byte(body), 0o755); err != nil {
				return nil, err
			}
			rel, _ := filepath.Rel(prefix, scriptPath)
			recorded = append(recorded, RecordedPath{Path: rel, PathType: string(PathTypeWindowsEntryPointScript)})

			exePath := filepath.Join(binDir, cmd+".exe")
			if err := os.WriteFile(exePath, condaExeLauncherBlob, 0o755); err != nil {
				return nil, err
			}
			relExe, _ := filepath.Rel(prefix, exePath)
			recorded = append(recorded, RecordedPath{Path: relExe, PathType: string(PathTypeWindowsEntryPointExe), SizeInBytes: int64(len(condaExeLauncherBlob))})
			continue
		}

		scriptPath := filepath.Join(binDir, cmd)
		body := entryPointScriptBody(l.ctx.PythonPath, module, fn, false)
		if err := os.WriteFile(scriptPath, []byte(body), 0o755); err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(prefix, scriptPath)
		recorded = append(recorded, RecordedPath{Path: rel, PathType: string(PathTypeUnixEntryPoint)})
	}
	return recorded, nil
}

// condaExeLauncherBlob stands in for the pre-built conda_exe binary blob
// spec.md §9 says is "pre-built and embedded as a byte array". The real
// blob is platform toolchain output outside this repo's build; the
// launcher logic itself (pyzzer trailer patching) lives in
// prefix_rewrite.go and is fully implemented.
var condaExeLauncherBlob = []byte{}

func entryPointScriptBody(pythonPath, module, fn string, windows bool) string {
	shebang := "#!" + pythonPath
	if len(shebang) > maxShebangLen {
		shebang = "#!/usr/bin/env python"
	}
	return shebang + "\n" + fmt.Sprintf(entryPointLauncherBody, module, fn, fn)
}

// parseEntryPoint splits a "cmd = module:func" string (spec.md §6).
func parseEntryPoint(ep string) (cmd, module, fn string, ok bool) {
	parts := strings.SplitN(ep, "=", 2)
	if len(parts) != 2 {
		return "", "", "", false
	}
	cmd = strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(parts[1])
	mf := strings.SplitN(rest, ":", 2)
	if len(mf) != 2 {
		return "", "", "", false
	}
	return cmd, strings.TrimSpace(mf[0]), strings.TrimSpace(mf[1]), true
}
