package link

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mamba-org/mamba-sub007/internal/activation"
	"github.com/mamba-org/mamba-sub007/internal/fs"
)

// Linker materializes one extracted package directory into a prefix
// (spec.md §4.6), grounded on
// original_source/libmamba/src/core/link.cpp's per-file action sequence.
type Linker struct {
	ctx     TransactionContext
	wrapper activation.Wrapper
	log     *logrus.Entry
}

// New returns a Linker bound to ctx. wrapper drives post-link script and
// pyc-compilation process spawn (spec.md §9 ActivationWrapper note); a
// nil wrapper selects activation.NewShellWrapper().
func New(ctx TransactionContext, wrapper activation.Wrapper, log *logrus.Entry) *Linker {
	if wrapper == nil {
		wrapper = activation.NewShellWrapper()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Linker{ctx: ctx, wrapper: wrapper, log: log}
}

// Link performs spec.md §4.6 end to end: per-file materialization, noarch
// postprocessing, post-link script execution, and the final conda-meta
// commit. On success the returned *MetadataRecord has already been
// written to <prefix>/conda-meta/<name>-<ver>-<build>.json.
func (l *Linker) Link(ctx context.Context, srcDir, prefix string, pkg PackageSpec, requestedSpec string) (*MetadataRecord, error) {
	if _, err := os.Stat(filepath.Join(srcDir, "info", pkg.Name+"-pre-link.sh")); err == nil {
		return nil, &PreLinkScriptError{Package: pkg.Name}
	}
	if _, err := os.Stat(filepath.Join(srcDir, "info", pkg.Name+"-pre-link.bat")); err == nil {
		return nil, &PreLinkScriptError{Package: pkg.Name}
	}

	paths, err := readPathsJSON(srcDir)
	if err != nil {
		return nil, errors.Wrap(err, "link: reading info/paths.json")
	}

	isNoarchPython := false
	if nr, err := readNoarchFlag(srcDir); err == nil {
		isNoarchPython = nr
	}

	hashByPath := map[string]string{}
	var recorded []RecordedPath

	for _, entry := range paths.Paths {
		rp, err := l.linkOne(srcDir, prefix, entry, isNoarchPython, hashByPath)
		if err != nil {
			return nil, &LinkFailure{Path: entry.Path, Err: err}
		}
		recorded = append(recorded, rp)
	}

	var entryPoints []string
	if lj, err := readLinkJSON(srcDir); err == nil && lj != nil {
		entryPoints = lj.Noarch.EntryPoints
	}

	if isNoarchPython {
		pyc, err := l.compileNoarchPyc(ctx, prefix)
		if err != nil {
			l.log.WithError(err).Warn("link: noarch pyc compilation failed (cross-compiling?)")
		} else {
			recorded = append(recorded, pyc...)
		}

		eps, err := l.emitEntryPoints(prefix, entryPoints)
		if err != nil {
			return nil, &LinkFailure{Path: "noarch.entry_points", Err: err}
		}
		recorded = append(recorded, eps...)
	}

	rec := &MetadataRecord{
		Name:          pkg.Name,
		Version:       pkg.Version,
		Build:         pkg.Build,
		BuildNumber:   pkg.BuildNumber,
		Channel:       pkg.Channel,
		Subdir:        pkg.Subdir,
		FileName:      pkg.FileName,
		URL:           pkg.URL,
		MD5:           pkg.MD5,
		SHA256:        pkg.SHA256,
		Size:          pkg.Size,
		Depends:       pkg.Depends,
		Constrains:    pkg.Constrains,
		RequestedSpec: requestedSpec,
	}
	rec.PathsData.Paths = recorded
	for _, rp := range recorded {
		rec.Files = append(rec.Files, rp.Path)
	}
	rec.Link.Source = srcDir
	rec.Link.Type = "hardlink"

	// Post-link script runs after every file is linked but before the
	// conda-meta commit is considered final (spec.md §4.6); the record
	// is still written even on script failure so an operator can unlink.
	var postErr error
	if err := l.runPostLinkScript(ctx, srcDir, prefix, pkg); err != nil {
		postErr = err
	}

	if err := l.writeMetadata(prefix, pkg, rec); err != nil {
		return nil, errors.Wrap(err, "link: writing conda-meta record")
	}

	if postErr != nil {
		return rec, postErr
	}
	return rec, nil
}

// linkOne performs spec.md §4.6 steps 1-5 for a single paths.json entry.
func (l *Linker) linkOne(srcDir, prefix string, entry PathEntry, isNoarchPython bool, hashByPath map[string]string) (RecordedPath, error) {
	dest := l.destinationFor(prefix, entry.Path, isNoarchPython)

	if err := os.MkdirAll(filepath.Dir(dest), 0o775); err != nil {
		return RecordedPath{}, err
	}

	if _, err := os.Lstat(dest); err == nil {
		l.log.WithField("path", dest).Warn("link: clobbering existing file") // ClobberWarning (spec.md §7): warning, never an error
		if !l.ctx.Windows {
			if rmErr := os.Remove(dest); rmErr != nil {
				return RecordedPath{}, rmErr
			}
		}
	}

	src := filepath.Join(srcDir, entry.Path)

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return RecordedPath{}, err
	}
	if srcInfo.Mode()&os.ModeSymlink != 0 {
		if err := fs.CopySymlink(src, dest); err != nil {
			return RecordedPath{}, err
		}
		if target, rlErr := os.Readlink(src); rlErr == nil {
			if h, ok := hashByPath[target]; ok {
				hashByPath[entry.Path] = h
			}
		}
		return RecordedPath{Path: entry.Path, PathType: string(PathTypeSoftlink), NoLink: entry.NoLink, SizeInBytes: entry.SizeInBytes}, nil
	}

	if entry.PrefixPlaceholder != "" {
		content, err := os.ReadFile(src)
		if err != nil {
			return RecordedPath{}, err
		}
		rewritten, err := l.rewrite(content, entry, prefix)
		if err != nil {
			return RecordedPath{}, err
		}
		if err := os.WriteFile(dest, rewritten, srcInfo.Mode().Perm()); err != nil {
			return RecordedPath{}, err
		}
		if entry.FileMode == "binary" && l.isDarwinArm64Binary(rewritten) {
			if err := codesignMacArm64(dest); err != nil {
				l.log.WithError(err).Warn("link: codesign failed")
			}
		}
		sum := sha256.Sum256(rewritten)
		hash := hex.EncodeToString(sum[:])
		hashByPath[entry.Path] = hash
		return RecordedPath{Path: entry.Path, PathType: string(PathTypeHardlink), SHA256InPrefix: hash, NoLink: entry.NoLink, SizeInBytes: int64(len(rewritten))}, nil
	}

	pt, err := fs.LinkOrCopy(src, dest, l.ctx.AllowSoftlinks, l.ctx.AlwaysCopy, l.ctx.AlwaysSoftlink)
	if err != nil {
		return RecordedPath{}, err
	}
	if entry.SHA256 != "" {
		hashByPath[entry.Path] = entry.SHA256
	}
	return RecordedPath{Path: entry.Path, PathType: string(pt), SHA256InPrefix: entry.SHA256, NoLink: entry.NoLink, SizeInBytes: entry.SizeInBytes}, nil
}

// destinationFor maps a paths.json entry's _path to its prefix-relative
// destination, applying the noarch-python site-packages remap (spec.md
// §4.6 step 1).
func (l *Linker) destinationFor(prefix, path string, isNoarchPython bool) string {
	if isNoarchPython && strings.HasPrefix(path, "site-packages/") {
		rest := strings.TrimPrefix(path, "site-packages/")
		return filepath.Join(prefix, l.ctx.SitePackagesPath, rest)
	}
	return filepath.Join(prefix, path)
}

func (l *Linker) rewrite(content []byte, entry PathEntry, prefix string) ([]byte, error) {
	switch entry.FileMode {
	case "binary":
		if rewritten, ok := rewritePyzzer(content, entry.PrefixPlaceholder, prefix); ok {
			return rewritten, nil
		}
		return rewriteBinary(content, entry.PrefixPlaceholder, prefix)
	default: // "text" or unset
		return rewriteText(content, entry.PrefixPlaceholder, prefix, l.ctx.Windows), nil
	}
}

func (l *Linker) isDarwinArm64Binary(content []byte) bool {
	// Mach-O arm64 magic (0xFEEDFACF little-endian) — a minimal sniff,
	// sufficient to gate the codesign call without a full Mach-O parser.
	return len(content) >= 4 && content[0] == 0xCF && content[1] == 0xFA && content[2] == 0xED && content[3] == 0xFE
}

func readPathsJSON(srcDir string) (*PathsJSON, error) {
	raw, err := os.ReadFile(filepath.Join(srcDir, "info", "paths.json"))
	if err != nil {
		return nil, err
	}
	var p PathsJSON
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func readLinkJSON(srcDir string) (*LinkJSON, error) {
	raw, err := os.ReadFile(filepath.Join(srcDir, "info", "link.json"))
	if err != nil {
		return nil, err
	}
	var lj LinkJSON
	if err := json.Unmarshal(raw, &lj); err != nil {
		return nil, err
	}
	return &lj, nil
}

// readNoarchFlag reads info/index.json's "noarch" field to decide whether
// this package is noarch:python (spec.md §4.6).
func readNoarchFlag(srcDir string) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(srcDir, "info", "index.json"))
	if err != nil {
		return false, err
	}
	var idx struct {
		Noarch string `json:"noarch"`
	}
	if err := json.Unmarshal(raw, &idx); err != nil {
		return false, err
	}
	return idx.Noarch == "python", nil
}

func (l *Linker) writeMetadata(prefix string, pkg PackageSpec, rec *MetadataRecord) error {
	metaDir := filepath.Join(prefix, "conda-meta")
	if err := os.MkdirAll(metaDir, 0o775); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	dest := filepath.Join(metaDir, MetaFileName(pkg))
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o664); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}
