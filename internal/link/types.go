// Package link implements Component F: materializing one package into a
// prefix — file ops, prefix rewriting, pyc compilation, entry-point
// generation and pre/post-link scripts (spec.md §4.6). File-op sequencing
// is grounded on original_source/libmamba/src/core/link.cpp, translated
// into the teacher's (golang/dep) file-operation idiom (fs.go's
// IsRegular/IsDir, the atomic-write discipline seen across the repo).
package link

import (
	"github.com/mamba-org/mamba-sub007/internal/pool"
)

// PathType is the full path_type enum spec.md §3 records per-file in a
// conda-meta record.
type PathType string

const (
	PathTypeHardlink               PathType = "hardlink"
	PathTypeSoftlink               PathType = "softlink"
	PathTypeDirectory              PathType = "directory"
	PathTypePycFile                PathType = "pyc_file"
	PathTypeWindowsEntryPointScript PathType = "windows_python_entry_point_script"
	PathTypeWindowsEntryPointExe    PathType = "windows_python_entry_point_exe"
	PathTypeUnixEntryPoint          PathType = "unix_python_entry_point"
)

// PathEntry is one element of the extracted package's info/paths.json
// (spec.md §6).
type PathEntry struct {
	Path              string `json:"_path"`
	PathType          string `json:"path_type"`
	PrefixPlaceholder string `json:"prefix_placeholder,omitempty"`
	FileMode          string `json:"file_mode,omitempty"` // "text" or "binary"
	NoLink            bool   `json:"no_link,omitempty"`
	SHA256            string `json:"sha256,omitempty"`
	SizeInBytes       int64  `json:"size_in_bytes,omitempty"`
}

// PathsJSON is the top-level shape of info/paths.json (spec.md §6).
type PathsJSON struct {
	PathsVersion int         `json:"paths_version"`
	Paths        []PathEntry `json:"paths"`
}

// LinkJSON is the subset of info/link.json this package consumes
// (spec.md §6): noarch entry points.
type LinkJSON struct {
	Noarch struct {
		Type        string   `json:"type"`
		EntryPoints []string `json:"entry_points"`
	} `json:"noarch"`
}

// RecordedPath is one entry of a conda-meta record's paths_data.paths
// array (spec.md §3).
type RecordedPath struct {
	Path           string `json:"_path"`
	PathType       string `json:"path_type"`
	SHA256InPrefix string `json:"sha256_in_prefix,omitempty"`
	NoLink         bool   `json:"no_link,omitempty"`
	SizeInBytes    int64  `json:"size_in_bytes,omitempty"`
}

// MetadataRecord is the sole source of truth for Unlink (spec.md §3, §4.6
// "Final commit"): the original repodata record plus the as-linked paths.
type MetadataRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber uint64   `json:"build_number"`
	Channel     string   `json:"channel"`
	Subdir      string   `json:"subdir"`
	FileName    string   `json:"fn"`
	URL         string   `json:"url"`
	MD5         string   `json:"md5,omitempty"`
	SHA256      string   `json:"sha256,omitempty"`
	Size        uint64   `json:"size,omitempty"`
	Depends     []string `json:"depends,omitempty"`
	Constrains  []string `json:"constrains,omitempty"`

	PathsData struct {
		Paths []RecordedPath `json:"paths"`
	} `json:"paths_data"`

	Files         []string `json:"files"`
	RequestedSpec string   `json:"requested_spec"`
	Link          struct {
		Source string `json:"source"`
		Type   string `json:"type"`
	} `json:"link"`
}

// PackageSpec is the subset of a pool.Solvable the Linker needs, decoupled
// from the Pool so callers can drive Link without holding a live pool
// handle during the (potentially slow) file-materialization phase.
type PackageSpec struct {
	Name        string
	Version     string
	Build       string
	BuildNumber uint64
	Channel     string
	Subdir      string
	FileName    string
	URL         string
	MD5         string
	SHA256      string
	Size        uint64
	Depends     []string
	Constrains  []string
}

// SpecFromSolvable converts a pool.Solvable into the Linker's decoupled
// PackageSpec shape.
func SpecFromSolvable(p *pool.Pool, sid pool.SolvableId) PackageSpec {
	s := p.Solvable(sid)
	spec := PackageSpec{
		Name:        p.String(s.Name),
		Version:     p.String(s.EVR),
		Build:       s.BuildString,
		BuildNumber: s.BuildNumber,
		Channel:     s.Channel,
		Subdir:      s.Subdir,
		FileName:    s.FileName,
		URL:         s.URL,
		MD5:         s.MD5,
		SHA256:      s.SHA256,
		Size:        s.Size,
	}
	for _, d := range s.Dependencies {
		name, flag, version := p.Dependency(d)
		spec.Depends = append(spec.Depends, p.String(name)+" "+flag.String()+p.String(version))
	}
	for _, c := range s.Constraints {
		name, flag, version := p.Dependency(c)
		spec.Constrains = append(spec.Constrains, p.String(name)+" "+flag.String()+p.String(version))
	}
	return spec
}

// MetaFileName is the conda-meta record's filename for pkg (spec.md §3/§6).
func MetaFileName(pkg PackageSpec) string {
	return pkg.Name + "-" + pkg.Version + "-" + pkg.Build + ".json"
}

// TransactionContext supplies the per-transaction parameters Link needs
// (spec.md §4.6 Inputs).
type TransactionContext struct {
	PythonPath         string
	ShortPythonVersion string // e.g. "3.11"
	SitePackagesPath   string // relative to prefix, e.g. "lib/python3.11/site-packages"
	HasPython          bool
	RequestedSpecs     []string
	CompilePyc         bool
	AlwaysCopy         bool
	AlwaysSoftlink     bool
	AllowSoftlinks     bool

	// BinDir is "Scripts" on Windows, "bin" elsewhere (spec.md §6).
	BinDir string

	// Windows selects the Windows-specific behaviors: a clobbered file is
	// not removed first, backslash-to-slash prefix rewriting in text files, .bat post-link
	// scripts and -script.py/.exe entry points. No menu-shortcut handling
	// exists.
	Windows bool
}
