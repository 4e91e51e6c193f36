package pool

// SolvableType distinguishes ordinary conda packages from synthetic pool
// entries (spec.md §3).
type SolvableType int

const (
	TypePackage SolvableType = iota
	TypeVirtualPackage
	TypePin
)

// Solvable is one package instance in the pool: one version of one package
// in one channel (GLOSSARY). Every Solvable is owned by exactly one Repo.
type Solvable struct {
	Name        StringId
	EVR         StringId
	BuildNumber uint64
	BuildString string
	FileName    string
	License     string
	MD5         string
	SHA256      string
	Noarch      string // "", "generic", or "python"
	Size        uint64
	Timestamp   int64
	URL         string
	Channel     string
	Subdir      string

	Dependencies   []DependencyId
	Provides       []DependencyId
	Constraints    []DependencyId
	TrackFeatures  []StringId

	Type SolvableType

	repo RepoId
}

// Repo reports which Repo owns this solvable.
func (s *Solvable) Repo() RepoId { return s.repo }
