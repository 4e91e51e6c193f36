package pool

// RelationFlag encodes the relation between a dependency's name and
// version fields (spec.md §3).
type RelationFlag int

const (
	RelEQ RelationFlag = iota
	RelNE
	RelLT
	RelLE
	RelGT
	RelGE
	RelHasProvides
	RelNamespace
	RelConjunction
	RelDisjunction
)

func (r RelationFlag) String() string {
	switch r {
	case RelEQ:
		return "=="
	case RelNE:
		return "!="
	case RelLT:
		return "<"
	case RelLE:
		return "<="
	case RelGT:
		return ">"
	case RelGE:
		return ">="
	case RelHasProvides:
		return "has-provides"
	case RelNamespace:
		return "namespace"
	case RelConjunction:
		return "conjunction"
	case RelDisjunction:
		return "disjunction"
	default:
		return "unknown"
	}
}

// dependency is the pool-internal representation of a DependencyId's triple.
// Complex expressions (conjunction/disjunction) embed other DependencyIds
// packed into the Name/Version StringIds; decoding that packing is the
// responsibility of the solver's rule generator, not the Pool.
type dependency struct {
	Name     StringId
	Relation RelationFlag
	Version  StringId
}

// depKey is the idempotency key for add_dependency: the same (name, flag,
// version) triple always yields the same DependencyId.
type depKey struct {
	name    StringId
	relation RelationFlag
	version StringId
}
