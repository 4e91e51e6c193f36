package solver

import "github.com/mamba-org/mamba-sub007/internal/pool"

// StepKind is one Transaction step's action (spec.md §3).
type StepKind int

const (
	StepInstall StepKind = iota
	StepRemove
	StepUpgrade
	StepDowngrade
	StepChange
	StepReinstall
)

func (k StepKind) String() string {
	switch k {
	case StepInstall:
		return "install"
	case StepRemove:
		return "remove"
	case StepUpgrade:
		return "upgrade"
	case StepDowngrade:
		return "downgrade"
	case StepChange:
		return "change"
	case StepReinstall:
		return "reinstall"
	default:
		return "unknown"
	}
}

// Step is one entry in a Transaction (spec.md §3). Remove/Install are set
// depending on Kind: a plain Install only sets Install; a plain Remove
// only sets Remove; Upgrade/Downgrade/Change/Reinstall set both.
type Step struct {
	Kind    StepKind
	Remove  pool.SolvableId // InvalidSolvableId if not applicable
	Install pool.SolvableId // InvalidSolvableId if not applicable
}

// Transaction is the ordered sequence of steps the solver recommends
// (spec.md §3, GLOSSARY). Order respects "dependency installed before
// dependent, dependent removed before dependency" (spec.md §5).
type Transaction struct {
	Steps []Step
}

// classifyPair turns a (removed, installed) pair sharing a name into the
// correct StepKind, per spec.md §3/§4.4.3 "Transaction step classification
// is derived by pairing removed and installed solvables sharing a name".
func classifyPair(p *pool.Pool, removed, installed pool.SolvableId) Step {
	if removed == pool.InvalidSolvableId {
		return Step{Kind: StepInstall, Remove: pool.InvalidSolvableId, Install: installed}
	}
	if installed == pool.InvalidSolvableId {
		return Step{Kind: StepRemove, Remove: removed, Install: pool.InvalidSolvableId}
	}
	rs, is := p.Solvable(removed), p.Solvable(installed)
	if rs.Name == is.Name && rs.EVR == is.EVR && rs.BuildString == is.BuildString {
		return Step{Kind: StepReinstall, Remove: removed, Install: installed}
	}
	cmp := pool.CompareEVR(p.String(is.EVR), p.String(rs.EVR))
	switch {
	case cmp > 0:
		return Step{Kind: StepUpgrade, Remove: removed, Install: installed}
	case cmp < 0:
		return Step{Kind: StepDowngrade, Remove: removed, Install: installed}
	default:
		return Step{Kind: StepChange, Remove: removed, Install: installed}
	}
}
