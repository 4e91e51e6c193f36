// Package solver implements Component C: ruleset construction and a
// DPLL-style search producing a Transaction or a non-empty problem list
// (spec.md §4.4). Grounded on the teacher's (golang/dep gps) solver.go
// SolveParameters/solver shape and container/heap-based version queue.
package solver

// RuleKind names are stable: tests and the ProblemsGraph builder depend on
// them (spec.md §4.4.1).
type RuleKind string

const (
	RulePkgRequires           RuleKind = "PKG_REQUIRES"
	RulePkgConstrains         RuleKind = "PKG_CONSTRAINS"
	RulePkgConflicts          RuleKind = "PKG_CONFLICTS"
	RulePkgSameName           RuleKind = "PKG_SAME_NAME"
	RulePkgNothingProvidesDep RuleKind = "PKG_NOTHING_PROVIDES_DEP"
	RulePkgNotInstallable     RuleKind = "PKG_NOT_INSTALLABLE"
	RulePkgSelfConflict       RuleKind = "PKG_SELF_CONFLICT"
	RulePkgObsoletes          RuleKind = "PKG_OBSOLETES"
	RulePkgImplicitObsoletes  RuleKind = "PKG_IMPLICIT_OBSOLETES"
	RulePkgInstalledObsoletes RuleKind = "PKG_INSTALLED_OBSOLETES"
	RuleJob                   RuleKind = "JOB"
	RuleJobNothingProvidesDep RuleKind = "JOB_NOTHING_PROVIDES_DEP"
	RuleJobUnknownPackage     RuleKind = "JOB_UNKNOWN_PACKAGE"
	RuleJobUnsupported        RuleKind = "JOB_UNSUPPORTED"
	RuleJobProvidedBySystem   RuleKind = "JOB_PROVIDED_BY_SYSTEM"
	RuleUpdate                RuleKind = "UPDATE"
	RuleFeature               RuleKind = "FEATURE"
	RuleChoice                RuleKind = "CHOICE"
	RuleLearnt                RuleKind = "LEARNT"
	RuleBest                  RuleKind = "BEST"
	RuleBlack                 RuleKind = "BLACK"
	RuleDistUpgrade           RuleKind = "DISTUPGRADE"
	RuleInfArch               RuleKind = "INFARCH"
	RuleStrictRepoPriority    RuleKind = "STRICT_REPO_PRIORITY"
	RuleYumObs                RuleKind = "YUMOBS"
	RuleRecommends            RuleKind = "RECOMMENDS"
	RulePkgRecommends         RuleKind = "PKG_RECOMMENDS"
)

// Flag is one of the solver-wide behavior flags (spec.md §4.4.2).
type Flag int

const (
	FlagAllowDowngrade Flag = 1 << iota
	FlagAllowUninstall
	FlagStrictRepoPriority
	FlagNoInfArchCheck
	FlagAddAlreadyRecommended
	FlagForceResolv
)

func (f Flag) has(flags Flag) bool { return flags&f != 0 }
