package trust

import "fmt"

// RollbackError: the candidate root's version is not strictly newer
// than the current root's (spec.md §4.8 step 5, §7).
type RollbackError struct {
	CurrentVersion, CandidateVersion int
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("trust: candidate root version %d is not newer than current version %d", e.CandidateVersion, e.CurrentVersion)
}

// RoleMetadataError: the candidate root's version skips ahead by more
// than one (spec.md §4.8 step 5).
type RoleMetadataError struct {
	CurrentVersion, CandidateVersion int
}

func (e *RoleMetadataError) Error() string {
	return fmt.Sprintf("trust: candidate root version %d skips past %d", e.CandidateVersion, e.CurrentVersion+1)
}

// SpecVersionError: the candidate's metadata-spec major version jumped
// by more than one past the current major (spec.md §4.8 step 6).
type SpecVersionError struct {
	CurrentMajor, CandidateMajor int
}

func (e *SpecVersionError) Error() string {
	return fmt.Sprintf("trust: candidate spec version major %d is more than one past current major %d", e.CandidateMajor, e.CurrentMajor)
}

// ThresholdError: fewer than the required number of valid signatures
// were found against a role's delegated keys (spec.md §4.8 steps 3-4).
type ThresholdError struct {
	Role       string
	Have, Need int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("trust: %s requires %d valid signatures, found %d", e.Role, e.Need, e.Have)
}

// RoleFileError: the candidate file's name or JSON structure is invalid
// (spec.md §4.8 step 1).
type RoleFileError struct {
	FileName string
	Reason   string
}

func (e *RoleFileError) Error() string {
	return fmt.Sprintf("trust: invalid root metadata file %q: %s", e.FileName, e.Reason)
}
