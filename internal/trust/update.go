package trust

import (
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/crypto/ed25519"
)

// rootFilenamePattern matches spec.md §4.8 step 1's candidate filename
// shape: "[N.]?[sv<major>.]?root.json".
var rootFilenamePattern = regexp.MustCompile(`^(?:(\d+)\.)?(?:s?v(\d+)\.)?root\.json$`)

func parseRootFilename(name string) (version int, ok bool) {
	m := rootFilenamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	if m[1] != "" {
		version, _ = strconv.Atoi(m[1])
	}
	return version, true
}

// Update implements spec.md §4.8's TUF-shaped update algorithm
// (identical in shape to TUF 5.3.4-5.3.5):
//  1. the candidate filename must match the expected shape;
//  2. the candidate's signed body is canonicalized per its own dialect;
//  3. signatures are checked against the current root's delegated keys
//     (>= current.Threshold() valid);
//  4. signatures are checked again against the candidate's own
//     delegated keys (>= candidate.Threshold() valid), to resist
//     key-rotation forgeries;
//  5. the version must advance by exactly one;
//  6. the metadata-spec major version may advance by at most one.
func Update(current Role, filename string, candidateRaw []byte) (Role, error) {
	if _, ok := parseRootFilename(filepath.Base(filename)); !ok {
		return nil, &RoleFileError{FileName: filename, Reason: "does not match [N.][sv<major>.]root.json"}
	}

	candidate, err := ParseRoot(candidateRaw)
	if err != nil {
		return nil, err
	}

	canonical, err := candidate.Canonicalize()
	if err != nil {
		return nil, err
	}

	if err := verifyThreshold(current, candidate.Signatures(), canonical); err != nil {
		return nil, err
	}
	if err := verifyThreshold(candidate, candidate.Signatures(), canonical); err != nil {
		return nil, err
	}

	switch {
	case candidate.Version() <= current.Version():
		return nil, &RollbackError{CurrentVersion: current.Version(), CandidateVersion: candidate.Version()}
	case candidate.Version() > current.Version()+1:
		return nil, &RoleMetadataError{CurrentVersion: current.Version(), CandidateVersion: candidate.Version()}
	}

	if candidate.SpecVersionMajor() > current.SpecVersionMajor()+1 {
		return nil, &SpecVersionError{CurrentMajor: current.SpecVersionMajor(), CandidateMajor: candidate.SpecVersionMajor()}
	}

	return candidate, nil
}

// verifyThreshold checks that at least role.Threshold() of sigs verify
// against role.DelegatedKeys() over canonical. Called twice per
// Update: once with role=current, once with role=candidate (spec.md
// §4.8 steps 3-4).
func verifyThreshold(role Role, sigs []signatureEntry, canonical []byte) error {
	keys := role.DelegatedKeys()
	valid := 0
	for _, sig := range sigs {
		pubHex, known := keys[sig.KeyID]
		if !known {
			continue
		}
		pub, err := DecodeHexPublicKey(pubHex)
		if err != nil {
			continue
		}

		msg := canonical
		if sig.OtherHeaders != "" {
			digest, err := gpgTrailerDigest(canonical, sig.OtherHeaders)
			if err != nil {
				continue
			}
			msg = digest
		}

		sigBytes, err := hex.DecodeString(sig.Signature)
		if err != nil || len(sigBytes) != ed25519.SignatureSize {
			continue
		}
		if ed25519.Verify(pub, msg, sigBytes) {
			valid++
		}
	}
	if valid < role.Threshold() {
		return &ThresholdError{Role: "root", Have: valid, Need: role.Threshold()}
	}
	return nil
}
