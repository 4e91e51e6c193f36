package trust

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildV1Root constructs a signed v1 root.json-shaped document, signed
// by signer, for use as either "current" or "candidate" in a test.
func buildV1Root(t *testing.T, signer *GeneratedKeyPair, version, threshold int) []byte {
	t.Helper()
	keyHex := hex.EncodeToString(signer.PublicKey())
	signed := rootV1Signed{
		Type:        "root",
		SpecVersion: "1.0.0",
		Version:     version,
		Roles: map[string]v1RoleKeys{
			"root": {KeyIDs: []string{keyHex}, Threshold: threshold},
		},
		Keys: map[string]v1Key{
			keyHex: {KeyType: "ed25519", KeyVal: v1KeyVal{Public: keyHex}},
		},
	}
	canonical, err := canonicalizeV1(signed)
	require.NoError(t, err)
	sig := signer.Sign(canonical)

	env := struct {
		Signed     rootV1Signed  `json:"signed"`
		Signatures []v1Signature `json:"signatures"`
	}{
		Signed:     signed,
		Signatures: []v1Signature{{KeyID: keyHex, Sig: hex.EncodeToString(sig)}},
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

// TestUpdateAcceptsNextVersionSignedByBothKeySets exercises spec.md
// §8's TrustChain invariant for the straightforward case: same signer
// for both current and candidate, version advances by exactly one.
func TestUpdateAcceptsNextVersionSignedByBothKeySets(t *testing.T) {
	signer, err := GenerateKeyPair()
	require.NoError(t, err)

	currentRaw := buildV1Root(t, signer, 1, 1)
	current, err := ParseRoot(currentRaw)
	require.NoError(t, err)

	candidateRaw := buildV1Root(t, signer, 2, 1)

	updated, err := Update(current, "2.root.json", candidateRaw)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version())
}

// TestUpdateRejectsEqualVersion exercises spec.md §4.8 step 5's
// rollback_error path.
func TestUpdateRejectsEqualVersion(t *testing.T) {
	signer, err := GenerateKeyPair()
	require.NoError(t, err)

	current, err := ParseRoot(buildV1Root(t, signer, 3, 1))
	require.NoError(t, err)

	_, err = Update(current, "3.root.json", buildV1Root(t, signer, 3, 1))
	require.Error(t, err)
	require.IsType(t, &RollbackError{}, err)
}

// TestUpdateRejectsSkippedVersion exercises spec.md §4.8 step 5's
// role_metadata_error path.
func TestUpdateRejectsSkippedVersion(t *testing.T) {
	signer, err := GenerateKeyPair()
	require.NoError(t, err)

	current, err := ParseRoot(buildV1Root(t, signer, 1, 1))
	require.NoError(t, err)

	_, err = Update(current, "3.root.json", buildV1Root(t, signer, 3, 1))
	require.Error(t, err)
	require.IsType(t, &RoleMetadataError{}, err)
}

// TestUpdateThresholdFailsOnCurrentKeysFirst exercises spec.md §8
// scenario 6: current root v1 threshold=1 signed by K, candidate root
// v2 signed only by a different key K'. Expected: ThresholdError, since
// the "signed by current keys" check runs before the new-key check.
func TestUpdateThresholdFailsOnCurrentKeysFirst(t *testing.T) {
	k, err := GenerateKeyPair()
	require.NoError(t, err)
	kPrime, err := GenerateKeyPair()
	require.NoError(t, err)

	current, err := ParseRoot(buildV1Root(t, k, 1, 1))
	require.NoError(t, err)

	candidateRaw := buildV1Root(t, kPrime, 2, 1)

	_, err = Update(current, "2.root.json", candidateRaw)
	require.Error(t, err)
	require.IsType(t, &ThresholdError{}, err)
}

// TestRootV06UpgradeToV1 exercises spec.md §4.8's explicit upgrade path:
// a v0.6 root may be upgraded to v1 by re-signing an equivalent
// structure.
func TestRootV06UpgradeToV1(t *testing.T) {
	root, err := GenerateKeyPair()
	require.NoError(t, err)
	keyMgr, err := GenerateKeyPair()
	require.NoError(t, err)

	v06 := &RootV06{
		signed: rootV06Signed{
			Type:                "root",
			MetadataSpecVersion: "0.6.0",
			Version:             1,
		},
	}
	v06.signed.Delegations.Root = Delegation{Pubkeys: []string{hex.EncodeToString(root.PublicKey())}, Threshold: 1}
	v06.signed.Delegations.KeyMgr = Delegation{Pubkeys: []string{hex.EncodeToString(keyMgr.PublicKey())}, Threshold: 1}

	v1, err := v06.UpgradeToV1(root)
	require.NoError(t, err)
	require.Equal(t, 1, v1.Version())
	require.Equal(t, 1, v1.SpecVersionMajor())
	require.Len(t, v1.Signatures(), 1)
}
