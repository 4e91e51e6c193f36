package trust

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// Delegation is one v0.6 delegation entry (spec.md §4.8: "delegations:
// { root: {pubkeys,threshold}, key_mgr: {pubkeys,threshold} }").
type Delegation struct {
	Pubkeys   []string `json:"pubkeys"`
	Threshold int      `json:"threshold"`
}

type rootV06Signed struct {
	Type                string `json:"type"`
	MetadataSpecVersion string `json:"metadata_spec_version"`
	Version             int    `json:"version"`
	Delegations         struct {
		Root   Delegation `json:"root"`
		KeyMgr Delegation `json:"key_mgr"`
	} `json:"delegations"`
}

type rootV06Signature struct {
	Signature    string `json:"signature"`
	OtherHeaders string `json:"other_headers,omitempty"`
}

// RootV06 is the mamba-native root metadata dialect (spec.md §4.8).
// keyid and pubkey are the same hex string in this dialect: the
// delegation's pubkeys list doubles as the signatures map's key set.
type RootV06 struct {
	signed     rootV06Signed
	signatures map[string]rootV06Signature
}

func parseRootV06(env rootEnvelope) (*RootV06, error) {
	var signed rootV06Signed
	if err := json.Unmarshal(env.Signed, &signed); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing v0.6 root signed body").Error()}
	}
	var sigs map[string]rootV06Signature
	if err := json.Unmarshal(env.Signatures, &sigs); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing v0.6 root signatures").Error()}
	}
	return &RootV06{signed: signed, signatures: sigs}, nil
}

func (r *RootV06) Version() int          { return r.signed.Version }
func (r *RootV06) SpecVersionMajor() int { return specMajor(r.signed.MetadataSpecVersion) }
func (r *RootV06) Canonicalize() ([]byte, error) { return canonicalizeV06(r.signed) }
func (r *RootV06) Threshold() int        { return r.signed.Delegations.Root.Threshold }
func (r *RootV06) Upgradable() bool      { return true }

func (r *RootV06) DelegatedKeys() map[string]string {
	keys := make(map[string]string, len(r.signed.Delegations.Root.Pubkeys))
	for _, pk := range r.signed.Delegations.Root.Pubkeys {
		keys[pk] = pk
	}
	return keys
}

func (r *RootV06) Signatures() []signatureEntry {
	entries := make([]signatureEntry, 0, len(r.signatures))
	for keyid, sig := range r.signatures {
		entries = append(entries, signatureEntry{KeyID: keyid, Signature: sig.Signature, OtherHeaders: sig.OtherHeaders})
	}
	return entries
}

// UpgradeToV1 builds the v1-equivalent structure spec.md §4.8 describes
// ("roles root/targets/snapshot/timestamp from v0.6 delegations
// root/key_mgr/∅/∅") and re-signs it with signer.
func (r *RootV06) UpgradeToV1(signer KeyPair) (*RootV1, error) {
	signed := rootV1Signed{
		Type:        "root",
		SpecVersion: "1.0.0",
		Version:     r.signed.Version,
		Roles: map[string]v1RoleKeys{
			"root":      {KeyIDs: r.signed.Delegations.Root.Pubkeys, Threshold: r.signed.Delegations.Root.Threshold},
			"targets":   {KeyIDs: r.signed.Delegations.KeyMgr.Pubkeys, Threshold: r.signed.Delegations.KeyMgr.Threshold},
			"snapshot":  {},
			"timestamp": {},
		},
		Keys: map[string]v1Key{},
	}
	for _, pk := range r.signed.Delegations.Root.Pubkeys {
		signed.Keys[pk] = v1Key{KeyType: "ed25519", KeyVal: v1KeyVal{Public: pk}}
	}
	for _, pk := range r.signed.Delegations.KeyMgr.Pubkeys {
		signed.Keys[pk] = v1Key{KeyType: "ed25519", KeyVal: v1KeyVal{Public: pk}}
	}

	out := &RootV1{signed: signed}
	canonical, err := out.Canonicalize()
	if err != nil {
		return nil, errors.Wrap(err, "trust: canonicalizing upgraded v1 root")
	}
	sig := signer.Sign(canonical)
	out.signatures = []v1Signature{{KeyID: hex.EncodeToString(signer.PublicKey()), Sig: hex.EncodeToString(sig)}}
	return out, nil
}
