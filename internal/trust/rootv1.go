package trust

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type v1KeyVal struct {
	Public string `json:"public"`
}

type v1Key struct {
	KeyType string   `json:"keytype"`
	Scheme  string   `json:"scheme,omitempty"`
	KeyVal  v1KeyVal `json:"keyval"`
}

type v1RoleKeys struct {
	KeyIDs    []string `json:"keyids"`
	Threshold int      `json:"threshold"`
}

type rootV1Signed struct {
	Type        string                `json:"_type"`
	SpecVersion string                `json:"spec_version"`
	Version     int                   `json:"version"`
	Roles       map[string]v1RoleKeys `json:"roles"`
	Keys        map[string]v1Key      `json:"keys"`
}

type v1Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// RootV1 is the TUF-style root metadata dialect (spec.md §4.8): `_type`,
// `spec_version`, `roles`, `keys`, signatures carried as an array.
type RootV1 struct {
	signed     rootV1Signed
	signatures []v1Signature
}

func parseRootV1(env rootEnvelope) (*RootV1, error) {
	var signed rootV1Signed
	if err := json.Unmarshal(env.Signed, &signed); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing v1 root signed body").Error()}
	}
	var sigs []v1Signature
	if err := json.Unmarshal(env.Signatures, &sigs); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing v1 root signatures").Error()}
	}
	return &RootV1{signed: signed, signatures: sigs}, nil
}

func (r *RootV1) Version() int          { return r.signed.Version }
func (r *RootV1) SpecVersionMajor() int { return specMajor(r.signed.SpecVersion) }
func (r *RootV1) Canonicalize() ([]byte, error) { return canonicalizeV1(r.signed) }
func (r *RootV1) Upgradable() bool      { return false }

func (r *RootV1) Threshold() int {
	if root, ok := r.signed.Roles["root"]; ok {
		return root.Threshold
	}
	return 0
}

func (r *RootV1) DelegatedKeys() map[string]string {
	root, ok := r.signed.Roles["root"]
	if !ok {
		return nil
	}
	keys := make(map[string]string, len(root.KeyIDs))
	for _, kid := range root.KeyIDs {
		if k, ok := r.signed.Keys[kid]; ok {
			keys[kid] = k.KeyVal.Public
		}
	}
	return keys
}

func (r *RootV1) Signatures() []signatureEntry {
	entries := make([]signatureEntry, 0, len(r.signatures))
	for _, s := range r.signatures {
		entries = append(entries, signatureEntry{KeyID: s.KeyID, Signature: s.Sig})
	}
	return entries
}
