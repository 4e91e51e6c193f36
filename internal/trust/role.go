// Package trust implements Component H: a TrustChain rooted in a
// trusted root.json, supporting the two metadata-spec dialects spec.md
// §4.8 requires (v0.6 mamba-native, v1 TUF-style) behind one common
// contract. Grounded on spec.md §9's explicit design note: "Use tagged
// variants rather than inheritance; each variant carries its
// spec-version string and schema-specific fields" — mirrored here on
// the teacher's (golang/dep) discriminated-union handling of
// ProjectRoot/PackageOrProjectRoot in inputs.go.
package trust

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// signatureEntry normalizes a v0.6 signatures-map entry or a v1
// signatures-array entry into one shape for verification.
type signatureEntry struct {
	KeyID        string
	Signature    string // hex, 64 bytes (spec.md §4.8 "signatures 64 bytes")
	OtherHeaders string // hex; only ever set on a v0.6 GPG-wrapped signature
}

// rootEnvelope is the {signed, signatures} shape both dialects share;
// which concrete type Signed unmarshals into is decided by sniffing its
// "type"/"_type" discriminator (spec.md §4.8).
type rootEnvelope struct {
	Signed     json.RawMessage `json:"signed"`
	Signatures json.RawMessage `json:"signatures"`
}

// Role is the common contract spec.md §9 names for root metadata:
// update / canonicalize / signatures / keys / upgradable.
type Role interface {
	Version() int
	SpecVersionMajor() int
	Canonicalize() ([]byte, error)
	Signatures() []signatureEntry
	DelegatedKeys() map[string]string // keyid -> hex ed25519 public key
	Threshold() int
	Upgradable() bool
}

// ParseRoot parses raw as a root metadata document, dispatching on its
// signed body's discriminator field to the v0.6 or v1 variant.
func ParseRoot(raw []byte) (Role, error) {
	var env rootEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing root envelope").Error()}
	}

	var sniff struct {
		TypeV06 string `json:"type"`
		TypeV1  string `json:"_type"`
	}
	if err := json.Unmarshal(env.Signed, &sniff); err != nil {
		return nil, &RoleFileError{Reason: errors.Wrap(err, "parsing signed body").Error()}
	}

	switch {
	case sniff.TypeV1 == "root":
		return parseRootV1(env)
	case sniff.TypeV06 == "root":
		return parseRootV06(env)
	default:
		return nil, &RoleFileError{Reason: "unrecognized root metadata dialect"}
	}
}
