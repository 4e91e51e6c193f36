package trust

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"
)

// KeyPair is the abstract ed25519 signing primitive spec.md §4.8 names:
// "generate, sign(msg)->64B, verify(msg,pk,sig)->bool". Verification is
// free-standing (verifyThreshold in update.go); KeyPair itself only
// needs to generate and sign, so callers can supply any key-storage
// backend without TrustChain depending on it.
type KeyPair interface {
	PublicKey() ed25519.PublicKey
	Sign(msg []byte) []byte
}

// GeneratedKeyPair is an in-memory KeyPair, used by tests and by
// RootV06.UpgradeToV1 when the caller supplies a fresh signer.
type GeneratedKeyPair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh random ed25519 key pair.
func GenerateKeyPair() (*GeneratedKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "trust: generating ed25519 keypair")
	}
	return &GeneratedKeyPair{pub: pub, priv: priv}, nil
}

func (k *GeneratedKeyPair) PublicKey() ed25519.PublicKey { return k.pub }
func (k *GeneratedKeyPair) Sign(msg []byte) []byte       { return ed25519.Sign(k.priv, msg) }

// DecodeHexPublicKey parses a hex-encoded 32-byte ed25519 public key
// (spec.md §4.8: "Hex-encoded keys are 32 bytes").
func DecodeHexPublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "trust: decoding public key")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Errorf("trust: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
