package trust

import (
	_ "crypto/sha1"   // registers SHA-1 with crypto.Hash, for older GPG signatures
	_ "crypto/sha256" // registers SHA-256, the common case
	_ "crypto/sha512" // registers SHA-512/384
	"encoding/binary"
	"encoding/hex"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/pkg/errors"
)

// gpgTrailerDigest reproduces the OpenPGP v4 signature hash
// construction spec.md §4.8 describes for the "other_headers" signature
// variant: sha(canonical_signed || hashedPart || 0x04 0xFF ||
// be32(len(hashedPart))), where hashedPart is the hex-decoded
// other_headers blob — the signature packet's
// version/sig-type/pubkey-algo/hash-algo/hashed-subpacket bytes, i.e.
// everything OpenPGP v4 signing hashes ahead of its own trailer. The
// hash algorithm is read out of hashedPart[3] (the packet's hash-algo
// octet) and resolved via openpgp/packet.HashIdToHash rather than
// assumed, since a real v4 signature is free to pick any registered
// algorithm.
func gpgTrailerDigest(canonicalSigned []byte, otherHeadersHex string) ([]byte, error) {
	hashedPart, err := hex.DecodeString(otherHeadersHex)
	if err != nil {
		return nil, errors.Wrap(err, "trust: decoding other_headers")
	}
	if len(hashedPart) < 4 {
		return nil, errors.New("trust: other_headers too short to carry a hash algorithm octet")
	}

	h, ok := packet.HashIdToHash(hashedPart[3])
	if !ok || !h.Available() {
		return nil, errors.Errorf("trust: unsupported GPG hash algorithm id %d", hashedPart[3])
	}

	trailer := make([]byte, 6)
	trailer[0] = 4
	trailer[1] = 0xFF
	binary.BigEndian.PutUint32(trailer[2:], uint32(len(hashedPart)))

	digest := h.New()
	digest.Write(canonicalSigned)
	digest.Write(hashedPart)
	digest.Write(trailer)
	return digest.Sum(nil), nil
}
