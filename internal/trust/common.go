package trust

import (
	"encoding/json"
	"strconv"
	"strings"
)

// specMajor extracts the leading integer component of a dotted
// spec-version string (e.g. "1.0.3" -> 1, "0.6.0" -> 0), used for
// spec.md §4.8 step 6's "spec version major" comparison.
func specMajor(specVersion string) int {
	head, _, _ := strings.Cut(specVersion, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

// canonicalizeV1 renders signed as minified JSON, the v1 dialect's
// canonicalization rule (spec.md §4.8 step 2). encoding/json already
// sorts map keys, which is enough determinism for our own sign/verify
// round trip.
func canonicalizeV1(signed interface{}) ([]byte, error) {
	return json.Marshal(signed)
}

// canonicalizeV06 renders signed as two-space-indented JSON, the v0.6
// dialect's canonicalization rule (spec.md §4.8 step 2: "bit-exact —
// tests compare signatures").
func canonicalizeV06(signed interface{}) ([]byte, error) {
	return json.MarshalIndent(signed, "", "  ")
}
