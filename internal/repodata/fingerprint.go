package repodata

import "strings"

// OriginFingerprint validates a binary repodata cache (spec.md §3). Two
// fingerprints compare equal iff etag and mod match exactly and the urls
// are equal after trailing-slash normalization.
type OriginFingerprint struct {
	URL  string
	ETag string
	Mod  string
}

// Equal implements the §3 comparison rule.
func (f OriginFingerprint) Equal(o OriginFingerprint) bool {
	return f.ETag == o.ETag && f.Mod == o.Mod && normalizeURL(f.URL) == normalizeURL(o.URL)
}

func normalizeURL(u string) string {
	return strings.TrimRight(u, "/")
}
