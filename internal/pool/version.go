package pool

import (
	"strconv"
	"strings"

	mastersemver "github.com/Masterminds/semver"
)

// CompareEVR implements spec.md §4.1: the single source of truth for
// "which version is newer". The solver treats evr as an opaque StringId;
// this comparator is the only code allowed to interpret its structure.
//
// Ordering: epoch dominates, then a dot-segmented, digit/non-digit
// run-split comparison, then the local-version (+x) suffix.
func CompareEVR(a, b string) int {
	// Masterminds/semver's Equal ignores "+build" metadata per the semver
	// spec, so the fast path only applies when neither side carries an
	// epoch or a local-version suffix — both of which CompareEVR itself
	// treats as significant.
	if !strings.ContainsAny(a, "!+") && !strings.ContainsAny(b, "!+") {
		if equal, ok := fastEqual(a, b); ok && equal {
			return 0
		}
	}

	aEpoch, aRest := splitEpoch(a)
	bEpoch, bRest := splitEpoch(b)
	if aEpoch != bEpoch {
		if aEpoch < bEpoch {
			return -1
		}
		return 1
	}

	aRest, aLocal := splitLocal(aRest)
	bRest, bLocal := splitLocal(bRest)

	if c := compareSegmented(aRest, bRest); c != 0 {
		return c
	}
	return compareLocal(aLocal, bLocal)
}

// fastEqual reports whether a and b are recognized as strictly equal by the
// stricter, ecosystem-standard semver parser. Used by CompareEVR as an
// early-out for the common pure-semver case (no epoch, no local suffix,
// dotted digit segments); ok is false when either side fails to parse as
// semver, in which case CompareEVR falls through to the general comparator.
func fastEqual(a, b string) (equal bool, ok bool) {
	va, erra := mastersemver.NewVersion(a)
	vb, errb := mastersemver.NewVersion(b)
	if erra != nil || errb != nil {
		return false, false
	}
	return va.Equal(vb), true
}

func splitEpoch(v string) (int, string) {
	if i := strings.IndexByte(v, '!'); i >= 0 {
		if n, err := strconv.Atoi(v[:i]); err == nil {
			return n, v[i+1:]
		}
	}
	return 0, v
}

func splitLocal(v string) (string, string) {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

func compareLocal(a, b string) int {
	// Presence of a local suffix orders after its absence; two present
	// suffixes compare the same way as the segmented base version.
	switch {
	case a == "" && b == "":
		return 0
	case a == "" && b != "":
		return -1
	case a != "" && b == "":
		return 1
	default:
		return compareSegmented(a, b)
	}
}

// tokenRank classifies a non-digit run for the special ordering
// dev < a… < b… < c… < rc < (empty) < post
func tokenRank(tok string) int {
	lower := strings.ToLower(tok)
	switch {
	case lower == "":
		return 4
	case strings.HasPrefix(lower, "dev"):
		return 0
	case strings.HasPrefix(lower, "post"):
		return 5
	case strings.HasPrefix(lower, "rc"):
		return 3
	case strings.HasPrefix(lower, "c"):
		return 2
	case strings.HasPrefix(lower, "b"):
		return 2
	case strings.HasPrefix(lower, "a"):
		return 1
	default:
		return 4
	}
}

func compareSegmented(a, b string) int {
	as := splitDots(a)
	bs := splitDots(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if c := compareRuns(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func splitDots(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// runs splits a dot-segment into alternating digit/non-digit runs, e.g.
// "1rc2" -> ["1", "rc", "2"].
func runs(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		j := i
		digit := isDigit(s[i])
		for j < len(s) && isDigit(s[j]) == digit {
			j++
		}
		out = append(out, s[i:j])
		i = j
	}
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func compareRuns(a, b string) int {
	ra := runs(a)
	rb := runs(b)
	n := len(ra)
	if len(rb) > n {
		n = len(rb)
	}
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(ra) {
			x = ra[i]
		}
		if i < len(rb) {
			y = rb[i]
		}
		if c := compareRun(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareRun(a, b string) int {
	aDigit := a != "" && isDigit(a[0])
	bDigit := b != "" && isDigit(b[0])
	switch {
	case aDigit && bDigit:
		na, _ := strconv.Atoi(strings.TrimLeft(a, "0"))
		nb, _ := strconv.Atoi(strings.TrimLeft(b, "0"))
		if a != "" && strings.TrimLeft(a, "0") == "" {
			na = 0
		}
		if b != "" && strings.TrimLeft(b, "0") == "" {
			nb = 0
		}
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
		return 0
	case aDigit && !bDigit:
		return 1
	case !aDigit && bDigit:
		return -1
	default:
		ra, rb := tokenRank(a), tokenRank(b)
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		if a == b {
			return 0
		}
		if a < b {
			return -1
		}
		return 1
	}
}
