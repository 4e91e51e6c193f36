package pool

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// MatchSpec is the parsed form of a requirement string (spec.md §3, §4.1,
// §8 scenario 1). Grounded on original_source's
// libmamba/include/mamba/core/match_spec.hpp field list.
type MatchSpec struct {
	Name        string
	Version     string // raw constraint expression, e.g. ">=1.20,<2.0"
	BuildString string
	BuildNumber string
	Channel     string
	Subdir      string
	FileName    string
	URL         string

	// Bracket holds the `name[key=val,...]` form's key/value pairs,
	// supplemented by the legacy parenthesis form `name(key=val,...)`
	// (original_source's `brackets`/`parens` maps).
	Bracket map[string]string

	Optional bool
	IsFile   bool
}

var bracketRe = regexp.MustCompile(`^\[(.*)\]$`)
var parenRe = regexp.MustCompile(`^\((.*)\)$`)

// ParseMatchSpec parses a requirement string of the forms:
//
//	name [ver][=build][#num]
//	name<op>ver[=build]  (e.g. "foo>2.0", "pyicons=2.*")
//	name[key=val,...]
//	name(key=val,...)
//	a URL
//	an explicit file path
//
// grounded on the teacher's hand-rolled (regexp + manual scan) parsing
// style in deduce.go/analysis.go rather than a parser-combinator library.
func ParseMatchSpec(spec string) (*MatchSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("matchspec: empty spec")
	}

	ms := &MatchSpec{Bracket: map[string]string{}}

	if strings.Contains(spec, "://") {
		ms.URL = spec
		ms.Name = filenameFromURL(spec)
		ms.FileName = ms.Name
		return ms, nil
	}
	if strings.HasSuffix(spec, ".tar.bz2") || strings.HasSuffix(spec, ".conda") {
		ms.IsFile = true
		ms.FileName = spec
		ms.Name = strings.TrimSuffix(strings.TrimSuffix(spec, ".tar.bz2"), ".conda")
		return ms, nil
	}

	// Extract a trailing bracket or paren clause, if present.
	body := spec
	if i := strings.IndexByte(spec, '['); i >= 0 && strings.HasSuffix(spec, "]") {
		body = spec[:i]
		if err := parseKV(spec[i:], ms.Bracket); err != nil {
			return nil, errors.Wrap(err, "matchspec: bad bracket clause")
		}
	} else if i := strings.IndexByte(spec, '('); i >= 0 && strings.HasSuffix(spec, ")") {
		body = spec[:i]
		if err := parseKV(spec[i:], ms.Bracket); err != nil {
			return nil, errors.Wrap(err, "matchspec: bad paren clause")
		}
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, errors.Errorf("matchspec: no name in %q", spec)
	}
	ms.Name = fields[0]
	// A version glued to the name ("foo>2.0", "pyicons=2.*") starts at the
	// first comparison-operator character.
	if i := strings.IndexAny(ms.Name, "<>=!~"); i > 0 {
		fields = append([]string{ms.Name[:i], ms.Name[i:]}, fields[1:]...)
		ms.Name = fields[0]
	}

	if v, ok := ms.Bracket["version"]; ok {
		ms.Version = v
		delete(ms.Bracket, "version")
	} else if len(fields) > 1 {
		ms.Version, ms.BuildString = parseVersionAndBuild(fields[1])
	}
	if b, ok := ms.Bracket["build"]; ok {
		ms.BuildString = b
		delete(ms.Bracket, "build")
	} else if len(fields) > 2 {
		ms.BuildString = fields[2]
	}
	if n, ok := ms.Bracket["build_number"]; ok {
		ms.BuildNumber = n
		delete(ms.Bracket, "build_number")
	}
	if c, ok := ms.Bracket["channel"]; ok {
		ms.Channel = c
		delete(ms.Bracket, "channel")
	}
	if s, ok := ms.Bracket["subdir"]; ok {
		ms.Subdir = s
		delete(ms.Bracket, "subdir")
	}
	if f, ok := ms.Bracket["fn"]; ok {
		ms.FileName = f
		delete(ms.Bracket, "fn")
	}
	if u, ok := ms.Bracket["url"]; ok {
		ms.URL = u
		delete(ms.Bracket, "url")
	}

	if ms.Name == "" {
		return nil, errors.Errorf("matchspec: no name in %q", spec)
	}
	return ms, nil
}

// parseVersionAndBuild splits a token like "1.2.3=py39_0" (version and
// build joined by '=') per spec.md §4.1's `name [ver][=build][#num]`
// grammar. A comparison operator's own '=' (">=", "<=", "==", "!=",
// "~=") or a leading exact-match '=' (conda's "=1.2.3" shorthand) is
// never mistaken for this separator: only an '=' preceded by something
// other than a comparison-operator character splits version from build.
func parseVersionAndBuild(s string) (version, build string) {
	for i := 1; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		switch s[i-1] {
		case '>', '<', '!', '~', '=':
			continue
		}
		return s[:i], s[i+1:]
	}
	return s, ""
}

func parseKV(clause string, into map[string]string) error {
	inner := clause
	if m := bracketRe.FindStringSubmatch(clause); m != nil {
		inner = m[1]
	} else if m := parenRe.FindStringSubmatch(clause); m != nil {
		inner = m[1]
	} else {
		return errors.Errorf("unrecognized clause %q", clause)
	}
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	for _, part := range splitTopLevelComma(inner) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		val := ""
		if len(kv) == 2 {
			val = strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		}
		into[key] = val
	}
	return nil
}

// splitTopLevelComma splits on commas that are not inside a quoted value,
// since version constraints like ">=1.2,<2.0" may themselves appear quoted
// within a bracket clause's value.
func splitTopLevelComma(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == ',':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, cur.String())
	return out
}

func filenameFromURL(u string) string {
	i := strings.LastIndexByte(u, '/')
	name := u
	if i >= 0 {
		name = u[i+1:]
	}
	name = strings.TrimSuffix(name, ".tar.bz2")
	name = strings.TrimSuffix(name, ".conda")
	return name
}

// String re-serializes the MatchSpec. A round-trip through ParseMatchSpec
// must preserve semantics, though not necessarily the original textual
// form (spec.md §8 scenario 1: the bracket form is an accepted equivalent
// re-serialization of the positional form).
func (m *MatchSpec) String() string {
	if m.URL != "" {
		return m.URL
	}
	if m.IsFile {
		return m.FileName
	}
	kv := map[string]string{}
	for k, v := range m.Bracket {
		kv[k] = v
	}
	if m.Version != "" {
		kv["version"] = m.Version
	}
	if m.BuildString != "" {
		kv["build"] = m.BuildString
	}
	if m.BuildNumber != "" {
		kv["build_number"] = m.BuildNumber
	}
	if m.Channel != "" {
		kv["channel"] = m.Channel
	}
	if m.Subdir != "" {
		kv["subdir"] = m.Subdir
	}
	if m.FileName != "" {
		kv["fn"] = m.FileName
	}
	if len(kv) == 0 {
		return m.Name
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteByte('"')
		sb.WriteString(kv[k])
		sb.WriteByte('"')
	}
	sb.WriteByte(']')
	return sb.String()
}

// DesugarVersion expands conda's shorthand forms, e.g. "1.2.*" ->
// ">=1.2,<1.3" (spec.md §4.1).
func DesugarVersion(v string) string {
	if !strings.HasSuffix(v, ".*") && v != "*" {
		return v
	}
	if v == "*" {
		return v
	}
	base := strings.TrimSuffix(v, ".*")
	parts := strings.Split(base, ".")
	upper := make([]string, len(parts))
	copy(upper, parts)
	last := len(upper) - 1
	n := parseIntSafe(upper[last])
	upper[last] = itoa(n + 1)
	return ">=" + base + ",<" + strings.Join(upper, ".")
}

func parseIntSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
