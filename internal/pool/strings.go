package pool

import (
	"github.com/armon/go-radix"
)

// stringTable interns UTF-8 strings behind stable StringIds. Insertion is
// idempotent; lookup is O(1) average via the map, with a parallel radix
// tree kept for prefix queries (diagnostic/completion use, not on the
// solver's hot path) exactly as the teacher's solver.go imports
// github.com/armon/go-radix for its own project-name indexing.
type stringTable struct {
	byID  []string
	byStr map[string]StringId
	trie  *radix.Tree
}

func newStringTable() *stringTable {
	return &stringTable{
		byStr: make(map[string]StringId),
		trie:  radix.New(),
	}
}

// addString interns s, returning its StringId. Never fails.
func (t *stringTable) addString(s string) StringId {
	if id, ok := t.byStr[s]; ok {
		return id
	}
	id := StringId(len(t.byID))
	t.byID = append(t.byID, s)
	t.byStr[s] = id
	t.trie.Insert(s, id)
	return id
}

// findString looks up s without interning it.
func (t *stringTable) findString(s string) (StringId, bool) {
	id, ok := t.byStr[s]
	return id, ok
}

// mustString traps (panics) if id is out of range — a programmer error, not
// a recoverable condition, per spec.md §4.2.
func (t *stringTable) mustString(id StringId) string {
	if int(id) < 0 || int(id) >= len(t.byID) {
		panic("pool: string id out of range")
	}
	return t.byID[id]
}

// prefixSearch returns every interned string with the given prefix. Used by
// diagnostic tooling; the solver never calls this.
func (t *stringTable) prefixSearch(prefix string) []string {
	var out []string
	t.trie.WalkPrefix(prefix, func(s string, _ interface{}) bool {
		out = append(out, s)
		return false
	})
	return out
}
