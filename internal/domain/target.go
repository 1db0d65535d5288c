package domain

import (
	"sort"
	"time"
)

// Kind is a Bazel rule kind used to group discovered targets
// (e.g. "cc_library", "py_test").
type Kind string

// DefaultKinds are the rule kinds discovered when the configuration
// does not name its own set.
var DefaultKinds = []Kind{
	"cc_library",
	"cc_binary",
	"cc_test",
	"py_library",
	"py_binary",
	"py_test",
}

// Inventory is a point-in-time snapshot of discovered targets grouped
// by kind. It is immutable once built: a refresh produces a wholly new
// Inventory that replaces the previous one, never a partial merge.
type Inventory struct {
	Timestamp time.Time         `json:"timestamp"`
	RepoRoot  string            `json:"repoRoot"`
	Kinds     map[Kind][]string `json:"kinds"`
	All       []string          `json:"all"`
}

// NewInventory assembles an Inventory from per-kind label lists.
// The All list is the sorted, deduplicated union across kinds.
func NewInventory(repoRoot string, kinds map[Kind][]string) *Inventory {
	seen := make(map[string]struct{})
	for _, labels := range kinds {
		for _, l := range labels {
			seen[l] = struct{}{}
		}
	}
	all := make([]string, 0, len(seen))
	for l := range seen {
		all = append(all, l)
	}
	sort.Strings(all)

	return &Inventory{
		Timestamp: time.Now().UTC(),
		RepoRoot:  repoRoot,
		Kinds:     kinds,
		All:       all,
	}
}

// Labels returns the labels for one kind. A nil slice means the kind
// was not part of the snapshot.
func (inv *Inventory) Labels(kind Kind) []string {
	if inv == nil {
		return nil
	}
	return inv.Kinds[kind]
}

// Covers reports whether the snapshot includes every requested kind.
func (inv *Inventory) Covers(kinds []Kind) bool {
	if inv == nil {
		return false
	}
	for _, k := range kinds {
		if _, ok := inv.Kinds[k]; !ok {
			return false
		}
	}
	return true
}
