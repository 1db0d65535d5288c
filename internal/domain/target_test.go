package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInventory(t *testing.T) {
	inv := NewInventory("/repo", map[Kind][]string{
		"cc_library": {"//lib:core", "//lib:util"},
		"cc_test":    {"//lib:core_test", "//lib:core"},
	})

	assert.Equal(t, "/repo", inv.RepoRoot)
	assert.False(t, inv.Timestamp.IsZero())
	// All is the sorted union with the duplicate collapsed.
	assert.Equal(t, []string{"//lib:core", "//lib:core_test", "//lib:util"}, inv.All)
}

func TestInventoryLabels(t *testing.T) {
	inv := NewInventory("/repo", map[Kind][]string{
		"cc_library": {"//lib:core"},
		"py_binary":  {},
	})

	assert.Equal(t, []string{"//lib:core"}, inv.Labels("cc_library"))
	assert.Empty(t, inv.Labels("py_binary"))
	assert.Nil(t, inv.Labels("go_library"))

	var nilInv *Inventory
	assert.Nil(t, nilInv.Labels("cc_library"))
}

func TestInventoryCovers(t *testing.T) {
	inv := NewInventory("/repo", map[Kind][]string{
		"cc_library": {},
		"py_binary":  {},
	})

	assert.True(t, inv.Covers(nil))
	assert.True(t, inv.Covers([]Kind{"cc_library"}))
	assert.True(t, inv.Covers([]Kind{"cc_library", "py_binary"}))
	assert.False(t, inv.Covers([]Kind{"cc_library", "go_library"}))

	var nilInv *Inventory
	assert.False(t, nilInv.Covers([]Kind{"cc_library"}))
}
