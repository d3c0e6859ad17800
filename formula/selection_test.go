package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection(t *testing.T) {
	s, ids := newTestStore(t, "A", "B", "C")

	assert.True(t, s.Select(ids[2]))
	assert.True(t, s.ToggleSelected(ids[0]))
	assert.False(t, s.Select("missing"))
	assert.Equal(t, []string{ids[0], ids[2]}, s.Selected())

	assert.False(t, s.ToggleSelected(ids[0]))
	assert.False(t, s.IsSelected(ids[0]))
	assert.True(t, s.Deselect(ids[2]))
	assert.False(t, s.Deselect(ids[2]))
	assert.Empty(t, s.Selected())
}

func TestGroupSelectionClearsSelection(t *testing.T) {
	s, ids := newTestStore(t, "A", "B", "C")
	require.True(t, s.Select(ids[1]))
	require.True(t, s.Select(ids[2]))

	group, ok := s.GroupSelection()
	require.True(t, ok)
	assert.Empty(t, s.Selected())
	assert.False(t, s.Select(group.ID), "groups are not selectable")
	assert.Equal(t, "A × (B + C) = Result", s.Render())
}

func TestRemoveDropsSelection(t *testing.T) {
	s, ids := newTestStore(t, "A", "B")
	require.True(t, s.Select(ids[1]))
	require.True(t, s.RemoveOperand(ids[1]))
	assert.Empty(t, s.Selected())
}
