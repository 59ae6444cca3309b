package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpModel_View(t *testing.T) {
	m := NewHelpModel(DefaultKeyMap())

	require.NotPanics(t, func() {
		rendered := m.View(100)
		assert.Contains(t, rendered, "taskdeck keys")
		// Bindings specific to this list surface
		assert.Contains(t, rendered, "toggle done")
		assert.Contains(t, rendered, "cycle status filter")
		assert.Contains(t, rendered, "sign out")
		assert.Contains(t, rendered, "closes this overlay")
	})
}
