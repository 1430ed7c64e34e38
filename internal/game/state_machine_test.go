package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_Transitions(t *testing.T) {
	lc := NewLifecycle()
	assert.Equal(t, PhaseLoading, lc.Phase())

	var changes [][2]SessionPhase
	lc.OnStateChange(func(from, to SessionPhase) {
		changes = append(changes, [2]SessionPhase{from, to})
	})

	require.NoError(t, lc.Trigger(EventLoaded))
	assert.Equal(t, PhaseActive, lc.Phase())

	require.NoError(t, lc.Trigger(EventClose))
	assert.Equal(t, PhaseClosing, lc.Phase())

	require.NoError(t, lc.Trigger(EventClosed))
	assert.Equal(t, PhaseClosed, lc.Phase())

	assert.Equal(t, [][2]SessionPhase{
		{PhaseLoading, PhaseActive},
		{PhaseActive, PhaseClosing},
		{PhaseClosing, PhaseClosed},
	}, changes)
}

func TestLifecycle_InvalidTransition(t *testing.T) {
	lc := NewLifecycle()

	assert.False(t, lc.CanTransition(EventClosed))
	err := lc.Trigger(EventClosed)
	assert.Error(t, err)
	assert.Equal(t, PhaseLoading, lc.Phase())

	require.NoError(t, lc.Trigger(EventLoaded))
	assert.Error(t, lc.Trigger(EventLoaded))
}

func TestLifecycle_CloseWhileLoading(t *testing.T) {
	lc := NewLifecycle()
	assert.True(t, lc.CanTransition(EventClose))
	require.NoError(t, lc.Trigger(EventClose))
	assert.Equal(t, PhaseClosing, lc.Phase())
}
