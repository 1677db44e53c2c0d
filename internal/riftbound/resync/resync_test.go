package resync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateUnsynced, StateLoading, true},
		{StateUnsynced, StateReady, false},
		{StateUnsynced, StateError, false},
		{StateLoading, StateReady, true},
		{StateLoading, StateError, true},
		{StateLoading, StateLoading, false},
		{StateReady, StateLoading, true},
		{StateReady, StateError, false},
		{StateError, StateLoading, true},
		{StateError, StateReady, false},
		{StateReady, StateUnsynced, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestSequencer_LastRefreshWins(t *testing.T) {
	var s Sequencer

	first := s.Issue()
	second := s.Issue()
	assert.True(t, s.Pending(first))
	assert.False(t, s.Pending(second))

	// The newer response lands first; the older one must be discarded.
	assert.True(t, s.Accept(second))
	assert.False(t, s.Accept(first))
}

func TestSequencer_InOrderResponsesBothApply(t *testing.T) {
	var s Sequencer

	first := s.Issue()
	second := s.Issue()
	assert.True(t, s.Accept(first))
	assert.True(t, s.Accept(second))
	assert.False(t, s.Accept(second), "a ticket applies once")
}

func TestSequencer_Close(t *testing.T) {
	var s Sequencer
	ticket := s.Issue()
	s.Close()

	assert.True(t, s.Closed())
	assert.False(t, s.Accept(ticket))
}

func TestDo(t *testing.T) {
	ctx := context.Background()
	errMutate := errors.New("rejected")

	t.Run("refreshes after success", func(t *testing.T) {
		refreshed := 0
		res, err := Do(ctx, nil, "add", func(context.Context) (string, error) {
			return "ok", nil
		}, func(context.Context) error {
			refreshed++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 1, refreshed)
	})

	t.Run("no refresh after failure", func(t *testing.T) {
		refreshed := 0
		_, err := Do(ctx, nil, "add", func(context.Context) (int, error) {
			return 0, errMutate
		}, func(context.Context) error {
			refreshed++
			return nil
		})
		assert.ErrorIs(t, err, errMutate)
		assert.Zero(t, refreshed)
	})

	t.Run("refresh failure keeps mutation success", func(t *testing.T) {
		res, err := Do(ctx, nil, "add", func(context.Context) (int, error) {
			return 7, nil
		}, func(context.Context) error {
			return errors.New("network down")
		})
		require.NoError(t, err)
		assert.Equal(t, 7, res)
	})
}
