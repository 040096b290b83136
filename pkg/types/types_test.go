package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeState(ids ...uint64) *GenerationState {
	state := &GenerationState{}
	for _, id := range ids {
		state.Generations = append(state.Generations, Generation{
			ID:        id,
			CreatedAt: time.Now(),
		})
	}
	return state
}

func TestGenerationState_NextID(t *testing.T) {
	tests := []struct {
		name     string
		state    *GenerationState
		expected uint64
	}{
		{
			name:     "empty state starts at zero",
			state:    makeState(),
			expected: 0,
		},
		{
			name:     "single generation",
			state:    makeState(0),
			expected: 1,
		},
		{
			name:     "gaps from deletions do not reuse ids",
			state:    makeState(0, 3, 7),
			expected: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.NextID())
		})
	}
}

func TestGenerationState_Find(t *testing.T) {
	state := makeState(0, 1, 2)

	gen := state.Find(1)
	require.NotNil(t, gen)
	assert.Equal(t, uint64(1), gen.ID)

	assert.Nil(t, state.Find(9))
}

func TestGenerationState_ActiveGeneration(t *testing.T) {
	state := makeState(0, 1)

	assert.Nil(t, state.ActiveGeneration())

	id := uint64(1)
	state.Active = &id
	active := state.ActiveGeneration()
	require.NotNil(t, active)
	assert.Equal(t, uint64(1), active.ID)
}
