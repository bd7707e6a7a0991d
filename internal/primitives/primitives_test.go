package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/primitives"
)

func TestRegistryClassifiesHats(t *testing.T) {
	reg := primitives.NewRegistry()

	tests := []struct {
		opcode  string
		restart bool
		edge    bool
	}{
		{primitives.WhenFlagClicked, true, false},
		{primitives.WhenBroadcastReceived, true, false},
		{primitives.WhenKeyPressed, false, false},
		{primitives.WhenGreaterThan, false, true},
		{primitives.StartAsClone, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.opcode, func(t *testing.T) {
			info, ok := reg.Hat(tt.opcode)
			require.True(t, ok)
			assert.Equal(t, tt.restart, info.RestartExistingThreads)
			assert.Equal(t, tt.edge, info.EdgeActivated)
		})
	}

	_, ok := reg.Hat("operator_add")
	assert.False(t, ok)
	assert.Equal(t, []string{primitives.WhenGreaterThan}, reg.EdgeActivatedHats())
}
