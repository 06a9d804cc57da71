package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeIDs(t *testing.T) {
	_, err := New(32, 1)
	assert.ErrorIs(t, err, errInvalidMachineID)

	_, err = New(1, -1)
	assert.ErrorIs(t, err, errInvalidDataCenterID)
}

func TestNextIDUnique(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := g.NextID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
