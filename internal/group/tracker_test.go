package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LocalMembers(t *testing.T) {
	tr := NewTracker()

	tr.AddLocal(9, 1)
	tr.AddLocal(9, 2)
	tr.AddLocal(12, 3)

	assert.True(t, tr.HasLocal(9))
	assert.ElementsMatch(t, []int64{9, 12}, tr.TrackedGroups())

	tr.RemoveLocal(9, 1)
	assert.True(t, tr.HasLocal(9))
	tr.RemoveLocal(9, 2)
	assert.False(t, tr.HasLocal(9))
	assert.ElementsMatch(t, []int64{12}, tr.TrackedGroups())
}

func TestTracker_PurgesCacheWithLastLocal(t *testing.T) {
	tr := NewTracker()
	tr.AddLocal(9, 1)
	tr.SetLastSeen(9, map[int64]struct{}{1: {}, 2: {}})

	tr.RemoveLocal(9, 1)

	assert.Nil(t, tr.LastSeen(9))
}

func TestTracker_IgnoresZeroGroup(t *testing.T) {
	tr := NewTracker()

	tr.AddLocal(0, 1)
	tr.RemoveLocal(0, 1)

	assert.Empty(t, tr.TrackedGroups())
}
