package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInviteLedger_OneInvitationPerTarget(t *testing.T) {
	l := NewInviteLedger()

	assert.True(t, l.Add(7, Invitation{Kind: KindParty, GroupID: 1}))
	// A second invitation is refused even for the other kind.
	assert.False(t, l.Add(7, Invitation{Kind: KindGuild, GroupID: 2}))
	assert.True(t, l.Pending(7))
	assert.Equal(t, 1, l.Len())
}

func TestInviteLedger_TakeMatchesKind(t *testing.T) {
	l := NewInviteLedger()
	l.Add(7, Invitation{Kind: KindGuild, GroupID: 2})

	// A party accept does not consume a guild invitation.
	_, ok := l.Take(7, KindParty)
	assert.False(t, ok)
	assert.True(t, l.Pending(7))

	inv, ok := l.Take(7, KindGuild)
	assert.True(t, ok)
	assert.Equal(t, int64(2), inv.GroupID)
	assert.False(t, l.Pending(7))
}

func TestInviteLedger_Remove(t *testing.T) {
	l := NewInviteLedger()
	l.Add(7, Invitation{Kind: KindParty, GroupID: 1})

	l.Remove(7)
	l.Remove(8) // unknown target is a no-op

	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Add(7, Invitation{Kind: KindParty, GroupID: 1}))
}
