package group

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuildPolicy_ValidateName(t *testing.T) {
	p := GuildPolicy(100, 20)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "single word", input: "Sentinels"},
		{name: "two words", input: "Night Watch"},
		{name: "three words", input: "Order of Dawn"},
		{name: "empty", input: "", wantErr: true},
		{name: "four words", input: "The Order of Dawn", wantErr: true},
		{name: "digits", input: "Guild42", wantErr: true},
		{name: "punctuation", input: "Night-Watch", wantErr: true},
		{name: "double space", input: "Night  Watch", wantErr: true},
		{name: "leading space", input: " Sentinels", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 21), wantErr: true},
		{name: "at length bound", input: strings.Repeat("a", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ValidateName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPartyPolicy_NamesNotValidated(t *testing.T) {
	p := PartyPolicy(6)
	assert.NoError(t, p.ValidateName("anything at all, even 42"))
}

func TestPolicy_Permissions(t *testing.T) {
	party := PartyPolicy(6)
	guild := GuildPolicy(100, 64)

	assert.True(t, party.CanInvite(RankLeader))
	assert.False(t, party.CanInvite(RankOfficer))
	assert.False(t, party.CanInvite(RankMember))

	assert.True(t, guild.CanInvite(RankLeader))
	assert.True(t, guild.CanInvite(RankOfficer))
	assert.False(t, guild.CanInvite(RankMember))

	assert.Equal(t, party.CanInvite(RankLeader), party.CanKick(RankLeader))
	assert.Equal(t, guild.CanInvite(RankOfficer), guild.CanKick(RankOfficer))
}

func TestPolicy_AssignableRank(t *testing.T) {
	party := PartyPolicy(6)
	guild := GuildPolicy(100, 64)

	assert.True(t, guild.AssignableRank(RankMember))
	assert.True(t, guild.AssignableRank(RankOfficer))
	assert.False(t, guild.AssignableRank(RankLeader))

	assert.True(t, party.AssignableRank(RankMember))
	assert.False(t, party.AssignableRank(RankOfficer))
	assert.False(t, party.AssignableRank(RankLeader))
}
