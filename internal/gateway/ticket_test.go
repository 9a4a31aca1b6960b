package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRoundTrip(t *testing.T) {
	ticket, err := NewTicket(Identity{CharacterID: 42, Scene: "harbor"}, "secret", time.Minute)
	require.NoError(t, err)

	id, err := ParseTicket(ticket, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.CharacterID)
	assert.Equal(t, "harbor", id.Scene)
}

func TestParseTicket_WrongSecret(t *testing.T) {
	ticket, err := NewTicket(Identity{CharacterID: 42, Scene: "harbor"}, "secret", time.Minute)
	require.NoError(t, err)

	_, err = ParseTicket(ticket, "other-secret")
	assert.Error(t, err)
}

func TestParseTicket_Expired(t *testing.T) {
	ticket, err := NewTicket(Identity{CharacterID: 42, Scene: "harbor"}, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseTicket(ticket, "secret")
	assert.Error(t, err)
}

func TestParseTicket_MissingClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{name: "no character", claims: jwt.MapClaims{"scene": "harbor"}},
		{name: "no scene", claims: jwt.MapClaims{"character_id": 42}},
		{name: "zero character", claims: jwt.MapClaims{"character_id": 0, "scene": "harbor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims)
			signed, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = ParseTicket(signed, "secret")
			assert.Error(t, err)
		})
	}
}
