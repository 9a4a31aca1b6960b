package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated character behind a connection. The world
// server signs it into a ticket when it hands the client off to a scene.
type Identity struct {
	CharacterID int64
	Scene       string
}

// NewTicket signs an identity into a connection ticket.
func NewTicket(id Identity, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"character_id": id.CharacterID,
		"scene":        id.Scene,
		"exp":          time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseTicket verifies a ticket and extracts the identity.
func ParseTicket(tokenStr, secret string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse ticket: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("parse ticket: unexpected claims type")
	}

	characterIDFloat, ok := claims["character_id"].(float64) // JWT numbers are decoded as float64
	if !ok || characterIDFloat < 1 {
		return Identity{}, fmt.Errorf("parse ticket: missing character_id")
	}
	scene, ok := claims["scene"].(string)
	if !ok || scene == "" {
		return Identity{}, fmt.Errorf("parse ticket: missing scene")
	}
	return Identity{CharacterID: int64(characterIDFloat), Scene: scene}, nil
}
