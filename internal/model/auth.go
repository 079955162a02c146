package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims are JWT claims for anonymous trainer sessions
type PlayerClaims struct {
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

// SessionResponse is returned when a new session is opened
type SessionResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
}
