package models

import "github.com/golang-jwt/jwt/v5"

// SessionTokenKind marks wizard session tokens.
const SessionTokenKind = "wizard_session"

// SessionClaims is the JWT payload identifying a wizard session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}
