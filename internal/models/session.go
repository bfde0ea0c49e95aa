package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the bearer token issued by the external session provider.
// Only validity matters; the subject is logged, never modelled as a user.
type SessionClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
