package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleViewer UserRole = "VIEWER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// JWTClaims represents the JWT payload for access tokens. The operator name travels in
// RegisteredClaims.Subject.
type JWTClaims struct {
	Role UserRole `json:"role"`
	jwt.RegisteredClaims
}
