package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies the caller's role for access control.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleGuru       UserRole = "GURU"
)

// JWTClaims represents the JWT payload for access tokens. Token issuance lives
// in the school SSO; this service only validates.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
