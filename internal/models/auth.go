package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user. The username is
// an admission number for students or a staff handle; both separator forms
// are accepted.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and profile info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        ProfileInfo `json:"user"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// SignupRequest registers a brand-new account that has no registry row.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

// ProfileInfo describes the authenticated profile in responses.
type ProfileInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}
