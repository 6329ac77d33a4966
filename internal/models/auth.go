package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role issued by the console login.
const RoleOperator = "operator"

// LoginRequest holds operator console credentials.
type LoginRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,max=128"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	Username    string    `json:"username"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for operator access tokens.
type JWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
