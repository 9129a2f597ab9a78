package models

import (
	"time"
)

// Role represents a user role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User represents an authenticated operator
type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
