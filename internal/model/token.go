package model

import (
	"time"
)

// Claim names carried by access tokens.
const (
	ClaimUserID = "user_id"
	ClaimEmail  = "email"
)

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// LoginUser is the public part of the user echoed on login.
type LoginUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *AuthResult) LoginUser() LoginUser {
	return LoginUser{
		ID:    a.User.ID,
		Name:  a.User.Name,
		Email: a.User.Email,
	}
}
