package domain

import (
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusDisabled = "disabled"

	DefaultPlan       = "Free"
	DefaultTokenGrant = 10000
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserDisabled = errors.New("account disabled")
)

// User is keyed by the Firebase UID.
type User struct {
	ID              string    `json:"id" firestore:"id"`
	Email           string    `json:"email" firestore:"email"`
	Name            string    `json:"name,omitempty" firestore:"name"`
	Picture         string    `json:"picture,omitempty" firestore:"picture"`
	Role            string    `json:"role" firestore:"role"`
	Plan            string    `json:"plan" firestore:"plan"`
	Status          string    `json:"status" firestore:"status"`
	TokensRemaining int64     `json:"tokensRemaining" firestore:"tokensRemaining"`
	TokensUsed      int64     `json:"tokensUsed" firestore:"tokensUsed"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt"`
	LastLogin       time.Time `json:"lastLogin" firestore:"lastLogin"`
}

func (u *User) Disabled() bool { return u.Status == StatusDisabled }

// ProfileUpdate is written on every sign-in. Balances are never part of it.
type ProfileUpdate struct {
	Email     string
	Name      string
	Picture   string
	Role      string
	LastLogin time.Time
}
