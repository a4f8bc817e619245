package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User represents a connected participant
type User struct {
	ID          UserID
	DisplayName string
	IsGuest     bool // true for unregistered users
	CreatedAt   time.Time
}

// RegisteredUser extends User with authentication data
// Stored separately so the password hash never travels with session state
type RegisteredUser struct {
	UserID       UserID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
