package domain

import "time"

// User is the domain entity for a user account. PasswordHash is the bcrypt
// hash of the password; plaintext never reaches this struct.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
