package repository

import (
	"context"

	authdomain "playtube-backend/internal/auth/domain"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the persistence boundary for user records.
// Lookup methods return (nil, nil) when no record matches.
type UserRepository interface {
	Create(ctx context.Context, user *authdomain.User) error
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*authdomain.User, error)

	// SetRefreshToken overwrites the user's single refresh-token slot.
	// It updates that one field only; no record-level validation is re-run.
	SetRefreshToken(ctx context.Context, id, token string) error

	// ClearRefreshToken unsets the slot. Unsetting an absent field is a no-op.
	ClearRefreshToken(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
