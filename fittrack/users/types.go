package users

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// handles user database operations
type Repository struct {
	db *pgxpool.Pool
}

// profile fields used to personalise coaching prompts
type Profile struct {
	DisplayName  string
	FitnessLevel string
	Goals        []string
}
