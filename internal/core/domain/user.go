package domain

import (
	"context"
	"errors"
	"time"
)

// Stub API store errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
)

// User is an account of the development stub API.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password"`
	Role          string    `json:"role" bson:"role"`
	EmailVerified bool      `json:"emailVerified" bson:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserRepository stores stub accounts. Lookups of unknown users return ErrNotFound;
// creating a duplicate email returns ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	MarkVerified(ctx context.Context, id string) error
}
