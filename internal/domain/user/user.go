package user

import (
	"context"
)

// User is the read-only view of an account owned by the user service.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Directory resolves user identifiers. Implementations return a NotFound
// domain error when the user does not exist.
type Directory interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}
