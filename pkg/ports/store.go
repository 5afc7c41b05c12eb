package ports

import (
	"context"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// UserStore defines the interface for persisting users between turns.
type UserStore interface {
	// Save persists the user under its address.
	Save(ctx context.Context, user *domain.User) error

	// Load retrieves the user for an address.
	// Returns domain.ErrUserNotFound if the user does not exist.
	Load(ctx context.Context, addr string) (*domain.User, error)

	// Delete removes the user for an address.
	Delete(ctx context.Context, addr string) error

	// List returns the addresses of all stored users.
	List(ctx context.Context) ([]string, error)
}
