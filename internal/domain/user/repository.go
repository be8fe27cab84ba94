package user

import "context"

// Repository reads user accounts and role membership.
type Repository interface {
	// GetByID returns a user account; ErrUserNotFound when absent.
	GetByID(ctx context.Context, id string) (*User, error)

	// ListAdminIDs returns the IDs of every user with the admin role.
	ListAdminIDs(ctx context.Context) ([]string, error)
}
