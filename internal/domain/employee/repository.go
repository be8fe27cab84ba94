package employee

import "context"

// Repository reads employee profiles from the external directory.
type Repository interface {
	// GetByUserID returns the profile owned by a user account, or nil when
	// the user has no employee profile (e.g. an admin-only account).
	GetByUserID(ctx context.Context, userID string) (*Employee, error)

	// ManagerUserID resolves the user account of the direct manager of the
	// employee owned by userID. Returns nil when the employee has no manager
	// or the manager has no user account.
	ManagerUserID(ctx context.Context, userID string) (*string, error)

	// ListActive returns all employees eligible to work today; used by the
	// absence sweep.
	ListActive(ctx context.Context) ([]Employee, error)
}
