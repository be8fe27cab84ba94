package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records. The backing table
// carries a unique (user_id, date) constraint; Create surfaces a violation as
// ErrAlreadyCheckedIn so concurrent check-ins for the same day cannot both
// succeed even if they race past the service-level lock.
type Repository interface {
	// Create inserts a new record for its (user, day).
	Create(ctx context.Context, att Attendance) (Attendance, error)

	// GetByUserAndDate returns the record for a user on a day, or nil when
	// none exists.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Attendance, error)

	// Update persists a mutation of an existing record.
	Update(ctx context.Context, att Attendance) error

	// List retrieves records company-wide with filters and pagination.
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// ListByUser retrieves one user's records with filters and pagination.
	ListByUser(ctx context.Context, userID string, filter MyAttendanceFilter) ([]Attendance, int64, error)

	// BulkCreateAbsences inserts ABSENT records, skipping (user, day) pairs
	// that already have one.
	BulkCreateAbsences(ctx context.Context, records []Attendance) error
}

// TxManager runs a unit of work inside a database transaction. Repository
// calls made with the context passed to fn share that transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
