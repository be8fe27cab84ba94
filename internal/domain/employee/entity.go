package employee

import "time"

type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusLayoff     Status = "layoff"
	StatusTerminated Status = "terminated"
	StatusOnLeave    Status = "on_leave"
	StatusSuspended  Status = "suspended"
)

// Employee is the eligibility view of an employee profile. The profile itself
// is owned by the employee directory; the attendance engine only reads it.
type Employee struct {
	ID        string
	UserID    *string
	ManagerID *string // employee ID of the direct manager
	FullName  string
	IsActive  bool
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eligible reports whether the employee may operate the attendance state
// machine. Admins bypass this check entirely.
func (e *Employee) Eligible() bool {
	return e.IsActive && e.Status == StatusActive
}
