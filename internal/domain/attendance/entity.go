package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the daily attendance outcome for a user.
type Status string

const (
	StatusPresent    Status = "PRESENT"
	StatusLate       Status = "LATE"
	StatusAbsent     Status = "ABSENT"
	StatusEarlyLeave Status = "EARLY_LEAVE"
)

// Attendance is one user's record for one calendar day. At most one row
// exists per (UserID, Date); Date is truncated to local midnight.
type Attendance struct {
	ID         string
	UserID     string
	EmployeeID *string
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	Status     Status
	TotalHours *decimal.Decimal
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO
	UserName *string
}

// HasCheckedIn reports whether the check-in transition already happened.
func (a *Attendance) HasCheckedIn() bool {
	return a.CheckIn != nil
}

// HasCheckedOut reports whether the record reached its terminal state.
func (a *Attendance) HasCheckedOut() bool {
	return a.CheckOut != nil
}
