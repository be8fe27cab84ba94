package attendance

import (
	"errors"
	"fmt"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
)

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn = errors.New("you have already checked in today")

	// Check-out errors
	ErrNoCheckInRecord   = errors.New("no check-in record found for today")
	ErrAlreadyCheckedOut = errors.New("you have already checked out today")

	// Eligibility errors
	ErrEmployeeNotFound = errors.New("no employee profile found for this user")
	ErrEmployeeInactive = errors.New("employee profile is inactive")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)

// StatusRestrictedError rejects a transition for an employee whose employment
// status is anything other than active. Action is "check in" or "check out"
// and only changes the human-readable wording.
type StatusRestrictedError struct {
	Status employee.Status
	Action string
}

func (e *StatusRestrictedError) Error() string {
	return fmt.Sprintf("employee with status %q cannot %s", e.Status, e.Action)
}
