package attendance

import (
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
)

// ============= Request DTOs =============

// CheckInRequest carries the authenticated identity plus optional notes.
// UserID and Role are filled from JWT claims by the handler, never from the
// request body.
type CheckInRequest struct {
	UserID string    `json:"-"`
	Role   user.Role `json:"-"`
	Notes  *string   `json:"notes,omitempty"`
}

// CheckOutRequest mirrors CheckInRequest for the closing transition.
type CheckOutRequest struct {
	UserID string    `json:"-"`
	Role   user.Role `json:"-"`
	Notes  *string   `json:"notes,omitempty"`
}

// AttendanceFilter selects records for the admin/manager listing.
type AttendanceFilter struct {
	UserID    *string
	Status    *string
	Date      *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

// MyAttendanceFilter selects the authenticated user's own history.
type MyAttendanceFilter struct {
	Status    *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

// ============= Response DTOs =============

// AttendanceResponse is the API shape of a record.
type AttendanceResponse struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	UserName      *string  `json:"user_name,omitempty"`
	EmployeeID    *string  `json:"employee_id,omitempty"`
	Date          string   `json:"date"`
	CheckInTime   *string  `json:"check_in_time,omitempty"`
	CheckOutTime  *string  `json:"check_out_time,omitempty"`
	Status        Status   `json:"status"`
	TotalHours    *float64 `json:"total_hours,omitempty"`
	LateMinutes   int      `json:"late_minutes"`
	EarlyMinutes  int      `json:"early_minutes"`
	OvertimeHours float64  `json:"overtime_hours"`
	Notes         *string  `json:"notes,omitempty"`
}

// ListAttendanceResponse is a paginated listing.
type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
