package notification

import (
	"time"
)

// Type classifies a notification for clients and read-state queries.
type Type string

const (
	TypeAttendanceCheckedIn    Type = "attendance_checked_in"
	TypeAttendanceLateArrival  Type = "attendance_late_arrival"
	TypeAttendanceCheckedOut   Type = "attendance_checked_out"
	TypeAttendanceEarlyLeave   Type = "attendance_early_leave"
	TypeAttendanceMarkedAbsent Type = "attendance_marked_absent"
)

// Severity drives client-side rendering of the live event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Notification is the persisted copy of a delivered (or missed) live event.
// Durability is best-effort: a failed insert never blocks live delivery and
// vice versa.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        Type
	Title       string
	Message     string
	Severity    Severity
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
