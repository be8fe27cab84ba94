package notification

import (
	"time"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
)

// ============= Event payloads =============

// Action names the state transition an attendance event describes.
type Action string

const (
	ActionCheckedIn      Action = "checked-in"
	ActionLateArrival    Action = "late-arrival"
	ActionCheckedOut     Action = "checked-out"
	ActionEarlyDeparture Action = "early-departure"
	ActionMarkedAbsent   Action = "marked-absent"
)

// AttendanceEvent is the ephemeral payload handed from the attendance engine
// to the event producer after a successful transition.
type AttendanceEvent struct {
	ActorID       string
	ActorRole     user.Role
	Action        Action
	Timestamp     time.Time
	LateMinutes   int
	EarlyMinutes  int
	TotalHours    float64
	OvertimeHours float64
}

// ============= Request DTOs =============

// MarkAsReadRequest marks a batch of notifications as read.
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// ============= Response DTOs =============

// NotificationResponse is the API shape of a persisted notification.
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Severity  Severity               `json:"severity"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListResponse is a paginated listing.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// UnreadCountResponse carries the unread badge count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSETokenResponse is the short-lived stream credential.
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
