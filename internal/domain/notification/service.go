package notification

import "context"

// Service is the event producer plus the read-state surface for persisted
// notifications.
type Service interface {
	// PublishAttendanceEvent fans an attendance event out to the resolved
	// recipients. The contract is explicit best-effort: resolver errors,
	// persistence failures and push failures are logged and discarded, and
	// the method never returns an error to its caller.
	PublishAttendanceEvent(ctx context.Context, evt AttendanceEvent)

	GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error
}
