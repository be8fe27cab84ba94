package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/sse"
)

// NotificationServiceImpl implements notification.Service: it is the event
// producer behind the attendance engine and the read-state surface for the
// persisted notification copies.
type NotificationServiceImpl struct {
	repo         notification.Repository
	resolver     *Resolver
	hub          *sse.Hub
	userRepo     user.Repository
	employeeRepo employee.Repository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	repo notification.Repository,
	resolver *Resolver,
	hub *sse.Hub,
	userRepo user.Repository,
	employeeRepo employee.Repository,
) notification.Service {
	return &NotificationServiceImpl{
		repo:         repo,
		resolver:     resolver,
		hub:          hub,
		userRepo:     userRepo,
		employeeRepo: employeeRepo,
	}
}

// PublishAttendanceEvent implements notification.Service. Every failure path
// logs and returns; an attendance transition that already committed must never
// be reported as failed because its notifications were not delivered.
func (s *NotificationServiceImpl) PublishAttendanceEvent(ctx context.Context, evt notification.AttendanceEvent) {
	actorName := s.actorName(ctx, evt.ActorID)
	notifType, severity, title, message := composeAttendanceMessage(actorName, evt)
	data := eventData(actorName, evt)

	recipients, err := s.resolver.Resolve(ctx, evt.ActorID, evt.ActorRole)
	if err != nil {
		slog.Error("failed to resolve notification recipients, dropping event",
			"actor_id", evt.ActorID,
			"action", evt.Action,
			"error", err,
		)
		return
	}
	if len(recipients) == 0 {
		return
	}

	msg := sse.Message{
		Type:      sse.TypeNotification,
		Timestamp: evt.Timestamp,
		Title:     title,
		Message:   message,
		Severity:  string(severity),
		Data:      data,
	}

	// Recipients are independent: one failed persist never blocks the live
	// push for the others.
	g := new(errgroup.Group)
	for _, recipientID := range recipients {
		recipientID := recipientID
		g.Go(func() error {
			n := &notification.Notification{
				ID:          uuid.New().String(),
				RecipientID: recipientID,
				SenderID:    &evt.ActorID,
				Type:        notifType,
				Title:       title,
				Message:     message,
				Severity:    severity,
				Data:        data,
				CreatedAt:   time.Now(),
			}
			if err := s.repo.Create(ctx, n); err != nil {
				slog.Error("failed to persist notification",
					"recipient_id", recipientID,
					"action", evt.Action,
					"error", err,
				)
			}
			s.hub.SendToUser(recipientID, msg)
			return nil
		})
	}
	_ = g.Wait()
}

// GetNotifications implements notification.Service.
func (s *NotificationServiceImpl) GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifs, total, err := s.repo.GetByUserID(ctx, userID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	unread, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unread count: %w", err)
	}

	responses := make([]notification.NotificationResponse, 0, len(notifs))
	for _, n := range notifs {
		responses = append(responses, toResponse(n))
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// GetUnreadCount implements notification.Service.
func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

// MarkAsRead implements notification.Service.
func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	if len(req.NotificationIDs) == 0 {
		return nil
	}
	if err := s.repo.MarkAsRead(ctx, userID, req.NotificationIDs); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// MarkAllAsRead implements notification.Service.
func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// Delete implements notification.Service.
func (s *NotificationServiceImpl) Delete(ctx context.Context, userID string, notificationID string) error {
	return s.repo.Delete(ctx, userID, notificationID)
}

// actorName resolves a display name for the event's actor, preferring the
// employee profile over the bare user account. Name lookups failing is not a
// reason to drop the event.
func (s *NotificationServiceImpl) actorName(ctx context.Context, actorID string) string {
	emp, err := s.employeeRepo.GetByUserID(ctx, actorID)
	if err == nil && emp != nil && emp.FullName != "" {
		return emp.FullName
	}
	u, err := s.userRepo.GetByID(ctx, actorID)
	if err == nil && u != nil && u.FullName != "" {
		return u.FullName
	}
	slog.Warn("failed to resolve actor name for notification", "actor_id", actorID)
	return "A colleague"
}

func composeAttendanceMessage(actorName string, evt notification.AttendanceEvent) (notification.Type, notification.Severity, string, string) {
	clock := evt.Timestamp.Format("15:04")

	switch evt.Action {
	case notification.ActionLateArrival:
		return notification.TypeAttendanceLateArrival,
			notification.SeverityWarning,
			"Late Arrival",
			fmt.Sprintf("%s checked in %d minutes late at %s", actorName, evt.LateMinutes, clock)
	case notification.ActionCheckedOut:
		return notification.TypeAttendanceCheckedOut,
			notification.SeveritySuccess,
			"Checked Out",
			fmt.Sprintf("%s checked out at %s after %.1f hours", actorName, clock, evt.TotalHours)
	case notification.ActionEarlyDeparture:
		return notification.TypeAttendanceEarlyLeave,
			notification.SeverityWarning,
			"Early Departure",
			fmt.Sprintf("%s checked out %d minutes early at %s", actorName, evt.EarlyMinutes, clock)
	case notification.ActionMarkedAbsent:
		return notification.TypeAttendanceMarkedAbsent,
			notification.SeverityWarning,
			"Marked Absent",
			fmt.Sprintf("%s was marked absent on %s", actorName, evt.Timestamp.Format("2006-01-02"))
	default:
		return notification.TypeAttendanceCheckedIn,
			notification.SeveritySuccess,
			"Checked In",
			fmt.Sprintf("%s checked in at %s", actorName, clock)
	}
}

func eventData(actorName string, evt notification.AttendanceEvent) map[string]interface{} {
	data := map[string]interface{}{
		"actorId":   evt.ActorID,
		"actorName": actorName,
		"action":    string(evt.Action),
		"timestamp": evt.Timestamp.Format(time.RFC3339),
	}
	if evt.LateMinutes > 0 {
		data["lateMinutes"] = evt.LateMinutes
	}
	if evt.EarlyMinutes > 0 {
		data["earlyMinutes"] = evt.EarlyMinutes
	}
	if evt.Action == notification.ActionCheckedOut || evt.Action == notification.ActionEarlyDeparture {
		data["totalHours"] = evt.TotalHours
		data["overtimeHours"] = evt.OvertimeHours
	}
	return data
}

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Severity:  n.Severity,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
