package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// Create implements notification.Repository.
func (n *notificationRepository) Create(ctx context.Context, notif *notification.Notification) error {
	q := GetQuerier(ctx, n.db)

	dataJSON, err := json.Marshal(notif.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, severity, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = q.Exec(ctx, query,
		notif.ID, notif.RecipientID, notif.SenderID, notif.Type,
		notif.Title, notif.Message, notif.Severity, dataJSON,
		notif.IsRead, notif.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByUserID implements notification.Repository.
func (n *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, n.db)

	baseWhere := "recipient_id = $1"
	args := []interface{}{userID}
	if unreadOnly {
		baseWhere += " AND is_read = false"
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT id, recipient_id, sender_id, type, title, message, severity, data, is_read, read_at, created_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, baseWhere)
	args = append(args, pageSize, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifs []*notification.Notification
	for rows.Next() {
		var notif notification.Notification
		var dataJSON []byte
		if err := rows.Scan(
			&notif.ID, &notif.RecipientID, &notif.SenderID, &notif.Type,
			&notif.Title, &notif.Message, &notif.Severity, &dataJSON,
			&notif.IsRead, &notif.ReadAt, &notif.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &notif.Data); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifs = append(notifs, &notif)
	}

	return notifs, total, nil
}

// GetUnreadCount implements notification.Repository.
func (n *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	q := GetQuerier(ctx, n.db)

	var count int
	err := q.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// MarkAsRead implements notification.Repository.
func (n *notificationRepository) MarkAsRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, n.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE id = ANY($2) AND recipient_id = $3
	`

	if _, err := q.Exec(ctx, query, time.Now(), ids, userID); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	return nil
}

// MarkAllAsRead implements notification.Repository.
func (n *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, n.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false
	`

	if _, err := q.Exec(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}

// Delete implements notification.Repository.
func (n *notificationRepository) Delete(ctx context.Context, userID string, id string) error {
	q := GetQuerier(ctx, n.db)

	commandTag, err := q.Exec(ctx,
		"DELETE FROM notifications WHERE id = $1 AND recipient_id = $2",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}

	return nil
}
