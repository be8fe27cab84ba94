package notification

import "errors"

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to another recipient.
var ErrNotificationNotFound = errors.New("notification not found")
