package response

import (
	"errors"
	"net/http"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/attendance"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Attendance state machine rejections carry stable codes so clients can
	// branch without parsing messages.
	var statusErr *attendance.StatusRestrictedError
	if errors.As(err, &statusErr) {
		ForbiddenWithCode(w, "EMPLOYEE_STATUS_RESTRICTED", statusErr.Error())
		return
	}

	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		BadRequestWithCode(w, "ALREADY_CHECKED_IN", "You have already checked in today")
	case errors.Is(err, attendance.ErrNoCheckInRecord):
		BadRequestWithCode(w, "NO_CHECK_IN_RECORD", "No check-in record found for today")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		BadRequestWithCode(w, "ALREADY_CHECKED_OUT", "You have already checked out today")
	case errors.Is(err, attendance.ErrEmployeeNotFound):
		NotFoundWithCode(w, "EMPLOYEE_NOT_FOUND", "No employee profile found for this user")
	case errors.Is(err, attendance.ErrEmployeeInactive):
		ForbiddenWithCode(w, "EMPLOYEE_INACTIVE", "Employee profile is inactive")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFoundWithCode(w, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
