package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/attendance"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
)

// AttendanceJobs holds background maintenance for attendance records.
type AttendanceJobs struct {
	attendanceRepo attendance.Repository
	employeeRepo   employee.Repository
	notifier       notification.Service
	loc            *time.Location

	now func() time.Time
}

func NewAttendanceJobs(
	attendanceRepo attendance.Repository,
	employeeRepo employee.Repository,
	notifier notification.Service,
	loc *time.Location,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		notifier:       notifier,
		loc:            loc,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees creates ABSENT records for active employees who never
// checked in yesterday. Runs hourly but acts only during the first hour after
// local midnight.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	if j.now().In(j.loc).Hour() != 0 {
		return nil
	}

	yesterday := truncateDay(j.now().In(j.loc).AddDate(0, 0, -1), j.loc)

	employees, err := j.employeeRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	var absences []attendance.Attendance
	var absentUserIDs []string
	for _, emp := range employees {
		if emp.UserID == nil {
			continue
		}

		existing, err := j.attendanceRepo.GetByUserAndDate(ctx, *emp.UserID, yesterday)
		if err != nil {
			slog.Error("absence sweep: lookup failed", "user_id", *emp.UserID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		empID := emp.ID
		absences = append(absences, attendance.Attendance{
			UserID:     *emp.UserID,
			EmployeeID: &empID,
			Date:       yesterday,
			Status:     attendance.StatusAbsent,
		})
		absentUserIDs = append(absentUserIDs, *emp.UserID)
	}

	if len(absences) == 0 {
		return nil
	}

	if err := j.attendanceRepo.BulkCreateAbsences(ctx, absences); err != nil {
		return fmt.Errorf("failed to create absence records: %w", err)
	}

	for _, userID := range absentUserIDs {
		j.notifier.PublishAttendanceEvent(ctx, notification.AttendanceEvent{
			ActorID:   userID,
			ActorRole: user.RoleEmployee,
			Action:    notification.ActionMarkedAbsent,
			Timestamp: yesterday,
		})
	}

	slog.Info("absence sweep completed", "marked_absent", len(absences), "date", yesterday.Format("2006-01-02"))
	return nil
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
