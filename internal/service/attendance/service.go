package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/attendance"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/settings"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/metrics"
)

// AttendanceServiceImpl implements attendance.Service.
//
// Concurrency: every transition for a user runs under that user's mutex, so
// the read-check-write sequence is serialized per (user, day). The unique
// (user_id, date) constraint in the repository is the second line of defense.
type AttendanceServiceImpl struct {
	attendanceRepo attendance.Repository
	employeeRepo   employee.Repository
	settingsRepo   settings.Repository
	txManager      attendance.TxManager
	notifier       notification.Service
	metrics        *metrics.Metrics
	loc            *time.Location

	userLocks sync.Map // userID -> *sync.Mutex

	now func() time.Time
}

// NewAttendanceService creates a new attendance service.
func NewAttendanceService(
	attendanceRepo attendance.Repository,
	employeeRepo employee.Repository,
	settingsRepo settings.Repository,
	txManager attendance.TxManager,
	notifier notification.Service,
	m *metrics.Metrics,
	loc *time.Location,
) attendance.Service {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		settingsRepo:   settingsRepo,
		txManager:      txManager,
		notifier:       notifier,
		metrics:        m,
		loc:            loc,
		now:            time.Now,
	}
}

// CheckIn implements attendance.Service.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	emp, err := s.eligibleEmployee(ctx, req.UserID, req.Role, "check in")
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	mu := s.userLock(req.UserID)
	mu.Lock()
	defer mu.Unlock()

	now := s.now().In(s.loc)
	today := truncateDay(now)

	var rec attendance.Attendance
	var lateMinutes int
	txErr := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.attendanceRepo.GetByUserAndDate(ctx, req.UserID, today)
		if err != nil {
			return fmt.Errorf("failed to get attendance record: %w", err)
		}
		if existing != nil && existing.HasCheckedIn() {
			return attendance.ErrAlreadyCheckedIn
		}

		policy, err := s.settingsRepo.GetCompanyPolicy(ctx)
		if err != nil {
			return fmt.Errorf("failed to get company policy: %w", err)
		}
		workStart, err := policy.WorkStartOn(today, s.loc)
		if err != nil {
			return err
		}

		// Grace only decides whether the arrival counts as late; once past it,
		// lateness is measured from the scheduled start.
		status := attendance.StatusPresent
		graceLimit := workStart.Add(time.Duration(policy.LateGraceMinutes) * time.Minute)
		if now.After(graceLimit) {
			status = attendance.StatusLate
			lateMinutes = int(math.Ceil(now.Sub(workStart).Minutes()))
		}

		if existing == nil {
			rec = attendance.Attendance{
				UserID:  req.UserID,
				Date:    today,
				CheckIn: &now,
				Status:  status,
				Notes:   req.Notes,
			}
			if emp != nil {
				rec.EmployeeID = &emp.ID
			}
			rec, err = s.attendanceRepo.Create(ctx, rec)
		} else {
			// An ABSENT row created by the sweep is reopened, not duplicated.
			existing.CheckIn = &now
			existing.Status = status
			if req.Notes != nil {
				existing.Notes = req.Notes
			}
			err = s.attendanceRepo.Update(ctx, *existing)
			rec = *existing
		}
		if err != nil {
			if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
				return attendance.ErrAlreadyCheckedIn
			}
			return fmt.Errorf("failed to record check-in: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return attendance.AttendanceResponse{}, txErr
	}

	s.metrics.CheckInsTotal.Inc()

	action := notification.ActionCheckedIn
	if rec.Status == attendance.StatusLate {
		action = notification.ActionLateArrival
	}
	s.notifier.PublishAttendanceEvent(ctx, notification.AttendanceEvent{
		ActorID:     req.UserID,
		ActorRole:   req.Role,
		Action:      action,
		Timestamp:   now,
		LateMinutes: lateMinutes,
	})

	resp := toResponse(rec)
	resp.LateMinutes = lateMinutes
	return resp, nil
}

// CheckOut implements attendance.Service.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	_, err := s.eligibleEmployee(ctx, req.UserID, req.Role, "check out")
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	mu := s.userLock(req.UserID)
	mu.Lock()
	defer mu.Unlock()

	now := s.now().In(s.loc)
	today := truncateDay(now)

	var rec attendance.Attendance
	var totalHours, overtime decimal.Decimal
	var earlyMinutes int
	txErr := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.attendanceRepo.GetByUserAndDate(ctx, req.UserID, today)
		if err != nil {
			return fmt.Errorf("failed to get attendance record: %w", err)
		}
		if existing == nil || !existing.HasCheckedIn() {
			return attendance.ErrNoCheckInRecord
		}
		if existing.HasCheckedOut() {
			return attendance.ErrAlreadyCheckedOut
		}

		policy, err := s.settingsRepo.GetCompanyPolicy(ctx)
		if err != nil {
			return fmt.Errorf("failed to get company policy: %w", err)
		}
		workEnd, err := policy.WorkEndOn(today, s.loc)
		if err != nil {
			return err
		}

		totalHours = decimal.NewFromFloat(now.Sub(*existing.CheckIn).Hours()).Round(1)
		overtime = totalHours.Sub(policy.OvertimeThresholdHours)
		if overtime.IsNegative() {
			overtime = decimal.Zero
		}

		if now.Before(workEnd) {
			earlyMinutes = int(math.Ceil(workEnd.Sub(now).Minutes()))
			// Leaving early overrides a LATE morning; the day's outcome is the
			// worse of the two.
			existing.Status = attendance.StatusEarlyLeave
		}

		existing.CheckOut = &now
		existing.TotalHours = &totalHours
		if req.Notes != nil {
			existing.Notes = req.Notes
		}
		if err := s.attendanceRepo.Update(ctx, *existing); err != nil {
			return fmt.Errorf("failed to record check-out: %w", err)
		}
		rec = *existing
		return nil
	})
	if txErr != nil {
		return attendance.AttendanceResponse{}, txErr
	}

	s.metrics.CheckOutsTotal.Inc()

	totalF, _ := totalHours.Float64()
	overtimeF, _ := overtime.Float64()
	action := notification.ActionCheckedOut
	if earlyMinutes > 0 {
		action = notification.ActionEarlyDeparture
	}
	s.notifier.PublishAttendanceEvent(ctx, notification.AttendanceEvent{
		ActorID:       req.UserID,
		ActorRole:     req.Role,
		Action:        action,
		Timestamp:     now,
		EarlyMinutes:  earlyMinutes,
		TotalHours:    totalF,
		OvertimeHours: overtimeF,
	})

	resp := toResponse(rec)
	resp.EarlyMinutes = earlyMinutes
	resp.OvertimeHours = overtimeF
	return resp, nil
}

// GetMyAttendance implements attendance.Service.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, userID string, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.attendanceRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// ListAttendance implements attendance.Service.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// eligibleEmployee enforces the eligibility gate. Admins without an employee
// profile may still operate the state machine; everybody else needs an active
// profile.
func (s *AttendanceServiceImpl) eligibleEmployee(ctx context.Context, userID string, role user.Role, action string) (*employee.Employee, error) {
	emp, err := s.employeeRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee profile: %w", err)
	}
	if role == user.RoleAdmin {
		return emp, nil
	}
	if emp == nil {
		return nil, attendance.ErrEmployeeNotFound
	}
	if emp.Eligible() {
		return emp, nil
	}
	if !emp.IsActive {
		return nil, attendance.ErrEmployeeInactive
	}
	return nil, &attendance.StatusRestrictedError{Status: emp.Status, Action: action}
}

func (s *AttendanceServiceImpl) userLock(userID string) *sync.Mutex {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func toResponse(a attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		UserName:   a.UserName,
		EmployeeID: a.EmployeeID,
		Date:       a.Date.Format("2006-01-02"),
		Status:     a.Status,
		Notes:      a.Notes,
	}
	if a.CheckIn != nil {
		v := a.CheckIn.Format(time.RFC3339)
		resp.CheckInTime = &v
	}
	if a.CheckOut != nil {
		v := a.CheckOut.Format(time.RFC3339)
		resp.CheckOutTime = &v
	}
	if a.TotalHours != nil {
		v, _ := a.TotalHours.Float64()
		resp.TotalHours = &v
	}
	return resp
}

func buildListResponse(records []attendance.Attendance, total int64, page, limit int) attendance.ListAttendanceResponse {
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, toResponse(r))
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		Attendances: responses,
	}
}
