package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/attendance"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/notification"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/settings"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/metrics"
)

// ===== in-memory fakes =====

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance // userID + "|" + date
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func (f *fakeAttendanceRepo) key(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(att.UserID, att.Date)
	if _, exists := f.records[k]; exists {
		// Mirrors the unique (user_id, date) constraint.
		return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
	}
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	f.records[k] = att
	return att, nil
}

func (f *fakeAttendanceRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	att, ok := f.records[f.key(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := att
	return &cp, nil
}

func (f *fakeAttendanceRepo) Update(ctx context.Context, att attendance.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(att.UserID, att.Date)
	if _, ok := f.records[k]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	f.records[k] = att
	return nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, att := range f.records {
		if filter.UserID != nil && att.UserID != *filter.UserID {
			continue
		}
		out = append(out, att)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) ListByUser(ctx context.Context, userID string, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	return f.List(ctx, attendance.AttendanceFilter{UserID: &userID})
}

func (f *fakeAttendanceRepo) BulkCreateAbsences(ctx context.Context, records []attendance.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, att := range records {
		k := f.key(att.UserID, att.Date)
		if _, exists := f.records[k]; exists {
			continue
		}
		if att.ID == "" {
			att.ID = uuid.New().String()
		}
		f.records[k] = att
	}
	return nil
}

func (f *fakeAttendanceRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeEmployeeRepo struct {
	byUserID map[string]*employee.Employee
}

func (f *fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string) (*employee.Employee, error) {
	return f.byUserID[userID], nil
}

func (f *fakeEmployeeRepo) ManagerUserID(ctx context.Context, userID string) (*string, error) {
	return nil, nil
}

func (f *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}

type fakeSettingsRepo struct {
	policy settings.CompanyPolicy
}

func (f *fakeSettingsRepo) GetCompanyPolicy(ctx context.Context) (settings.CompanyPolicy, error) {
	return f.policy, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.AttendanceEvent
}

func (r *recordingNotifier) PublishAttendanceEvent(ctx context.Context, evt notification.AttendanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingNotifier) GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	return nil, nil
}
func (r *recordingNotifier) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return 0, nil
}
func (r *recordingNotifier) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	return nil
}
func (r *recordingNotifier) MarkAllAsRead(ctx context.Context, userID string) error { return nil }
func (r *recordingNotifier) Delete(ctx context.Context, userID string, notificationID string) error {
	return nil
}

func (r *recordingNotifier) published() []notification.AttendanceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.AttendanceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// passthroughTxManager runs the unit of work without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ===== fixture =====

type fixture struct {
	svc      *AttendanceServiceImpl
	repo     *fakeAttendanceRepo
	notifier *recordingNotifier
}

func activeEmployee(userID string) *employee.Employee {
	return &employee.Employee{
		ID:       "emp-" + userID,
		UserID:   &userID,
		FullName: "Test Employee",
		IsActive: true,
		Status:   employee.StatusActive,
	}
}

// newFixture wires the service against fakes with the standard policy:
// 08:00-17:00, 2 minutes grace, overtime past 8 hours.
func newFixture(t *testing.T, employees map[string]*employee.Employee) *fixture {
	t.Helper()

	repo := newFakeAttendanceRepo()
	notifier := &recordingNotifier{}
	svc := NewAttendanceService(
		repo,
		&fakeEmployeeRepo{byUserID: employees},
		&fakeSettingsRepo{policy: settings.CompanyPolicy{
			WorkStart:              "08:00",
			WorkEnd:                "17:00",
			LateGraceMinutes:       2,
			OvertimeThresholdHours: decimal.NewFromInt(8),
		}},
		passthroughTxManager{},
		notifier,
		metrics.New(prometheus.NewRegistry()),
		time.UTC,
	).(*AttendanceServiceImpl)

	return &fixture{svc: svc, repo: repo, notifier: notifier}
}

func (f *fixture) at(t *testing.T, clock string) {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", "2026-03-02 "+clock, time.UTC)
	require.NoError(t, err)
	f.svc.now = func() time.Time { return ts }
}

// ===== check-in =====

func TestCheckIn_OnTime_Present(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:00")

	resp, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.Equal(t, "2026-03-02", resp.Date)
	require.NotNil(t, resp.CheckInTime)

	events := f.notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, notification.ActionCheckedIn, events[0].Action)
}

func TestCheckIn_AtGraceBoundary_NotLate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:02")

	resp, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
}

func TestCheckIn_PastGrace_LateFromScheduledStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:03")

	resp, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.Equal(t, 3, resp.LateMinutes)

	events := f.notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, notification.ActionLateArrival, events[0].Action)
	assert.Equal(t, 3, events[0].LateMinutes)
}

func TestCheckIn_NoGrace_OneMinuteLateIsOne(t *testing.T) {
	t.Parallel()
	repo := newFakeAttendanceRepo()
	svc := NewAttendanceService(
		repo,
		&fakeEmployeeRepo{byUserID: map[string]*employee.Employee{"u1": activeEmployee("u1")}},
		&fakeSettingsRepo{policy: settings.CompanyPolicy{
			WorkStart:              "08:00",
			WorkEnd:                "17:00",
			LateGraceMinutes:       0,
			OvertimeThresholdHours: decimal.NewFromInt(8),
		}},
		passthroughTxManager{},
		&recordingNotifier{},
		metrics.New(prometheus.NewRegistry()),
		time.UTC,
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	}

	resp, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.Equal(t, 1, resp.LateMinutes)
}

func TestCheckIn_Twice_Rejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:00")

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	// Only the first transition produced an event.
	assert.Len(t, f.notifier.published(), 1)
	assert.Equal(t, 1, f.repo.count())
}

func TestCheckIn_Concurrent_ExactlyOneSucceeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:00")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success, rejected := 0, 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		require.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
		rejected++
	}

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 1, f.repo.count())
	assert.Len(t, f.notifier.published(), 1)
}

func TestCheckIn_ReopensAbsentRecord(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "08:00")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := f.repo.Create(context.Background(), attendance.Attendance{
		UserID: "u1",
		Date:   day,
		Status: attendance.StatusAbsent,
	})
	require.NoError(t, err)

	resp, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 1, f.repo.count())
}

// ===== eligibility =====

func TestCheckIn_NoEmployeeProfile_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{})
	f.at(t, "08:00")

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
	assert.Equal(t, 0, f.repo.count())
	assert.Empty(t, f.notifier.published())
}

func TestCheckIn_AdminWithoutProfile_Allowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{})
	f.at(t, "08:00")

	resp, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "admin-1", Role: user.RoleAdmin})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Nil(t, resp.EmployeeID)
}

func TestCheckIn_InactiveEmployee_Forbidden(t *testing.T) {
	t.Parallel()
	emp := activeEmployee("u1")
	emp.IsActive = false
	f := newFixture(t, map[string]*employee.Employee{"u1": emp})
	f.at(t, "08:00")

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	assert.ErrorIs(t, err, attendance.ErrEmployeeInactive)
}

func TestCheckIn_RestrictedStatus_Forbidden(t *testing.T) {
	t.Parallel()
	emp := activeEmployee("u1")
	emp.Status = employee.StatusOnLeave
	f := newFixture(t, map[string]*employee.Employee{"u1": emp})
	f.at(t, "08:00")

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})

	var restrictedErr *attendance.StatusRestrictedError
	require.ErrorAs(t, err, &restrictedErr)
	assert.Equal(t, employee.StatusOnLeave, restrictedErr.Status)
}

// ===== check-out =====

func TestCheckOut_WithoutCheckIn_RejectedWithoutMutation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	f.at(t, "17:00")

	_, err := f.svc.CheckOut(context.Background(), attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})

	assert.ErrorIs(t, err, attendance.ErrNoCheckInRecord)
	assert.Equal(t, 0, f.repo.count())
	assert.Empty(t, f.notifier.published())
}

func TestCheckOut_FullDay_TotalAndOvertime(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	ctx := context.Background()

	f.at(t, "08:00")
	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	f.at(t, "17:00")
	resp, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	require.NotNil(t, resp.TotalHours)
	assert.InDelta(t, 9.0, *resp.TotalHours, 0.001)
	assert.InDelta(t, 1.0, resp.OvertimeHours, 0.001)
	assert.Equal(t, 0, resp.EarlyMinutes)

	events := f.notifier.published()
	require.Len(t, events, 2)
	assert.Equal(t, notification.ActionCheckedOut, events[1].Action)
	assert.InDelta(t, 9.0, events[1].TotalHours, 0.001)
	assert.InDelta(t, 1.0, events[1].OvertimeHours, 0.001)
}

func TestCheckOut_Early_MarksEarlyLeave(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	ctx := context.Background()

	f.at(t, "08:00")
	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	f.at(t, "16:30")
	resp, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusEarlyLeave, resp.Status)
	assert.Equal(t, 30, resp.EarlyMinutes)

	events := f.notifier.published()
	require.Len(t, events, 2)
	assert.Equal(t, notification.ActionEarlyDeparture, events[1].Action)
	assert.Equal(t, 30, events[1].EarlyMinutes)
}

func TestCheckOut_Early_OverridesLateStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	ctx := context.Background()

	f.at(t, "08:10")
	resp, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)
	require.Equal(t, attendance.StatusLate, resp.Status)

	f.at(t, "16:00")
	out, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusEarlyLeave, out.Status)
}

func TestCheckOut_TotalHoursRoundedToOneDecimal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	ctx := context.Background()

	f.at(t, "09:00")
	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	// 8h20m worked = 8.333... hours, rounds to 8.3.
	f.at(t, "17:20")
	resp, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})

	require.NoError(t, err)
	require.NotNil(t, resp.TotalHours)
	assert.InDelta(t, 8.3, *resp.TotalHours, 0.001)
	assert.InDelta(t, 0.3, resp.OvertimeHours, 0.001)
}

func TestCheckOut_Twice_Rejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{"u1": activeEmployee("u1")})
	ctx := context.Background()

	f.at(t, "08:00")
	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	f.at(t, "17:00")
	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	assert.Len(t, f.notifier.published(), 2)
}

// ===== transactions =====

type countingTxManager struct {
	mu    sync.Mutex
	calls int
}

func (m *countingTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

func (m *countingTxManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestTransitions_RunInsideTransaction(t *testing.T) {
	t.Parallel()
	tm := &countingTxManager{}
	repo := newFakeAttendanceRepo()
	svc := NewAttendanceService(
		repo,
		&fakeEmployeeRepo{byUserID: map[string]*employee.Employee{"u1": activeEmployee("u1")}},
		&fakeSettingsRepo{policy: settings.CompanyPolicy{
			WorkStart:              "08:00",
			WorkEnd:                "17:00",
			LateGraceMinutes:       2,
			OvertimeThresholdHours: decimal.NewFromInt(8),
		}},
		tm,
		&recordingNotifier{},
		metrics.New(prometheus.NewRegistry()),
		time.UTC,
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, 1, tm.count())

	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	}
	_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, 2, tm.count())

	// Sentinel errors raised inside the unit of work surface unchanged.
	_, err = svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	assert.Equal(t, 3, tm.count())
}

// ===== listings =====

func TestGetMyAttendance_ReturnsOwnRecords(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]*employee.Employee{
		"u1": activeEmployee("u1"),
		"u2": activeEmployee("u2"),
	})
	ctx := context.Background()
	f.at(t, "08:00")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u1", Role: user.RoleEmployee})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{UserID: "u2", Role: user.RoleEmployee})
	require.NoError(t, err)

	result, err := f.svc.GetMyAttendance(ctx, "u1", attendance.MyAttendanceFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)
	require.Len(t, result.Attendances, 1)
	assert.Equal(t, "u1", result.Attendances[0].UserID)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
}
