package settings

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyPolicy is the working-hour policy applied to every attendance
// transaction. Singleton row, maintained by the settings surface.
type CompanyPolicy struct {
	WorkStart              string // "15:04" clock time
	WorkEnd                string // "15:04" clock time
	LateGraceMinutes       int
	OvertimeThresholdHours decimal.Decimal
	UpdatedAt              time.Time
}

// WorkStartOn anchors the policy's start time to a calendar day.
func (p CompanyPolicy) WorkStartOn(day time.Time, loc *time.Location) (time.Time, error) {
	return clockOn(p.WorkStart, day, loc)
}

// WorkEndOn anchors the policy's end time to a calendar day.
func (p CompanyPolicy) WorkEndOn(day time.Time, loc *time.Location) (time.Time, error) {
	return clockOn(p.WorkEnd, day, loc)
}

func clockOn(clock string, day time.Time, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid policy clock time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
