package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/settings"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/database"
)

type settingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) settings.Repository {
	return &settingsRepository{db: db}
}

// GetCompanyPolicy implements settings.Repository. The policy is a singleton
// row; seeding it is the settings surface's responsibility.
func (s *settingsRepository) GetCompanyPolicy(ctx context.Context) (settings.CompanyPolicy, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT work_start, work_end, late_grace_minutes, overtime_threshold_hours, updated_at
		FROM company_policy
		LIMIT 1
	`

	var policy settings.CompanyPolicy
	err := q.QueryRow(ctx, query).Scan(
		&policy.WorkStart, &policy.WorkEnd,
		&policy.LateGraceMinutes, &policy.OvertimeThresholdHours,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.CompanyPolicy{}, settings.ErrPolicyNotFound
		}
		return settings.CompanyPolicy{}, fmt.Errorf("failed to get company policy: %w", err)
	}

	return policy, nil
}
