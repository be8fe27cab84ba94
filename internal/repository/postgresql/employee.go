package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepository{db: db}
}

// GetByUserID implements employee.Repository.
func (e *employeeRepository) GetByUserID(ctx context.Context, userID string) (*employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, user_id, manager_id, full_name, is_active, status, created_at, updated_at
		FROM employees
		WHERE user_id = $1 AND deleted_at IS NULL
		LIMIT 1
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, userID).Scan(
		&emp.ID, &emp.UserID, &emp.ManagerID, &emp.FullName,
		&emp.IsActive, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by user ID: %w", err)
	}

	return &emp, nil
}

// ManagerUserID implements employee.Repository.
func (e *employeeRepository) ManagerUserID(ctx context.Context, userID string) (*string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT m.user_id
		FROM employees emp
		JOIN employees m ON m.id = emp.manager_id
		WHERE emp.user_id = $1 AND emp.deleted_at IS NULL AND m.deleted_at IS NULL
		LIMIT 1
	`

	var managerUserID *string
	err := q.QueryRow(ctx, query, userID).Scan(&managerUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get manager user ID: %w", err)
	}

	return managerUserID, nil
}

// ListActive implements employee.Repository.
func (e *employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, user_id, manager_id, full_name, is_active, status, created_at, updated_at
		FROM employees
		WHERE is_active = true AND status = $1 AND deleted_at IS NULL
	`

	rows, err := q.Query(ctx, query, employee.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var emp employee.Employee
		if err := rows.Scan(
			&emp.ID, &emp.UserID, &emp.ManagerID, &emp.FullName,
			&emp.IsActive, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	return employees, nil
}
