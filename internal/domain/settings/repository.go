package settings

import (
	"context"
	"errors"
)

var ErrPolicyNotFound = errors.New("company policy not found")

// Repository reads the working-hour policy.
type Repository interface {
	GetCompanyPolicy(ctx context.Context) (CompanyPolicy, error)
}
