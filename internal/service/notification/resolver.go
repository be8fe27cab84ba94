package notification

import (
	"context"
	"fmt"

	"github.com/staffdesk/staffdesk-backend-go/internal/domain/employee"
	"github.com/staffdesk/staffdesk-backend-go/internal/domain/user"
)

// Resolver maps an event's actor to the set of user IDs that should hear
// about it, by role:
//
//	employee -> their manager plus every admin
//	manager  -> their own manager (if any) plus every admin
//	admin    -> every other admin
//
// The actor is never a recipient of their own event, and the result carries
// no duplicates (an admin who is also the actor's manager appears once).
type Resolver struct {
	employeeRepo employee.Repository
	userRepo     user.Repository
}

func NewResolver(employeeRepo employee.Repository, userRepo user.Repository) *Resolver {
	return &Resolver{
		employeeRepo: employeeRepo,
		userRepo:     userRepo,
	}
}

// Resolve returns the recipient user IDs for an event by actorID/actorRole.
func (r *Resolver) Resolve(ctx context.Context, actorID string, actorRole user.Role) ([]string, error) {
	recipients := make(map[string]struct{})

	if actorRole != user.RoleAdmin {
		managerID, err := r.employeeRepo.ManagerUserID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve manager: %w", err)
		}
		if managerID != nil {
			recipients[*managerID] = struct{}{}
		}
	}

	adminIDs, err := r.userRepo.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve admins: %w", err)
	}
	for _, id := range adminIDs {
		recipients[id] = struct{}{}
	}

	delete(recipients, actorID)

	out := make([]string, 0, len(recipients))
	for id := range recipients {
		out = append(out, id)
	}
	return out, nil
}
