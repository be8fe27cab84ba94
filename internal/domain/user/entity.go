package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Full access, notified of everything
	RoleManager  Role = "manager"  // Supervises employees
	RoleEmployee Role = "employee" // Regular employee
)

type User struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
