package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleAccountant Role = "accountant"
	RoleOffice     Role = "office"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleAccountant, RoleOffice:
		return true
	}
	return false
}

// OwnsWallet reports whether users with this role carry a wallet ledger.
// Accountants administer other people's wallets and never own one.
func (r Role) OwnsWallet() bool {
	return r.IsValid() && r != RoleAccountant
}

type User struct {
	ID           uuid.UUID
	Username     string
	Name         string
	PasswordHash string
	Role         Role
	EmployeeID   *string
	PhoneNumber  *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
