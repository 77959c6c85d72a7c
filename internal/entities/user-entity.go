package entities

import (
	"gpit-system/pkg/types"
)

type User struct {
	ID    uint64 `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	Password string `json:"-" db:"password"`

	// Role is one of constants.RoleAdmin / RoleTechnician / RoleEmployee.
	Role string `json:"role" db:"role"`

	// Status is pending until an admin approves the account.
	Status string `json:"status" db:"status"`

	types.BaseEntity
}
