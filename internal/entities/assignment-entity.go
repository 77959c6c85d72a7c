package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Assignment is one person-to-equipment binding over a time interval.
// A row with a null end date is the currently active assignment; at most one
// such row may exist per equipment (enforced by the engine plus a partial
// unique index). Once the end date is set the row is immutable.
type Assignment struct {
	ID          uint64    `json:"id" db:"id"`
	EquipmentID uint64    `json:"equipment_id" db:"equipment_id"`
	EmployeeID  uint64    `json:"employee_id" db:"employee_id"`
	Condition   string    `json:"condition" db:"condition"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     null.Time `json:"end_date" db:"end_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined columns, not part of the assignments table.
	EquipmentName string `json:"equipment_name,omitempty" db:"-"`
	EmployeeName  string `json:"employee_name,omitempty" db:"-"`
}

// Open reports whether this row is the currently active assignment.
func (a Assignment) Open() bool {
	return !a.EndDate.Valid
}
