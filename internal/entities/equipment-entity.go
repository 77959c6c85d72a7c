package entities

import (
	"time"

	"gpit-system/pkg/types"
)

type Equipment struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Type string `json:"type" db:"type"`

	// SerialNumber is stored trimmed and uppercased; unique.
	SerialNumber string    `json:"serial_number" db:"serial_number"`
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`

	// Status is derived by the assignment engine (Available/Assigned) or set
	// through the manual-status operation (Broken/UnderMaintenance/Reserved).
	// It is never accepted as free-form input.
	Status string `json:"status" db:"status"`

	// CreatedBy is immutable after creation.
	CreatedBy uint64 `json:"created_by" db:"created_by"`

	types.BaseEntity
}
