package entities

import (
	"github.com/aarondl/null/v8"

	"gpit-system/pkg/types"
)

type Incident struct {
	ID          uint64 `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	EquipmentID uint64 `json:"equipment_id" db:"equipment_id"`
	ReportedBy  uint64 `json:"reported_by" db:"reported_by"`

	// AssignedTo is the technician handling the ticket, if any.
	AssignedTo null.Uint64 `json:"assigned_to" db:"assigned_to"`

	Status string `json:"status" db:"status"`

	types.BaseEntity
}
