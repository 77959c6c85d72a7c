package dto

type CreateIncidentDTO struct {
	Title       string `json:"title" validate:"required,not_blank"`
	Description string `json:"description" validate:"required,not_blank"`
	EquipmentID uint64 `json:"equipment_id" validate:"required,gt=0"`
}

type UpdateIncidentDTO struct {
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=open in_progress resolved"`
	AssignedTo *uint64 `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
}

type IncidentDTO struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	EquipmentID uint64  `json:"equipment_id"`
	ReportedBy  uint64  `json:"reported_by"`
	AssignedTo  *uint64 `json:"assigned_to"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}
