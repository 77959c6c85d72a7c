package dto

type CreateAssignmentInputDTO struct {
	EmployeeID uint64 `json:"employee_id" validate:"required,gt=0"`

	// Condition omitted -> default label; present but blank -> validation
	// error. Hence the pointer.
	Condition *string `json:"condition,omitempty" validate:"omitempty,not_blank"`
}

type CreateEquipmentDTO struct {
	Name         string `json:"name" validate:"required,not_blank"`
	Type         string `json:"type" validate:"required,not_blank"`
	SerialNumber string `json:"serial_number" validate:"required,serial_number"`
	PurchaseDate string `json:"purchase_date" validate:"required,datetime=2006-01-02"`

	// Optional initial assignment, written atomically with the equipment row.
	Assignment *CreateAssignmentInputDTO `json:"assignment,omitempty" validate:"omitempty"`
}

type UpdateEquipmentDTO struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,not_blank"`
	Type         *string `json:"type,omitempty" validate:"omitempty,not_blank"`
	SerialNumber *string `json:"serial_number,omitempty" validate:"omitempty,serial_number"`
	PurchaseDate *string `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SetEquipmentStatusDTO carries a manual operator state. Available/Assigned
// are derived and rejected here.
type SetEquipmentStatusDTO struct {
	Status string `json:"status" validate:"required,manual_status"`
}

type EquipmentDTO struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	SerialNumber string `json:"serial_number"`
	PurchaseDate string `json:"purchase_date"`
	Status       string `json:"status"`
	CreatedBy    uint64 `json:"created_by"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// EquipmentViewDTO is one row of a viewer-scoped equipment listing. The
// holder columns are populated from the open assignment only when the viewer
// is privileged or is the holder; Status stays the global truth.
type EquipmentViewDTO struct {
	EquipmentDTO

	HolderID        *uint64 `json:"holder_id,omitempty"`
	HolderName      *string `json:"holder_name,omitempty"`
	Condition       *string `json:"condition,omitempty"`
	AssignedAt      *string `json:"assigned_at,omitempty"`
	AssignedToMe    bool    `json:"assigned_to_me"`
}
