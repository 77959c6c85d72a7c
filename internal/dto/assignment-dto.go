package dto

type AssignDTO struct {
	EmployeeID uint64 `json:"employee_id" validate:"required,gt=0"`
	Condition  string `json:"condition" validate:"required,not_blank"`
}

type AssignmentDTO struct {
	ID          uint64  `json:"id"`
	EquipmentID uint64  `json:"equipment_id"`
	EmployeeID  uint64  `json:"employee_id"`
	Condition   string  `json:"condition"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`

	EquipmentName string `json:"equipment_name,omitempty"`
	EmployeeName  string `json:"employee_name,omitempty"`
}
