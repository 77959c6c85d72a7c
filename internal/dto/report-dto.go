package dto

// InventoryRowDTO is one row of the inventory report: equipment plus its
// current holder, if any.
type InventoryRowDTO struct {
	EquipmentID  uint64  `json:"equipment_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	SerialNumber string  `json:"serial_number"`
	Status       string  `json:"status"`
	PurchaseDate string  `json:"purchase_date"`
	HolderName   *string `json:"holder_name"`
	Condition    *string `json:"condition"`
	AssignedAt   *string `json:"assigned_at"`
}
