package dto

type RegisterUserDTO struct {
	Name            string `json:"name" validate:"required,not_blank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,user_role"`
}

type UserDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type ShortUserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BlockedReason explains why a delete was refused. It is a normal return
// value, not an error; the API layer renders it into user-facing text.
type BlockedReason struct {
	Kind    string   `json:"kind"`
	Count   int      `json:"count"`
	Details []string `json:"details,omitempty"`
}

const (
	BlockKindIncidents         = "incidents"
	BlockKindActiveAssignments = "activeAssignments"
	BlockKindCreatedEquipment  = "createdEquipment"
	BlockKindLastAdmin         = "lastAdmin"
)
