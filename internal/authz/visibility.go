// Package authz holds the role/identity-scoped projection applied before
// records leave the service layer. Every listing path goes through these
// functions, so the "one open assignment per equipment" and "an employee
// sees only their own binding" rules live in exactly one place.
//
// All functions are pure: records in, records out, no hidden state.
package authz

import (
	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/pkg/constants"
)

const timeLayout = "2006-01-02, 15:04:05"

// IndexOpenByEquipment maps equipment id to its open assignment. Input rows
// with a set end date are ignored. By construction at most one open row
// exists per equipment, so a plain map is enough.
func IndexOpenByEquipment(assignments []entities.Assignment) map[uint64]entities.Assignment {
	open := make(map[uint64]entities.Assignment, len(assignments))
	for _, a := range assignments {
		if a.Open() {
			open[a.EquipmentID] = a
		}
	}
	return open
}

// CanSeeAssignment reports whether the viewer may see this binding at all.
// Admin and Technician see everything; an Employee only their own rows.
func CanSeeAssignment(role string, viewerID uint64, a entities.Assignment) bool {
	if constants.IsPrivilegedRole(role) {
		return true
	}
	return a.EmployeeID == viewerID
}

// VisibleOpenAssignment resolves the per-viewer truth for one equipment:
// the open assignment if the viewer is allowed to see it, nil otherwise.
// Note the distinction from the global truth: equipment can be Assigned to
// someone else and still show no holder columns to an employee viewer.
func VisibleOpenAssignment(role string, viewerID uint64, equipmentID uint64, open map[uint64]entities.Assignment) *entities.Assignment {
	a, ok := open[equipmentID]
	if !ok {
		return nil
	}
	if !CanSeeAssignment(role, viewerID, a) {
		return nil
	}
	return &a
}

// ProjectEquipment builds the viewer-scoped listing. The Status column is
// always the stored global status; only the derived holder columns are
// scoped to the viewer.
func ProjectEquipment(role string, viewerID uint64, items []entities.Equipment, open map[uint64]entities.Assignment) []dto.EquipmentViewDTO {
	views := make([]dto.EquipmentViewDTO, 0, len(items))
	for _, e := range items {
		view := dto.EquipmentViewDTO{EquipmentDTO: equipmentToDTO(e)}

		if a := VisibleOpenAssignment(role, viewerID, e.ID, open); a != nil {
			holderID := a.EmployeeID
			condition := a.Condition
			assignedAt := a.StartDate.Format(timeLayout)

			view.HolderID = &holderID
			view.Condition = &condition
			view.AssignedAt = &assignedAt
			if a.EmployeeName != "" {
				holderName := a.EmployeeName
				view.HolderName = &holderName
			}
			view.AssignedToMe = a.EmployeeID == viewerID
		}

		views = append(views, view)
	}
	return views
}

// FilterAssignments drops rows the viewer may not see.
func FilterAssignments(role string, viewerID uint64, assignments []entities.Assignment) []entities.Assignment {
	if constants.IsPrivilegedRole(role) {
		return assignments
	}
	visible := make([]entities.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if CanSeeAssignment(role, viewerID, a) {
			visible = append(visible, a)
		}
	}
	return visible
}

// FilterIncidents restricts an employee to incidents they reported.
func FilterIncidents(role string, viewerID uint64, incidents []entities.Incident) []entities.Incident {
	if constants.IsPrivilegedRole(role) {
		return incidents
	}
	visible := make([]entities.Incident, 0, len(incidents))
	for _, i := range incidents {
		if i.ReportedBy == viewerID {
			visible = append(visible, i)
		}
	}
	return visible
}

func equipmentToDTO(e entities.Equipment) dto.EquipmentDTO {
	out := dto.EquipmentDTO{
		ID:           e.ID,
		Name:         e.Name,
		Type:         e.Type,
		SerialNumber: e.SerialNumber,
		PurchaseDate: e.PurchaseDate.Format("2006-01-02"),
		Status:       e.Status,
		CreatedBy:    e.CreatedBy,
	}
	if e.CreatedAt != nil {
		out.CreatedAt = e.CreatedAt.Format(timeLayout)
	}
	if e.UpdatedAt != nil {
		out.UpdatedAt = e.UpdatedAt.Format(timeLayout)
	}
	return out
}
