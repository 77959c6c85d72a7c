package services

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
)

// AssignmentService is the consistency engine for the equipment/assignment
// lifecycle. Every mutation here runs as a single transaction so that the
// two invariants hold under concurrent callers:
//
//   - at most one open assignment per equipment (backed at commit time by
//     the partial unique index on assignments);
//   - equipment status Assigned if and only if an open assignment exists,
//     for equipment not held in a manual state.
//
// On a lost race the loser observes a ConflictError; retrying is the
// caller's decision, never the engine's.
type AssignmentService struct {
	txManager      repositories.TxManagerInterface
	equipmentRepo  repositories.EquipmentRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	logger         *zap.Logger
}

func NewAssignmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		txManager:      txManager,
		equipmentRepo:  equipmentRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// NormalizeSerial is the canonical serial-number form: trimmed, uppercase.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// CreateEquipment inserts a new equipment row, optionally together with its
// initial assignment, in one atomic write. Status is derived: Assigned when
// an assignment is supplied, Available otherwise — never taken from input.
func (s *AssignmentService) CreateEquipment(ctx context.Context, actorID uint64, d dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	name := strings.TrimSpace(d.Name)
	eqType := strings.TrimSpace(d.Type)
	serial := NormalizeSerial(d.SerialNumber)

	if name == "" || eqType == "" || serial == "" || strings.TrimSpace(d.PurchaseDate) == "" {
		return nil, apperrors.NewValidationError("name, type, serial_number and purchase_date are required")
	}

	purchaseDate, err := time.Parse("2006-01-02", d.PurchaseDate)
	if err != nil {
		return nil, apperrors.NewValidationError("purchase_date must be formatted as YYYY-MM-DD")
	}

	condition := ""
	if d.Assignment != nil {
		condition, err = resolveCondition(d.Assignment.Condition)
		if err != nil {
			return nil, err
		}
		if err := s.checkAssignee(ctx, d.Assignment.EmployeeID); err != nil {
			return nil, err
		}
	}

	eq := entities.Equipment{
		Name:         name,
		Type:         eqType,
		SerialNumber: serial,
		PurchaseDate: purchaseDate,
		Status:       constants.EquipmentStatusAvailable,
		CreatedBy:    actorID,
	}
	if d.Assignment != nil {
		eq.Status = constants.EquipmentStatusAssigned
	}

	now := time.Now()
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.equipmentRepo.CreateEquipment(ctx, tx, eq)
		if err != nil {
			return err
		}
		eq.ID = id

		if d.Assignment == nil {
			return nil
		}

		_, err = s.assignmentRepo.CreateAssignment(ctx, tx, entities.Assignment{
			EquipmentID: id,
			EmployeeID:  d.Assignment.EmployeeID,
			Condition:   condition,
			StartDate:   now,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to create equipment", zap.String("serial", serial), zap.Error(err))
		return nil, err
	}

	s.logger.Info("equipment created",
		zap.Uint64("id", eq.ID),
		zap.String("serial", serial),
		zap.String("status", eq.Status),
	)

	created, err := s.equipmentRepo.FindEquipment(ctx, nil, eq.ID)
	if err != nil {
		return nil, err
	}
	result := equipmentEntityToDTO(*created)
	return &result, nil
}

// Assign binds the equipment to a new employee. A still-open previous
// assignment is closed in the same transaction, so the transfer is one
// atomic step: close old, insert new, derive status.
func (s *AssignmentService) Assign(ctx context.Context, equipmentID uint64, d dto.AssignDTO) (*dto.AssignmentDTO, error) {
	if strings.TrimSpace(d.Condition) == "" {
		return nil, apperrors.NewValidationError("condition is required")
	}
	if err := s.checkAssignee(ctx, d.EmployeeID); err != nil {
		return nil, err
	}

	now := time.Now()
	var assignment entities.Assignment

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.equipmentRepo.FindEquipment(ctx, tx, equipmentID); err != nil {
			return err
		}

		// Reassignment implicitly ends the previous holder's binding.
		if _, err := s.assignmentRepo.CloseOpenAssignment(ctx, tx, equipmentID, now); err != nil {
			return err
		}

		assignment = entities.Assignment{
			EquipmentID: equipmentID,
			EmployeeID:  d.EmployeeID,
			Condition:   strings.TrimSpace(d.Condition),
			StartDate:   now,
		}
		id, err := s.assignmentRepo.CreateAssignment(ctx, tx, assignment)
		if err != nil {
			return err
		}
		assignment.ID = id

		// Manual states (Broken etc.) are left alone; only Available flips.
		_, err = s.equipmentRepo.SetStatusIfCurrent(ctx, tx, equipmentID,
			constants.EquipmentStatusAssigned, constants.EquipmentStatusAvailable)
		return err
	})
	if err != nil {
		s.logger.Error("assign failed",
			zap.Uint64("equipment_id", equipmentID),
			zap.Uint64("employee_id", d.EmployeeID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("equipment assigned",
		zap.Uint64("equipment_id", equipmentID),
		zap.Uint64("employee_id", d.EmployeeID),
	)

	result := assignmentEntityToDTO(assignment)
	return &result, nil
}

// Unassign closes the open assignment. With no open assignment it fails
// with NotFoundError and changes nothing.
func (s *AssignmentService) Unassign(ctx context.Context, equipmentID uint64) error {
	now := time.Now()

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.equipmentRepo.FindEquipment(ctx, tx, equipmentID); err != nil {
			return err
		}

		closed, err := s.assignmentRepo.CloseOpenAssignment(ctx, tx, equipmentID, now)
		if err != nil {
			return err
		}
		if closed == 0 {
			return apperrors.NewNotFoundError("active assignment")
		}

		_, err = s.equipmentRepo.SetStatusIfCurrent(ctx, tx, equipmentID,
			constants.EquipmentStatusAvailable, constants.EquipmentStatusAssigned)
		return err
	})
	if err != nil {
		s.logger.Warn("unassign failed", zap.Uint64("equipment_id", equipmentID), zap.Error(err))
		return err
	}

	s.logger.Info("equipment unassigned", zap.Uint64("equipment_id", equipmentID))
	return nil
}

// GetAssignments lists assignment history, scoped to the caller when the
// role is not privileged.
func (s *AssignmentService) GetAssignments(ctx context.Context, role string, viewerID uint64, filter repositories.AssignmentFilter) ([]dto.AssignmentDTO, uint64, error) {
	if !constants.IsPrivilegedRole(role) {
		filter.EmployeeID = viewerID
	}

	list, total, err := s.assignmentRepo.GetAssignments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.AssignmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentEntityToDTO(a))
	}
	return out, total, nil
}

// checkAssignee verifies the target user exists, is active and holds the
// employee role: only employees hold equipment.
func (s *AssignmentService) checkAssignee(ctx context.Context, employeeID uint64) error {
	employee, err := s.userRepo.FindUser(ctx, nil, employeeID)
	if err != nil {
		return err
	}
	if employee.Role != constants.RoleEmployee {
		return apperrors.NewValidationError("only employees can be assigned equipment")
	}
	if employee.Status != constants.UserStatusActive {
		return apperrors.NewValidationError("employee account is not active")
	}
	return nil
}

// resolveCondition applies the condition rules of an initial assignment:
// omitted means the default label, present-but-blank is a caller mistake.
func resolveCondition(condition *string) (string, error) {
	if condition == nil {
		return constants.DefaultCondition, nil
	}
	trimmed := strings.TrimSpace(*condition)
	if trimmed == "" {
		return "", apperrors.NewValidationError("condition must not be blank when provided")
	}
	return trimmed, nil
}

func assignmentEntityToDTO(a entities.Assignment) dto.AssignmentDTO {
	out := dto.AssignmentDTO{
		ID:            a.ID,
		EquipmentID:   a.EquipmentID,
		EmployeeID:    a.EmployeeID,
		Condition:     a.Condition,
		StartDate:     a.StartDate.Format("2006-01-02, 15:04:05"),
		EquipmentName: a.EquipmentName,
		EmployeeName:  a.EmployeeName,
	}
	if a.EndDate.Valid {
		formatted := a.EndDate.Time.Format("2006-01-02, 15:04:05")
		out.EndDate = &formatted
	}
	return out
}

func equipmentEntityToDTO(e entities.Equipment) dto.EquipmentDTO {
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
		out.CreatedAt = e.CreatedAt.Format("2006-01-02, 15:04:05")
	}
	if e.UpdatedAt != nil {
		out.UpdatedAt = e.UpdatedAt.Format("2006-01-02, 15:04:05")
	}
	return out
}
