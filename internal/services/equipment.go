package services

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gpit-system/internal/authz"
	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

// EquipmentService covers the read side and the non-lifecycle writes of the
// equipment catalog: listing with viewer-scoped projection, metadata
// updates and manual status changes. Assignment writes live in
// AssignmentService, guarded deletes in DeletionGuardService.
type EquipmentService struct {
	txManager      repositories.TxManagerInterface
	equipmentRepo  repositories.EquipmentRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	guard          *DeletionGuardService
	logger         *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	guard *DeletionGuardService,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		txManager:      txManager,
		equipmentRepo:  equipmentRepo,
		assignmentRepo: assignmentRepo,
		guard:          guard,
		logger:         logger,
	}
}

// GetEquipments lists the catalog for the viewer. Every role sees every row
// and the global status; the holder columns are filled only where the
// viewer may see the underlying assignment.
func (s *EquipmentService) GetEquipments(ctx context.Context, viewer utils.Viewer, params utils.QueryParams) ([]dto.EquipmentViewDTO, uint64, error) {
	items, total, err := s.equipmentRepo.GetEquipments(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	open, err := s.assignmentRepo.ListOpen(ctx)
	if err != nil {
		return nil, 0, err
	}

	views := authz.ProjectEquipment(viewer.Role, viewer.UserID, items, authz.IndexOpenByEquipment(open))
	return views, total, nil
}

// FindEquipment returns a single viewer-scoped row.
func (s *EquipmentService) FindEquipment(ctx context.Context, viewer utils.Viewer, id uint64) (*dto.EquipmentViewDTO, error) {
	eq, err := s.equipmentRepo.FindEquipment(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	index := map[uint64]entities.Assignment{}
	openAssignment, err := s.assignmentRepo.FindOpenAssignment(ctx, nil, id)
	if err == nil {
		index[openAssignment.EquipmentID] = *openAssignment
	} else if !isNotFound(err) {
		return nil, err
	}

	views := authz.ProjectEquipment(viewer.Role, viewer.UserID, []entities.Equipment{*eq}, index)
	return &views[0], nil
}

// UpdateEquipment changes descriptive fields only. Status and created_by
// are never writable through this path.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	var updated dto.EquipmentDTO

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}

		if d.Name != nil {
			eq.Name = strings.TrimSpace(*d.Name)
		}
		if d.Type != nil {
			eq.Type = strings.TrimSpace(*d.Type)
		}
		if d.SerialNumber != nil {
			eq.SerialNumber = NormalizeSerial(*d.SerialNumber)
		}
		if d.PurchaseDate != nil {
			parsed, err := time.Parse("2006-01-02", *d.PurchaseDate)
			if err != nil {
				return apperrors.NewValidationError("purchase_date must be formatted as YYYY-MM-DD")
			}
			eq.PurchaseDate = parsed
		}

		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, id, *eq); err != nil {
			return err
		}

		fresh, err := s.equipmentRepo.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = equipmentEntityToDTO(*fresh)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update equipment", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("equipment updated", zap.Uint64("id", id))
	return &updated, nil
}

// SetStatus puts the equipment into a manual operator state (Broken,
// UnderMaintenance, Reserved). Returning from a manual state re-derives
// Available or Assigned from the presence of an open assignment, so the
// derived pair cannot be forced by hand.
func (s *EquipmentService) SetStatus(ctx context.Context, id uint64, status string) (*dto.EquipmentDTO, error) {
	if !constants.IsManualEquipmentStatus(status) {
		return nil, apperrors.NewValidationError("status must be one of the manual states")
	}

	var updated dto.EquipmentDTO

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.equipmentRepo.FindEquipment(ctx, tx, id); err != nil {
			return err
		}

		if err := s.equipmentRepo.SetStatus(ctx, tx, id, status); err != nil {
			return err
		}

		fresh, err := s.equipmentRepo.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = equipmentEntityToDTO(*fresh)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to set equipment status",
			zap.Uint64("id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("equipment status set", zap.Uint64("id", id), zap.String("status", status))
	return &updated, nil
}

// ClearManualStatus returns the equipment from a manual state to the
// derived one: Assigned when an open assignment exists, Available otherwise.
func (s *EquipmentService) ClearManualStatus(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	var updated dto.EquipmentDTO

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !constants.IsManualEquipmentStatus(eq.Status) {
			return apperrors.NewValidationError("equipment is not in a manual state")
		}

		derived := constants.EquipmentStatusAvailable
		if _, err := s.assignmentRepo.FindOpenAssignment(ctx, tx, id); err == nil {
			derived = constants.EquipmentStatusAssigned
		} else if !isNotFound(err) {
			return err
		}

		if err := s.equipmentRepo.SetStatus(ctx, tx, id, derived); err != nil {
			return err
		}

		fresh, err := s.equipmentRepo.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = equipmentEntityToDTO(*fresh)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to clear manual status", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("equipment returned to derived status",
		zap.Uint64("id", id),
		zap.String("status", updated.Status),
	)
	return &updated, nil
}

// DeleteEquipment delegates to the deletion guard.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) ([]dto.BlockedReason, error) {
	return s.guard.DeleteEquipment(ctx, id)
}
