package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
)

// DeletionGuardService decides whether destroying a user or an equipment
// record is safe, and performs the guarded delete. A refused delete is not
// an error: it returns the full list of blocking reasons as values, with
// counts matching the referencing rows exactly. Nothing is ever partially
// deleted.
type DeletionGuardService struct {
	txManager      repositories.TxManagerInterface
	userRepo       repositories.UserRepositoryInterface
	equipmentRepo  repositories.EquipmentRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	incidentRepo   repositories.IncidentRepositoryInterface
	logger         *zap.Logger
}

func NewDeletionGuardService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	logger *zap.Logger,
) *DeletionGuardService {
	return &DeletionGuardService{
		txManager:      txManager,
		userRepo:       userRepo,
		equipmentRepo:  equipmentRepo,
		assignmentRepo: assignmentRepo,
		incidentRepo:   incidentRepo,
		logger:         logger,
	}
}

// CanDeleteUser runs the blocking checks without deleting anything.
func (s *DeletionGuardService) CanDeleteUser(ctx context.Context, userID uint64) ([]dto.BlockedReason, error) {
	user, err := s.userRepo.FindUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return s.collectUserBlocks(ctx, nil, user)
}

// DeleteUser deletes the user unless blocked. The blocking queries are
// re-run inside the delete transaction: an assignment or incident created
// between a prior check and this call still blocks at commit time.
func (s *DeletionGuardService) DeleteUser(ctx context.Context, userID uint64) ([]dto.BlockedReason, error) {
	var blocked []dto.BlockedReason

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepo.FindUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		blocked, err = s.collectUserBlocks(ctx, tx, user)
		if err != nil {
			return err
		}
		if len(blocked) > 0 {
			s.logger.Warn("user delete blocked",
				zap.Uint64("user_id", userID),
				zap.Int("reasons", len(blocked)),
			)
			return nil
		}

		return s.userRepo.DeleteUser(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	if len(blocked) == 0 {
		s.logger.Info("user deleted", zap.Uint64("user_id", userID))
	}
	return blocked, nil
}

// CanDeleteEquipment runs the equipment blocking checks without deleting.
func (s *DeletionGuardService) CanDeleteEquipment(ctx context.Context, equipmentID uint64) ([]dto.BlockedReason, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, nil, equipmentID); err != nil {
		return nil, err
	}
	return s.collectEquipmentBlocks(ctx, nil, equipmentID)
}

// DeleteEquipment deletes the equipment unless an incident or an open
// assignment still references it; unassign first.
func (s *DeletionGuardService) DeleteEquipment(ctx context.Context, equipmentID uint64) ([]dto.BlockedReason, error) {
	var blocked []dto.BlockedReason

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.equipmentRepo.FindEquipment(ctx, tx, equipmentID); err != nil {
			return err
		}

		var err error
		blocked, err = s.collectEquipmentBlocks(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if len(blocked) > 0 {
			s.logger.Warn("equipment delete blocked",
				zap.Uint64("equipment_id", equipmentID),
				zap.Int("reasons", len(blocked)),
			)
			return nil
		}

		return s.equipmentRepo.DeleteEquipment(ctx, tx, equipmentID)
	})
	if err != nil {
		return nil, err
	}

	if len(blocked) == 0 {
		s.logger.Info("equipment deleted", zap.Uint64("equipment_id", equipmentID))
	}
	return blocked, nil
}

// collectUserBlocks gathers every applicable blocking reason, not just the
// first, so the operator sees the full picture at once.
func (s *DeletionGuardService) collectUserBlocks(ctx context.Context, tx pgx.Tx, user *entities.User) ([]dto.BlockedReason, error) {
	var blocked []dto.BlockedReason

	incidents, err := s.incidentRepo.CountByUser(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if incidents > 0 {
		blocked = append(blocked, dto.BlockedReason{
			Kind:  dto.BlockKindIncidents,
			Count: incidents,
		})
	}

	openAssignments, err := s.assignmentRepo.ListOpenByEmployee(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(openAssignments) > 0 {
		details := make([]string, 0, len(openAssignments))
		for _, a := range openAssignments {
			details = append(details, a.EquipmentName)
		}
		blocked = append(blocked, dto.BlockedReason{
			Kind:    dto.BlockKindActiveAssignments,
			Count:   len(openAssignments),
			Details: details,
		})
	}

	created, err := s.equipmentRepo.CountCreatedBy(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if created > 0 {
		blocked = append(blocked, dto.BlockedReason{
			Kind:  dto.BlockKindCreatedEquipment,
			Count: created,
		})
	}

	if user.Role == constants.RoleAdmin {
		admins, err := s.userRepo.CountActiveAdmins(ctx, tx)
		if err != nil {
			return nil, err
		}
		// The system never drops below one active admin.
		if admins <= 1 {
			blocked = append(blocked, dto.BlockedReason{
				Kind:  dto.BlockKindLastAdmin,
				Count: admins,
			})
		}
	}

	return blocked, nil
}

func (s *DeletionGuardService) collectEquipmentBlocks(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]dto.BlockedReason, error) {
	var blocked []dto.BlockedReason

	incidents, err := s.incidentRepo.CountByEquipment(ctx, tx, equipmentID)
	if err != nil {
		return nil, err
	}
	if incidents > 0 {
		blocked = append(blocked, dto.BlockedReason{
			Kind:  dto.BlockKindIncidents,
			Count: incidents,
		})
	}

	open, err := s.assignmentRepo.FindOpenAssignment(ctx, tx, equipmentID)
	if err == nil {
		blocked = append(blocked, dto.BlockedReason{
			Kind:    dto.BlockKindActiveAssignments,
			Count:   1,
			Details: []string{open.EmployeeName},
		})
	} else if !isNotFound(err) {
		return nil, err
	}

	return blocked, nil
}

func isNotFound(err error) bool {
	var nf *apperrors.NotFoundError
	return errors.As(err, &nf)
}
