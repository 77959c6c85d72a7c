package services

import (
	"context"
	"strings"

	"github.com/aarondl/null/v8"
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

// IncidentService covers the incident ticket flow: any active user reports,
// technicians and admins triage. Employees only see their own reports.
type IncidentService struct {
	txManager     repositories.TxManagerInterface
	incidentRepo  repositories.IncidentRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	logger        *zap.Logger
}

func NewIncidentService(
	txManager repositories.TxManagerInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *IncidentService {
	return &IncidentService{
		txManager:     txManager,
		incidentRepo:  incidentRepo,
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

// CreateIncident opens a ticket against an existing equipment record. The
// reporter is always the authenticated caller.
func (s *IncidentService) CreateIncident(ctx context.Context, reporterID uint64, d dto.CreateIncidentDTO) (*dto.IncidentDTO, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, nil, d.EquipmentID); err != nil {
		return nil, err
	}

	inc := entities.Incident{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		EquipmentID: d.EquipmentID,
		ReportedBy:  reporterID,
		Status:      constants.IncidentStatusOpen,
	}

	id, err := s.incidentRepo.CreateIncident(ctx, nil, inc)
	if err != nil {
		s.logger.Error("failed to create incident",
			zap.Uint64("equipment_id", d.EquipmentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("incident created",
		zap.Uint64("id", id),
		zap.Uint64("equipment_id", d.EquipmentID),
		zap.Uint64("reported_by", reporterID),
	)

	created, err := s.incidentRepo.FindIncident(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	result := incidentEntityToDTO(*created)
	return &result, nil
}

// GetIncidents lists tickets, scoped to the reporter for employees.
func (s *IncidentService) GetIncidents(ctx context.Context, viewer utils.Viewer, params utils.QueryParams) ([]dto.IncidentDTO, uint64, error) {
	list, total, err := s.incidentRepo.GetIncidents(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	visible := authz.FilterIncidents(viewer.Role, viewer.UserID, list)
	if !constants.IsPrivilegedRole(viewer.Role) {
		// The DB total counts all rows; a scoped view reports its own size.
		total = uint64(len(visible))
	}

	out := make([]dto.IncidentDTO, 0, len(visible))
	for _, inc := range visible {
		out = append(out, incidentEntityToDTO(inc))
	}
	return out, total, nil
}

func (s *IncidentService) FindIncident(ctx context.Context, viewer utils.Viewer, id uint64) (*dto.IncidentDTO, error) {
	inc, err := s.incidentRepo.FindIncident(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !constants.IsPrivilegedRole(viewer.Role) && inc.ReportedBy != viewer.UserID {
		// Hidden rows are indistinguishable from absent ones.
		return nil, apperrors.NewNotFoundError("incident")
	}
	result := incidentEntityToDTO(*inc)
	return &result, nil
}

// UpdateIncident changes ticket status or the handling technician. Only
// technicians may be assigned; assigning implicitly moves an open ticket to
// in_progress.
func (s *IncidentService) UpdateIncident(ctx context.Context, id uint64, d dto.UpdateIncidentDTO) (*dto.IncidentDTO, error) {
	var updated dto.IncidentDTO

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		inc, err := s.incidentRepo.FindIncident(ctx, tx, id)
		if err != nil {
			return err
		}

		if d.AssignedTo != nil {
			tech, err := s.userRepo.FindUser(ctx, tx, *d.AssignedTo)
			if err != nil {
				return err
			}
			if tech.Role != constants.RoleTechnician {
				return apperrors.NewValidationError("incidents can only be assigned to technicians")
			}
			inc.AssignedTo = null.Uint64From(*d.AssignedTo)
			if inc.Status == constants.IncidentStatusOpen {
				inc.Status = constants.IncidentStatusInProgress
			}
		}
		if d.Status != nil {
			inc.Status = *d.Status
		}

		if err := s.incidentRepo.UpdateIncident(ctx, tx, id, *inc); err != nil {
			return err
		}

		updated = incidentEntityToDTO(*inc)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update incident", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("incident updated", zap.Uint64("id", id), zap.String("status", updated.Status))
	return &updated, nil
}

func incidentEntityToDTO(inc entities.Incident) dto.IncidentDTO {
	out := dto.IncidentDTO{
		ID:          inc.ID,
		Title:       inc.Title,
		Description: inc.Description,
		EquipmentID: inc.EquipmentID,
		ReportedBy:  inc.ReportedBy,
		Status:      inc.Status,
	}
	if inc.AssignedTo.Valid {
		out.AssignedTo = utils.ToPtr(inc.AssignedTo.Uint64)
	}
	if inc.CreatedAt != nil {
		out.CreatedAt = inc.CreatedAt.Format("2006-01-02, 15:04:05")
	}
	return out
}
