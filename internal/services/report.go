package services

import (
	"context"

	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/repositories"
)

// ReportService produces the inventory snapshot used by the export
// endpoint: every equipment row joined with its current holder.
type ReportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) *ReportService {
	return &ReportService{reportRepo: reportRepo, logger: logger}
}

func (s *ReportService) GetInventory(ctx context.Context) ([]dto.InventoryRowDTO, error) {
	rows, err := s.reportRepo.GetInventory(ctx)
	if err != nil {
		s.logger.Error("failed to build inventory report", zap.Error(err))
		return nil, err
	}
	return rows, nil
}
