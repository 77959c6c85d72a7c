package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gpit-system/internal/dto"
	apperrors "gpit-system/pkg/errors"
)

type ReportRepositoryInterface interface {
	GetInventory(ctx context.Context) ([]dto.InventoryRowDTO, error)
}

type ReportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &ReportRepository{storage: storage}
}

// GetInventory joins each equipment with its open assignment, if any. The
// partial unique index guarantees the LEFT JOIN never fans out.
func (r *ReportRepository) GetInventory(ctx context.Context) ([]dto.InventoryRowDTO, error) {
	query := `
		SELECT e.id, e.name, e.type, e.serial_number, e.status, e.purchase_date,
			u.name, a.condition, a.start_date
		FROM equipments e
			LEFT JOIN assignments a ON a.equipment_id = e.id AND a.end_date IS NULL
			LEFT JOIN users u ON u.id = a.employee_id
		ORDER BY e.name
	`

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("inventory report", err)
	}
	defer rows.Close()

	var report []dto.InventoryRowDTO
	for rows.Next() {
		var row dto.InventoryRowDTO
		var purchaseDate time.Time
		var holderName, condition *string
		var assignedAt *time.Time

		err := rows.Scan(
			&row.EquipmentID, &row.Name, &row.Type, &row.SerialNumber, &row.Status,
			&purchaseDate, &holderName, &condition, &assignedAt,
		)
		if err != nil {
			return nil, apperrors.NewStorageError("scan inventory row", err)
		}

		row.PurchaseDate = purchaseDate.Format("2006-01-02")
		row.HolderName = holderName
		row.Condition = condition
		if assignedAt != nil {
			formatted := assignedAt.Format("2006-01-02")
			row.AssignedAt = &formatted
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
