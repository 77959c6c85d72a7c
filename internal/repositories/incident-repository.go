package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gpit-system/internal/entities"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

const incidentTable = "incidents"

const incidentFields = "id, title, description, equipment_id, reported_by, assigned_to, status, created_at, updated_at"

var incidentFieldMap = map[string]string{
	"id":           "id",
	"status":       "status",
	"equipment_id": "equipment_id",
	"reported_by":  "reported_by",
	"assigned_to":  "assigned_to",
	"created_at":   "created_at",
}

type IncidentRepositoryInterface interface {
	GetIncidents(ctx context.Context, params utils.QueryParams) ([]entities.Incident, uint64, error)
	FindIncident(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error)
	CreateIncident(ctx context.Context, tx pgx.Tx, inc entities.Incident) (uint64, error)
	UpdateIncident(ctx context.Context, tx pgx.Tx, id uint64, inc entities.Incident) error
	CountByUser(ctx context.Context, tx pgx.Tx, userID uint64) (int, error)
	CountByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (int, error)
}

type IncidentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewIncidentRepository(storage *pgxpool.Pool, logger *zap.Logger) IncidentRepositoryInterface {
	return &IncidentRepository{storage: storage, logger: logger}
}

func scanIncident(row pgx.Row) (*entities.Incident, error) {
	var i entities.Incident
	var assignedTo *uint64
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&i.ID, &i.Title, &i.Description, &i.EquipmentID, &i.ReportedBy,
		&assignedTo, &i.Status, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("incident")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("scan incident", err)
	}

	if assignedTo != nil {
		i.AssignedTo = null.Uint64From(*assignedTo)
	}
	i.CreatedAt = &createdAt
	i.UpdatedAt = &updatedAt
	return &i, nil
}

func (r *IncidentRepository) GetIncidents(ctx context.Context, params utils.QueryParams) ([]entities.Incident, uint64, error) {
	builder := sq.Select(incidentFields).
		From(incidentTable).
		PlaceholderFormat(sq.Dollar).
		OrderBy("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset)

	countBuilder := sq.Select("COUNT(*)").
		From(incidentTable).
		PlaceholderFormat(sq.Dollar)

	for key, value := range params.Filters {
		column, ok := incidentFieldMap[key]
		if !ok {
			continue
		}
		builder = builder.Where(sq.Eq{column: value})
		countBuilder = countBuilder.Where(sq.Eq{column: value})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build incident query", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list incidents", err)
	}
	defer rows.Close()

	var list []entities.Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStorageError("list incidents", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build incident count query", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStorageError("count incidents", err)
	}

	return list, total, nil
}

func (r *IncidentRepository) FindIncident(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", incidentFields, incidentTable)
	return scanIncident(pick(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *IncidentRepository) CreateIncident(ctx context.Context, tx pgx.Tx, inc entities.Incident) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, equipment_id, reported_by, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, incidentTable)

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		inc.Title, inc.Description, inc.EquipmentID, inc.ReportedBy, inc.Status,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewStorageError("create incident", err)
	}
	return id, nil
}

func (r *IncidentRepository) UpdateIncident(ctx context.Context, tx pgx.Tx, id uint64, inc entities.Incident) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, assigned_to = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, incidentTable)

	var assignedTo interface{}
	if inc.AssignedTo.Valid {
		assignedTo = inc.AssignedTo.Uint64
	}

	result, err := pick(r.storage, tx).Exec(ctx, query, inc.Status, assignedTo, id)
	if err != nil {
		return apperrors.NewStorageError("update incident", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("incident")
	}
	return nil
}

func (r *IncidentRepository) CountByUser(ctx context.Context, tx pgx.Tx, userID uint64) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE reported_by = $1 OR assigned_to = $1", incidentTable)

	var count int
	if err := pick(r.storage, tx).QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count incidents by user", err)
	}
	return count, nil
}

func (r *IncidentRepository) CountByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE equipment_id = $1", incidentTable)

	var count int
	if err := pick(r.storage, tx).QueryRow(ctx, query, equipmentID).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count incidents by equipment", err)
	}
	return count, nil
}
