package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gpit-system/internal/entities"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

const equipmentTable = "equipments"

const equipmentFields = "id, name, type, serial_number, purchase_date, status, created_by, created_at, updated_at"

// filter/sort whitelist for list queries
var equipmentFieldMap = map[string]string{
	"id":            "id",
	"name":          "name",
	"type":          "type",
	"serial_number": "serial_number",
	"status":        "status",
	"created_by":    "created_by",
	"purchase_date": "purchase_date",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, params utils.QueryParams) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error)
	UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, eq entities.Equipment) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	SetStatusIfCurrent(ctx context.Context, tx pgx.Tx, id uint64, newStatus, currentStatus string) (bool, error)
	DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error
	CountCreatedBy(ctx context.Context, tx pgx.Tx, userID uint64) (int, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&e.ID, &e.Name, &e.Type, &e.SerialNumber, &e.PurchaseDate,
		&e.Status, &e.CreatedBy, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("equipment")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("scan equipment", err)
	}

	e.CreatedAt = &createdAt
	e.UpdatedAt = &updatedAt
	return &e, nil
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context, params utils.QueryParams) ([]entities.Equipment, uint64, error) {
	builder := sq.Select(equipmentFields).
		From(equipmentTable).
		PlaceholderFormat(sq.Dollar)

	countBuilder := sq.Select("COUNT(*)").
		From(equipmentTable).
		PlaceholderFormat(sq.Dollar)

	for key, value := range params.Filters {
		column, ok := equipmentFieldMap[key]
		if !ok {
			continue
		}
		builder = builder.Where(sq.Eq{column: value})
		countBuilder = countBuilder.Where(sq.Eq{column: value})
	}

	if params.Search != "" {
		like := "%" + params.Search + "%"
		cond := sq.Or{
			sq.ILike{"name": like},
			sq.ILike{"type": like},
			sq.ILike{"serial_number": like},
		}
		builder = builder.Where(cond)
		countBuilder = countBuilder.Where(cond)
	}

	sortBy, ok := equipmentFieldMap[params.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	order := "ASC"
	if params.SortOrder == "desc" {
		order = "DESC"
	}
	builder = builder.OrderBy(fmt.Sprintf("%s %s", sortBy, order)).
		Limit(params.Limit).
		Offset(params.Offset)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build equipment query", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list equipments", err)
	}
	defer rows.Close()

	var list []entities.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStorageError("list equipments", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build equipment count query", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStorageError("count equipments", err)
	}

	return list, total, nil
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", equipmentFields, equipmentTable)
	return scanEquipment(pick(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, type, serial_number, purchase_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, equipmentTable)

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		eq.Name, eq.Type, eq.SerialNumber, eq.PurchaseDate, eq.Status, eq.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.NewConflictError("serial number %q already exists", eq.SerialNumber)
		}
		return 0, apperrors.NewStorageError("create equipment", err)
	}
	return id, nil
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, eq entities.Equipment) error {
	// created_by and status are deliberately absent: the former is immutable,
	// the latter only changes through the engine or the manual-status path.
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, type = $2, serial_number = $3, purchase_date = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
	`, equipmentTable)

	result, err := pick(r.storage, tx).Exec(ctx, query,
		eq.Name, eq.Type, eq.SerialNumber, eq.PurchaseDate, id,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewConflictError("serial number %q already exists", eq.SerialNumber)
		}
		return apperrors.NewStorageError("update equipment", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("equipment")
	}
	return nil
}

func (r *EquipmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2", equipmentTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, status, id)
	if err != nil {
		return apperrors.NewStorageError("set equipment status", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("equipment")
	}
	return nil
}

// SetStatusIfCurrent is the compare-and-swap variant: the status only moves
// when the stored value still matches currentStatus. Returns whether a row
// changed.
func (r *EquipmentRepository) SetStatusIfCurrent(ctx context.Context, tx pgx.Tx, id uint64, newStatus, currentStatus string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3
	`, equipmentTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, newStatus, id, currentStatus)
	if err != nil {
		return false, apperrors.NewStorageError("set equipment status", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", equipmentTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, id)
	if err != nil {
		return apperrors.NewStorageError("delete equipment", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("equipment")
	}
	return nil
}

func (r *EquipmentRepository) CountCreatedBy(ctx context.Context, tx pgx.Tx, userID uint64) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE created_by = $1", equipmentTable)

	var count int
	if err := pick(r.storage, tx).QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count equipments by creator", err)
	}
	return count, nil
}
