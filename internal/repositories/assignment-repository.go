package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gpit-system/internal/entities"
	apperrors "gpit-system/pkg/errors"
)

const assignmentTable = "assignments"

const assignmentJoinFields = `a.id, a.equipment_id, a.employee_id, a.condition, a.start_date, a.end_date, a.created_at,
	e.name AS equipment_name, u.name AS employee_name`

// AssignmentFilter narrows list queries. Zero values mean "no constraint".
type AssignmentFilter struct {
	EquipmentID uint64
	EmployeeID  uint64
	OnlyOpen    bool
	Limit       uint64
	Offset      uint64
}

type AssignmentRepositoryInterface interface {
	GetAssignments(ctx context.Context, filter AssignmentFilter) ([]entities.Assignment, uint64, error)
	FindOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Assignment, error)
	ListOpenByEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) ([]entities.Assignment, error)
	ListOpen(ctx context.Context) ([]entities.Assignment, error)
	CreateAssignment(ctx context.Context, tx pgx.Tx, a entities.Assignment) (uint64, error)
	CloseOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64, at time.Time) (int64, error)
}

type AssignmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &AssignmentRepository{storage: storage, logger: logger}
}

func scanAssignment(row pgx.Row, withJoins bool) (*entities.Assignment, error) {
	var a entities.Assignment
	var endDate *time.Time

	dest := []interface{}{
		&a.ID, &a.EquipmentID, &a.EmployeeID, &a.Condition, &a.StartDate, &endDate, &a.CreatedAt,
	}
	if withJoins {
		dest = append(dest, &a.EquipmentName, &a.EmployeeName)
	}

	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("assignment")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("scan assignment", err)
	}

	if endDate != nil {
		a.EndDate = null.TimeFrom(*endDate)
	}
	return &a, nil
}

func (r *AssignmentRepository) GetAssignments(ctx context.Context, filter AssignmentFilter) ([]entities.Assignment, uint64, error) {
	builder := sq.Select(assignmentJoinFields).
		From(assignmentTable + " a").
		Join("equipments e ON e.id = a.equipment_id").
		Join("users u ON u.id = a.employee_id").
		PlaceholderFormat(sq.Dollar).
		OrderBy("a.start_date DESC")

	countBuilder := sq.Select("COUNT(*)").
		From(assignmentTable + " a").
		PlaceholderFormat(sq.Dollar)

	if filter.EquipmentID != 0 {
		builder = builder.Where(sq.Eq{"a.equipment_id": filter.EquipmentID})
		countBuilder = countBuilder.Where(sq.Eq{"a.equipment_id": filter.EquipmentID})
	}
	if filter.EmployeeID != 0 {
		builder = builder.Where(sq.Eq{"a.employee_id": filter.EmployeeID})
		countBuilder = countBuilder.Where(sq.Eq{"a.employee_id": filter.EmployeeID})
	}
	if filter.OnlyOpen {
		builder = builder.Where("a.end_date IS NULL")
		countBuilder = countBuilder.Where("a.end_date IS NULL")
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build assignment query", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list assignments", err)
	}
	defer rows.Close()

	var list []entities.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows, true)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStorageError("list assignments", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build assignment count query", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStorageError("count assignments", err)
	}

	return list, total, nil
}

// FindOpenAssignment returns the single open row for the equipment, or a
// NotFoundError when none exists. By construction (partial unique index)
// there is never more than one.
func (r *AssignmentRepository) FindOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT id, equipment_id, employee_id, condition, start_date, end_date, created_at
		FROM %s
		WHERE equipment_id = $1 AND end_date IS NULL
	`, assignmentTable)

	return scanAssignment(pick(r.storage, tx).QueryRow(ctx, query, equipmentID), false)
}

func (r *AssignmentRepository) ListOpenByEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) ([]entities.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s a
			JOIN equipments e ON e.id = a.equipment_id
			JOIN users u ON u.id = a.employee_id
		WHERE a.employee_id = $1 AND a.end_date IS NULL
		ORDER BY a.start_date
	`, assignmentJoinFields, assignmentTable)

	rows, err := pick(r.storage, tx).Query(ctx, query, employeeID)
	if err != nil {
		return nil, apperrors.NewStorageError("list open assignments by employee", err)
	}
	defer rows.Close()

	var list []entities.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows, true)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// ListOpen returns every currently open assignment with holder names, used
// by viewer-scoped listings and the inventory report.
func (r *AssignmentRepository) ListOpen(ctx context.Context) ([]entities.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s a
			JOIN equipments e ON e.id = a.equipment_id
			JOIN users u ON u.id = a.employee_id
		WHERE a.end_date IS NULL
	`, assignmentJoinFields, assignmentTable)

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("list open assignments", err)
	}
	defer rows.Close()

	var list []entities.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows, true)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// CreateAssignment inserts an open assignment row. The partial unique index
// on (equipment_id) WHERE end_date IS NULL is the commit-time arbiter for
// concurrent assigns: the loser surfaces here as a ConflictError.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, tx pgx.Tx, a entities.Assignment) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (equipment_id, employee_id, condition, start_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, assignmentTable)

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		a.EquipmentID, a.EmployeeID, a.Condition, a.StartDate,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.NewConflictError("equipment %d already has an open assignment", a.EquipmentID)
		}
		return 0, apperrors.NewStorageError("create assignment", err)
	}
	return id, nil
}

// CloseOpenAssignment stamps the end date on the open row, if any. Closing
// is the only mutation a closed row ever receives; rows are never deleted.
func (r *AssignmentRepository) CloseOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64, at time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET end_date = $1
		WHERE equipment_id = $2 AND end_date IS NULL
	`, assignmentTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, at, equipmentID)
	if err != nil {
		return 0, apperrors.NewStorageError("close assignment", err)
	}
	return result.RowsAffected(), nil
}
