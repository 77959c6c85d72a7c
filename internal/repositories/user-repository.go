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
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

const userTable = "users"

const userFields = "id, name, email, password, role, status, created_at, updated_at"

var userFieldMap = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"status":     "status",
	"created_at": "created_at",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, params utils.QueryParams) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, tx pgx.Tx, user entities.User) (uint64, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error
	CountActiveAdmins(ctx context.Context, tx pgx.Tx) (int, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	var createdAt, updatedAt time.Time

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Status, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("scan user", err)
	}

	u.CreatedAt = &createdAt
	u.UpdatedAt = &updatedAt
	return &u, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, params utils.QueryParams) ([]entities.User, uint64, error) {
	builder := sq.Select(userFields).
		From(userTable).
		PlaceholderFormat(sq.Dollar)

	countBuilder := sq.Select("COUNT(*)").
		From(userTable).
		PlaceholderFormat(sq.Dollar)

	for key, value := range params.Filters {
		column, ok := userFieldMap[key]
		if !ok {
			continue
		}
		builder = builder.Where(sq.Eq{column: value})
		countBuilder = countBuilder.Where(sq.Eq{column: value})
	}

	if params.Search != "" {
		like := "%" + params.Search + "%"
		cond := sq.Or{sq.ILike{"name": like}, sq.ILike{"email": like}}
		builder = builder.Where(cond)
		countBuilder = countBuilder.Where(cond)
	}

	sortBy, ok := userFieldMap[params.SortBy]
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
		return nil, 0, apperrors.NewStorageError("build user query", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list users", err)
	}
	defer rows.Close()

	var list []entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStorageError("list users", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStorageError("build user count query", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStorageError("count users", err)
	}

	return list, total, nil
}

func (r *UserRepository) FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	return scanUser(pick(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = $1", userFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, email))
}

func (r *UserRepository) CreateUser(ctx context.Context, tx pgx.Tx, user entities.User) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, email, password, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userTable)

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		user.Name, user.Email, user.Password, user.Role, user.Status,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.NewConflictError("a user with email %q already exists", user.Email)
		}
		return 0, apperrors.NewStorageError("create user", err)
	}
	return id, nil
}

func (r *UserRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2", userTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, status, id)
	if err != nil {
		return apperrors.NewStorageError("set user status", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", userTable)

	result, err := pick(r.storage, tx).Exec(ctx, query, id)
	if err != nil {
		return apperrors.NewStorageError("delete user", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

func (r *UserRepository) CountActiveAdmins(ctx context.Context, tx pgx.Tx) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE role = $1 AND status = $2", userTable)

	var count int
	err := pick(r.storage, tx).QueryRow(ctx, query, constants.RoleAdmin, constants.UserStatusActive).Scan(&count)
	if err != nil {
		return 0, apperrors.NewStorageError("count active admins", err)
	}
	return count, nil
}
