package repositories

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gpit-system/internal/entities"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
)

// Integration tests against a real Postgres. They run only when
// TEST_DATABASE_URL points at a disposable database; the schema is applied
// from the migration file on every run.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	return pool
}

func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS incidents, assignments, equipments, users CASCADE`)
	require.NoError(t, err)

	raw, err := os.ReadFile("../../migrations/00001_init.sql")
	require.NoError(t, err)

	// Apply the Up section only.
	up, _, _ := strings.Cut(string(raw), "-- +goose Down")
	_, err = pool.Exec(ctx, up)
	require.NoError(t, err)
}

func seedAssignmentFixtures(t *testing.T, pool *pgxpool.Pool) (equipmentID, employeeID uint64) {
	t.Helper()
	ctx := context.Background()

	err := pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password, role, status)
		VALUES ('Jean Dupont', 'jean@test.local', 'x', $1, $2) RETURNING id`,
		constants.RoleEmployee, constants.UserStatusActive,
	).Scan(&employeeID)
	require.NoError(t, err)

	var adminID uint64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password, role, status)
		VALUES ('Admin', 'admin@test.local', 'x', $1, $2) RETURNING id`,
		constants.RoleAdmin, constants.UserStatusActive,
	).Scan(&adminID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, `
		INSERT INTO equipments (name, type, serial_number, purchase_date, status, created_by)
		VALUES ('Laptop', 'laptop', 'SN-IT-1', '2024-01-15', $1, $2) RETURNING id`,
		constants.EquipmentStatusAvailable, adminID,
	).Scan(&equipmentID)
	require.NoError(t, err)

	return equipmentID, employeeID
}

func TestAssignmentRepository_Integration_OpenUniqueness(t *testing.T) {
	pool := integrationPool(t)
	equipmentID, employeeID := seedAssignmentFixtures(t, pool)

	repo := NewAssignmentRepository(pool, zap.NewNop())
	ctx := context.Background()

	_, err := repo.CreateAssignment(ctx, nil, entities.Assignment{
		EquipmentID: equipmentID, EmployeeID: employeeID,
		Condition: "Bon état", StartDate: time.Now(),
	})
	require.NoError(t, err)

	// The partial unique index refuses a second open row.
	_, err = repo.CreateAssignment(ctx, nil, entities.Assignment{
		EquipmentID: equipmentID, EmployeeID: employeeID,
		Condition: "Bon état", StartDate: time.Now(),
	})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)

	// Closing the open row makes room again.
	closed, err := repo.CloseOpenAssignment(ctx, nil, equipmentID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, closed)

	_, err = repo.CreateAssignment(ctx, nil, entities.Assignment{
		EquipmentID: equipmentID, EmployeeID: employeeID,
		Condition: "Bon état", StartDate: time.Now(),
	})
	require.NoError(t, err)
}

func TestAssignmentRepository_Integration_FindOpen(t *testing.T) {
	pool := integrationPool(t)
	equipmentID, employeeID := seedAssignmentFixtures(t, pool)

	repo := NewAssignmentRepository(pool, zap.NewNop())
	ctx := context.Background()

	_, err := repo.FindOpenAssignment(ctx, nil, equipmentID)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = repo.CreateAssignment(ctx, nil, entities.Assignment{
		EquipmentID: equipmentID, EmployeeID: employeeID,
		Condition: "Bon état", StartDate: time.Now(),
	})
	require.NoError(t, err)

	open, err := repo.FindOpenAssignment(ctx, nil, equipmentID)
	require.NoError(t, err)
	assert.Equal(t, employeeID, open.EmployeeID)
	assert.False(t, open.EndDate.Valid)

	list, err := repo.ListOpenByEmployee(ctx, nil, employeeID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Laptop", list[0].EquipmentName)
}

func TestEquipmentRepository_Integration_StatusCAS(t *testing.T) {
	pool := integrationPool(t)
	equipmentID, _ := seedAssignmentFixtures(t, pool)

	repo := NewEquipmentRepository(pool, zap.NewNop())
	ctx := context.Background()

	// Available -> Assigned succeeds once; the stale retry is a no-op.
	flipped, err := repo.SetStatusIfCurrent(ctx, nil, equipmentID,
		constants.EquipmentStatusAssigned, constants.EquipmentStatusAvailable)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.SetStatusIfCurrent(ctx, nil, equipmentID,
		constants.EquipmentStatusAssigned, constants.EquipmentStatusAvailable)
	require.NoError(t, err)
	assert.False(t, flipped)

	eq, err := repo.FindEquipment(ctx, nil, equipmentID)
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusAssigned, eq.Status)
}
