package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
)

type engineFixture struct {
	engine        *AssignmentService
	userRepo      *fakeUserRepo
	equipmentRepo *fakeEquipmentRepo
	assignments   *fakeAssignmentRepo
	adminID       uint64
	employeeID    uint64
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	equipmentRepo := newFakeEquipmentRepo()
	assignmentRepo := newFakeAssignmentRepo()

	adminID := userRepo.add(entities.User{
		Name: "Admin", Email: "admin@test.local",
		Role: constants.RoleAdmin, Status: constants.UserStatusActive,
	})
	employeeID := userRepo.add(entities.User{
		Name: "Employee", Email: "employee@test.local",
		Role: constants.RoleEmployee, Status: constants.UserStatusActive,
	})

	engine := NewAssignmentService(&fakeTxManager{}, equipmentRepo, assignmentRepo, userRepo, zap.NewNop())
	return &engineFixture{
		engine:        engine,
		userRepo:      userRepo,
		equipmentRepo: equipmentRepo,
		assignments:   assignmentRepo,
		adminID:       adminID,
		employeeID:    employeeID,
	}
}

func (f *engineFixture) createEquipment(t *testing.T, serial string, assignment *dto.CreateAssignmentInputDTO) *dto.EquipmentDTO {
	t.Helper()
	eq, err := f.engine.CreateEquipment(context.Background(), f.adminID, dto.CreateEquipmentDTO{
		Name:         "Laptop",
		Type:         "laptop",
		SerialNumber: serial,
		PurchaseDate: "2024-01-15",
		Assignment:   assignment,
	})
	require.NoError(t, err)
	return eq
}

func TestCreateEquipment_StatusIsDerived(t *testing.T) {
	f := newEngineFixture(t)

	plain := f.createEquipment(t, "SN-001", nil)
	assert.Equal(t, constants.EquipmentStatusAvailable, plain.Status)

	assigned := f.createEquipment(t, "SN-002", &dto.CreateAssignmentInputDTO{EmployeeID: f.employeeID})
	assert.Equal(t, constants.EquipmentStatusAssigned, assigned.Status)

	open, err := f.assignments.FindOpenAssignment(context.Background(), nil, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, f.employeeID, open.EmployeeID)
	assert.Equal(t, constants.DefaultCondition, open.Condition)
}

func TestCreateEquipment_NormalizesSerial(t *testing.T) {
	f := newEngineFixture(t)

	eq := f.createEquipment(t, "  sn-ab-12  ", nil)
	assert.Equal(t, "SN-AB-12", eq.SerialNumber)

	// The normalized forms collide even though the raw inputs differ.
	_, err := f.engine.CreateEquipment(context.Background(), f.adminID, dto.CreateEquipmentDTO{
		Name: "Other", Type: "laptop", SerialNumber: "sn-AB-12", PurchaseDate: "2024-01-15",
	})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateEquipment_ConditionRules(t *testing.T) {
	f := newEngineFixture(t)

	custom := "Écran rayé"
	eq := f.createEquipment(t, "SN-010", &dto.CreateAssignmentInputDTO{
		EmployeeID: f.employeeID,
		Condition:  &custom,
	})
	open, err := f.assignments.FindOpenAssignment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, open.Condition)

	blank := "   "
	_, err = f.engine.CreateEquipment(context.Background(), f.adminID, dto.CreateEquipmentDTO{
		Name: "X", Type: "laptop", SerialNumber: "SN-011", PurchaseDate: "2024-01-15",
		Assignment: &dto.CreateAssignmentInputDTO{EmployeeID: f.employeeID, Condition: &blank},
	})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateEquipment_AssigneeMustBeActiveEmployee(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.CreateEquipment(context.Background(), f.adminID, dto.CreateEquipmentDTO{
		Name: "X", Type: "laptop", SerialNumber: "SN-020", PurchaseDate: "2024-01-15",
		Assignment: &dto.CreateAssignmentInputDTO{EmployeeID: f.adminID},
	})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)

	pendingID := f.userRepo.add(entities.User{
		Name: "Pending", Email: "pending@test.local",
		Role: constants.RoleEmployee, Status: constants.UserStatusPending,
	})
	_, err = f.engine.CreateEquipment(context.Background(), f.adminID, dto.CreateEquipmentDTO{
		Name: "X", Type: "laptop", SerialNumber: "SN-021", PurchaseDate: "2024-01-15",
		Assignment: &dto.CreateAssignmentInputDTO{EmployeeID: pendingID},
	})
	require.ErrorAs(t, err, &validation)
}

func TestAssign_TransfersAtomically(t *testing.T) {
	f := newEngineFixture(t)
	eq := f.createEquipment(t, "SN-030", &dto.CreateAssignmentInputDTO{EmployeeID: f.employeeID})

	secondID := f.userRepo.add(entities.User{
		Name: "Second", Email: "second@test.local",
		Role: constants.RoleEmployee, Status: constants.UserStatusActive,
	})

	before := time.Now()
	_, err := f.engine.Assign(context.Background(), eq.ID, dto.AssignDTO{
		EmployeeID: secondID,
		Condition:  "Bon état",
	})
	require.NoError(t, err)

	// Exactly one open assignment remains and it belongs to the new holder.
	open, err := f.assignments.FindOpenAssignment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, secondID, open.EmployeeID)

	all, _, err := f.assignments.GetAssignments(context.Background(), repositories.AssignmentFilter{EquipmentID: eq.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, a := range all {
		if a.EmployeeID == f.employeeID {
			require.True(t, a.EndDate.Valid, "previous assignment must be closed")
			assert.False(t, a.EndDate.Time.Before(a.StartDate))
			assert.False(t, a.EndDate.Time.Before(before.Truncate(time.Second)))
		}
	}

	current, err := f.equipmentRepo.FindEquipment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusAssigned, current.Status)
}

func TestAssign_ManualStatusIsPreserved(t *testing.T) {
	f := newEngineFixture(t)
	eq := f.createEquipment(t, "SN-040", nil)

	require.NoError(t, f.equipmentRepo.SetStatus(context.Background(), nil, eq.ID, constants.EquipmentStatusBroken))

	_, err := f.engine.Assign(context.Background(), eq.ID, dto.AssignDTO{
		EmployeeID: f.employeeID,
		Condition:  "Bon état",
	})
	require.NoError(t, err)

	// The binding exists, but Broken is not overwritten by the derived flip.
	current, err := f.equipmentRepo.FindEquipment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusBroken, current.Status)

	_, err = f.assignments.FindOpenAssignment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
}

func TestAssign_RequiresCondition(t *testing.T) {
	f := newEngineFixture(t)
	eq := f.createEquipment(t, "SN-050", nil)

	_, err := f.engine.Assign(context.Background(), eq.ID, dto.AssignDTO{
		EmployeeID: f.employeeID,
		Condition:  "   ",
	})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestUnassign_ClosesAndDerivesAvailable(t *testing.T) {
	f := newEngineFixture(t)
	eq := f.createEquipment(t, "SN-060", &dto.CreateAssignmentInputDTO{EmployeeID: f.employeeID})

	require.NoError(t, f.engine.Unassign(context.Background(), eq.ID))

	current, err := f.equipmentRepo.FindEquipment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusAvailable, current.Status)

	_, err = f.assignments.FindOpenAssignment(context.Background(), nil, eq.ID)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUnassign_WithoutOpenAssignment(t *testing.T) {
	f := newEngineFixture(t)
	eq := f.createEquipment(t, "SN-070", nil)

	err := f.engine.Unassign(context.Background(), eq.ID)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetAssignments_EmployeeIsScopedToSelf(t *testing.T) {
	f := newEngineFixture(t)
	f.createEquipment(t, "SN-080", &dto.CreateAssignmentInputDTO{EmployeeID: f.employeeID})

	otherID := f.userRepo.add(entities.User{
		Name: "Other", Email: "other@test.local",
		Role: constants.RoleEmployee, Status: constants.UserStatusActive,
	})
	f.createEquipment(t, "SN-081", &dto.CreateAssignmentInputDTO{EmployeeID: otherID})

	// An employee asking for someone else's rows still gets only their own.
	list, _, err := f.engine.GetAssignments(context.Background(), constants.RoleEmployee, f.employeeID,
		repositories.AssignmentFilter{EmployeeID: otherID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.employeeID, list[0].EmployeeID)

	all, _, err := f.engine.GetAssignments(context.Background(), constants.RoleAdmin, f.adminID,
		repositories.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
