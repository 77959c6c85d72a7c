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
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
)

type guardFixture struct {
	guard         *DeletionGuardService
	userRepo      *fakeUserRepo
	equipmentRepo *fakeEquipmentRepo
	assignments   *fakeAssignmentRepo
	incidents     *fakeIncidentRepo
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	equipmentRepo := newFakeEquipmentRepo()
	assignmentRepo := newFakeAssignmentRepo()
	incidentRepo := newFakeIncidentRepo()

	guard := NewDeletionGuardService(&fakeTxManager{}, userRepo, equipmentRepo, assignmentRepo, incidentRepo, zap.NewNop())
	return &guardFixture{
		guard:         guard,
		userRepo:      userRepo,
		equipmentRepo: equipmentRepo,
		assignments:   assignmentRepo,
		incidents:     incidentRepo,
	}
}

func (f *guardFixture) addEmployee(name string) uint64 {
	return f.userRepo.add(entities.User{
		Name: name, Email: name + "@test.local",
		Role: constants.RoleEmployee, Status: constants.UserStatusActive,
	})
}

func (f *guardFixture) addAdmin(name string) uint64 {
	return f.userRepo.add(entities.User{
		Name: name, Email: name + "@test.local",
		Role: constants.RoleAdmin, Status: constants.UserStatusActive,
	})
}

func reasonByKind(reasons []dto.BlockedReason, kind string) *dto.BlockedReason {
	for i := range reasons {
		if reasons[i].Kind == kind {
			return &reasons[i]
		}
	}
	return nil
}

func TestDeleteUser_CollectsAllBlockingReasons(t *testing.T) {
	f := newGuardFixture(t)
	adminID := f.addAdmin("admin")
	userID := f.addEmployee("victim")

	eq1 := entities.Equipment{Name: "Laptop A", Type: "laptop", SerialNumber: "SN-1", Status: constants.EquipmentStatusAssigned, CreatedBy: adminID}
	eq1.ID = f.equipmentRepo.add(eq1)
	eq2 := entities.Equipment{Name: "Printer B", Type: "printer", SerialNumber: "SN-2", Status: constants.EquipmentStatusAvailable, CreatedBy: userID}
	eq2.ID = f.equipmentRepo.add(eq2)

	_, err := f.assignments.CreateAssignment(context.Background(), nil, entities.Assignment{
		EquipmentID: eq1.ID, EmployeeID: userID, Condition: "Bon état",
		StartDate: time.Now(), EquipmentName: eq1.Name,
	})
	require.NoError(t, err)

	f.incidents.add(entities.Incident{Title: "broken screen", EquipmentID: eq1.ID, ReportedBy: userID, Status: constants.IncidentStatusOpen})
	f.incidents.add(entities.Incident{Title: "bad keyboard", EquipmentID: eq2.ID, ReportedBy: userID, Status: constants.IncidentStatusOpen})

	blocked, err := f.guard.DeleteUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, blocked, 3)

	incidents := reasonByKind(blocked, dto.BlockKindIncidents)
	require.NotNil(t, incidents)
	assert.Equal(t, 2, incidents.Count)

	active := reasonByKind(blocked, dto.BlockKindActiveAssignments)
	require.NotNil(t, active)
	assert.Equal(t, 1, active.Count)
	assert.Equal(t, []string{"Laptop A"}, active.Details)

	created := reasonByKind(blocked, dto.BlockKindCreatedEquipment)
	require.NotNil(t, created)
	assert.Equal(t, 1, created.Count)

	// Blocked means nothing was deleted.
	_, err = f.userRepo.FindUser(context.Background(), nil, userID)
	require.NoError(t, err)
}

func TestDeleteUser_LastActiveAdminIsProtected(t *testing.T) {
	f := newGuardFixture(t)
	onlyAdmin := f.addAdmin("solo")

	blocked, err := f.guard.DeleteUser(context.Background(), onlyAdmin)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, dto.BlockKindLastAdmin, blocked[0].Kind)

	// A second active admin lifts the block.
	f.addAdmin("backup")
	blocked, err = f.guard.DeleteUser(context.Background(), onlyAdmin)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	_, err = f.userRepo.FindUser(context.Background(), nil, onlyAdmin)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteUser_PendingAdminDoesNotCount(t *testing.T) {
	f := newGuardFixture(t)
	activeAdmin := f.addAdmin("active")
	f.userRepo.add(entities.User{
		Name: "pending-admin", Email: "pending-admin@test.local",
		Role: constants.RoleAdmin, Status: constants.UserStatusPending,
	})

	blocked, err := f.guard.DeleteUser(context.Background(), activeAdmin)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, dto.BlockKindLastAdmin, blocked[0].Kind)
}

func TestDeleteUser_CleanUserIsDeleted(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.addEmployee("clean")

	blocked, err := f.guard.DeleteUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	_, err = f.userRepo.FindUser(context.Background(), nil, userID)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteUser_MissingUser(t *testing.T) {
	f := newGuardFixture(t)

	_, err := f.guard.DeleteUser(context.Background(), 404)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCanDeleteUser_DoesNotDelete(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.addEmployee("checked")

	blocked, err := f.guard.CanDeleteUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	_, err = f.userRepo.FindUser(context.Background(), nil, userID)
	require.NoError(t, err, "a dry-run check must leave the user in place")
}

func TestDeleteEquipment_BlockedByOpenAssignmentAndIncidents(t *testing.T) {
	f := newGuardFixture(t)
	adminID := f.addAdmin("admin")
	holderID := f.addEmployee("holder")

	eq := entities.Equipment{Name: "Laptop", Type: "laptop", SerialNumber: "SN-9", Status: constants.EquipmentStatusAssigned, CreatedBy: adminID}
	eq.ID = f.equipmentRepo.add(eq)

	_, err := f.assignments.CreateAssignment(context.Background(), nil, entities.Assignment{
		EquipmentID: eq.ID, EmployeeID: holderID, Condition: "Bon état",
		StartDate: time.Now(), EmployeeName: "holder",
	})
	require.NoError(t, err)
	f.incidents.add(entities.Incident{Title: "won't boot", EquipmentID: eq.ID, ReportedBy: holderID, Status: constants.IncidentStatusOpen})

	blocked, err := f.guard.DeleteEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	require.Len(t, blocked, 2)
	assert.NotNil(t, reasonByKind(blocked, dto.BlockKindIncidents))
	assert.NotNil(t, reasonByKind(blocked, dto.BlockKindActiveAssignments))

	_, err = f.equipmentRepo.FindEquipment(context.Background(), nil, eq.ID)
	require.NoError(t, err)
}

func TestDeleteEquipment_ClosedHistoryDoesNotBlock(t *testing.T) {
	f := newGuardFixture(t)
	adminID := f.addAdmin("admin")
	holderID := f.addEmployee("holder")

	eq := entities.Equipment{Name: "Laptop", Type: "laptop", SerialNumber: "SN-10", Status: constants.EquipmentStatusAvailable, CreatedBy: adminID}
	eq.ID = f.equipmentRepo.add(eq)

	_, err := f.assignments.CreateAssignment(context.Background(), nil, entities.Assignment{
		EquipmentID: eq.ID, EmployeeID: holderID, Condition: "Bon état", StartDate: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = f.assignments.CloseOpenAssignment(context.Background(), nil, eq.ID, time.Now())
	require.NoError(t, err)

	blocked, err := f.guard.DeleteEquipment(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	_, err = f.equipmentRepo.FindEquipment(context.Background(), nil, eq.ID)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
