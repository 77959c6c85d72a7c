package services

import (
	"context"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

// The fakes below back the service tests with in-memory state. They honor
// the same contracts as the SQL repositories: NotFoundError for missing
// rows, ConflictError where a unique index would fire. The tx argument is
// ignored; fakeTxManager passes nil through.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]entities.User)}
}

func (f *fakeUserRepo) add(u entities.User) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return u.ID
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, params utils.QueryParams) ([]entities.User, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeUserRepo) FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	return &u, nil
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user")
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, tx pgx.Tx, user entities.User) (uint64, error) {
	f.mu.Lock()
	for _, u := range f.users {
		if u.Email == user.Email {
			f.mu.Unlock()
			return 0, apperrors.NewConflictError("email %s is already registered", user.Email)
		}
	}
	f.mu.Unlock()
	return f.add(user), nil
}

func (f *fakeUserRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user")
	}
	u.Status = status
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperrors.NewNotFoundError("user")
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountActiveAdmins(ctx context.Context, tx pgx.Tx) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, u := range f.users {
		if u.Role == constants.RoleAdmin && u.Status == constants.UserStatusActive {
			count++
		}
	}
	return count, nil
}

type fakeEquipmentRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]entities.Equipment
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{items: make(map[uint64]entities.Equipment)}
}

func (f *fakeEquipmentRepo) add(eq entities.Equipment) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	eq.ID = f.nextID
	f.items[eq.ID] = eq
	return eq.ID
}

func (f *fakeEquipmentRepo) GetEquipments(ctx context.Context, params utils.QueryParams) ([]entities.Equipment, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Equipment, 0, len(f.items))
	for _, eq := range f.items {
		out = append(out, eq)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeEquipmentRepo) FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eq, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("equipment")
	}
	return &eq, nil
}

func (f *fakeEquipmentRepo) CreateEquipment(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error) {
	f.mu.Lock()
	for _, existing := range f.items {
		if existing.SerialNumber == eq.SerialNumber {
			f.mu.Unlock()
			return 0, apperrors.NewConflictError("serial number %s is already registered", eq.SerialNumber)
		}
	}
	f.mu.Unlock()
	return f.add(eq), nil
}

func (f *fakeEquipmentRepo) UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, eq entities.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[id]
	if !ok {
		return apperrors.NewNotFoundError("equipment")
	}
	current.Name = eq.Name
	current.Type = eq.Type
	current.SerialNumber = eq.SerialNumber
	current.PurchaseDate = eq.PurchaseDate
	f.items[id] = current
	return nil
}

func (f *fakeEquipmentRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	eq, ok := f.items[id]
	if !ok {
		return apperrors.NewNotFoundError("equipment")
	}
	eq.Status = status
	f.items[id] = eq
	return nil
}

func (f *fakeEquipmentRepo) SetStatusIfCurrent(ctx context.Context, tx pgx.Tx, id uint64, newStatus, currentStatus string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eq, ok := f.items[id]
	if !ok {
		return false, apperrors.NewNotFoundError("equipment")
	}
	if eq.Status != currentStatus {
		return false, nil
	}
	eq.Status = newStatus
	f.items[id] = eq
	return true, nil
}

func (f *fakeEquipmentRepo) DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperrors.NewNotFoundError("equipment")
	}
	delete(f.items, id)
	return nil
}

func (f *fakeEquipmentRepo) CountCreatedBy(ctx context.Context, tx pgx.Tx, userID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, eq := range f.items {
		if eq.CreatedBy == userID {
			count++
		}
	}
	return count, nil
}

type fakeAssignmentRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]entities.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{items: make(map[uint64]entities.Assignment)}
}

func (f *fakeAssignmentRepo) GetAssignments(ctx context.Context, filter repositories.AssignmentFilter) ([]entities.Assignment, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Assignment
	for _, a := range f.items {
		if filter.EquipmentID != 0 && a.EquipmentID != filter.EquipmentID {
			continue
		}
		if filter.EmployeeID != 0 && a.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.OnlyOpen && !a.Open() {
			continue
		}
		out = append(out, a)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeAssignmentRepo) FindOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.EquipmentID == equipmentID && a.Open() {
			return &a, nil
		}
	}
	return nil, apperrors.NewNotFoundError("active assignment")
}

func (f *fakeAssignmentRepo) ListOpenByEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) ([]entities.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Assignment
	for _, a := range f.items {
		if a.EmployeeID == employeeID && a.Open() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListOpen(ctx context.Context) ([]entities.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Assignment
	for _, a := range f.items {
		if a.Open() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) CreateAssignment(ctx context.Context, tx pgx.Tx, a entities.Assignment) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Same rule the partial unique index enforces.
	for _, existing := range f.items {
		if existing.EquipmentID == a.EquipmentID && existing.Open() {
			return 0, apperrors.NewConflictError("equipment %d already has an open assignment", a.EquipmentID)
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.items[a.ID] = a
	return a.ID, nil
}

func (f *fakeAssignmentRepo) CloseOpenAssignment(ctx context.Context, tx pgx.Tx, equipmentID uint64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var closed int64
	for id, a := range f.items {
		if a.EquipmentID == equipmentID && a.Open() {
			a.EndDate = null.TimeFrom(at)
			f.items[id] = a
			closed++
		}
	}
	return closed, nil
}

type fakeIncidentRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]entities.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{items: make(map[uint64]entities.Incident)}
}

func (f *fakeIncidentRepo) add(inc entities.Incident) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inc.ID = f.nextID
	f.items[inc.ID] = inc
	return inc.ID
}

func (f *fakeIncidentRepo) GetIncidents(ctx context.Context, params utils.QueryParams) ([]entities.Incident, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Incident, 0, len(f.items))
	for _, inc := range f.items {
		out = append(out, inc)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeIncidentRepo) FindIncident(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("incident")
	}
	return &inc, nil
}

func (f *fakeIncidentRepo) CreateIncident(ctx context.Context, tx pgx.Tx, inc entities.Incident) (uint64, error) {
	return f.add(inc), nil
}

func (f *fakeIncidentRepo) UpdateIncident(ctx context.Context, tx pgx.Tx, id uint64, inc entities.Incident) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[id]
	if !ok {
		return apperrors.NewNotFoundError("incident")
	}
	current.Status = inc.Status
	current.AssignedTo = inc.AssignedTo
	f.items[id] = current
	return nil
}

func (f *fakeIncidentRepo) CountByUser(ctx context.Context, tx pgx.Tx, userID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, inc := range f.items {
		if inc.ReportedBy == userID || (inc.AssignedTo.Valid && inc.AssignedTo.Uint64 == userID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeIncidentRepo) CountByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, inc := range f.items {
		if inc.EquipmentID == equipmentID {
			count++
		}
	}
	return count, nil
}
