package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
	"fleetwatch/internal/repository"
)

type fakeVehicleRepo struct {
	vehicles map[int64]*models.Vehicle
	nextID   int64
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[int64]*models.Vehicle), nextID: 1}
}

func (f *fakeVehicleRepo) Create(_ context.Context, vehicle *models.Vehicle) error {
	vehicle.ID = f.nextID
	f.nextID++
	stored := *vehicle
	f.vehicles[vehicle.ID] = &stored
	return nil
}

func (f *fakeVehicleRepo) GetByIdentifier(_ context.Context, identifier string) (*models.Vehicle, error) {
	for _, v := range f.vehicles {
		if v.Identifier == identifier {
			copied := *v
			return &copied, nil
		}
	}
	return nil, repository.ErrVehicleNotFound
}

func (f *fakeVehicleRepo) GetByIDForUser(_ context.Context, vehicleID, userID int64) (*models.Vehicle, error) {
	v, ok := f.vehicles[vehicleID]
	if !ok || v.UserID != userID {
		return nil, repository.ErrVehicleNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVehicleRepo) ListByUser(_ context.Context, userID int64) ([]models.Vehicle, error) {
	var result []models.Vehicle
	for id := f.nextID - 1; id >= 1; id-- {
		if v, ok := f.vehicles[id]; ok && v.UserID == userID {
			result = append(result, *v)
		}
	}
	return result, nil
}

type fakeReadingQueries struct {
	latest       map[int64]models.Reading
	history      map[int64][]models.Reading
	historyLimit int
}

func (f *fakeReadingQueries) LatestForMany(_ context.Context, vehicleIDs []int64) (map[int64]models.Reading, error) {
	result := make(map[int64]models.Reading)
	for _, id := range vehicleIDs {
		if r, ok := f.latest[id]; ok {
			result[id] = r
		}
	}
	return result, nil
}

func (f *fakeReadingQueries) History(_ context.Context, vehicleID int64, limit int) ([]models.Reading, error) {
	f.historyLimit = limit
	return f.history[vehicleID], nil
}

func newTestVehicleService() (*VehicleService, *fakeVehicleRepo, *fakeReadingQueries) {
	vehicles := newFakeVehicleRepo()
	readings := &fakeReadingQueries{
		latest:  make(map[int64]models.Reading),
		history: make(map[int64][]models.Reading),
	}
	return NewVehicleService(vehicles, readings, zap.NewNop()), vehicles, readings
}

func TestVehicleService_Create(t *testing.T) {
	svc, _, _ := newTestVehicleService()

	vehicle := &models.Vehicle{UserID: 1, Name: "Family car", Identifier: "VIN123"}
	if err := svc.Create(context.Background(), vehicle); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if vehicle.ID == 0 {
		t.Error("vehicle id not assigned")
	}
}

func TestVehicleService_CreateDuplicateIdentifier(t *testing.T) {
	svc, _, _ := newTestVehicleService()

	if err := svc.Create(context.Background(), &models.Vehicle{UserID: 1, Name: "First", Identifier: "VIN123"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Identifier uniqueness is fleet-wide, not per-user.
	err := svc.Create(context.Background(), &models.Vehicle{UserID: 2, Name: "Second", Identifier: "VIN123"})
	if !errors.Is(err, ErrIdentifierInUse) {
		t.Fatalf("err = %v, want ErrIdentifierInUse", err)
	}
}

func TestVehicleService_ListWithLatest(t *testing.T) {
	svc, _, readings := newTestVehicleService()

	withData := &models.Vehicle{UserID: 1, Name: "With data", Identifier: "VIN-A"}
	noData := &models.Vehicle{UserID: 1, Name: "No data", Identifier: "VIN-B"}
	for _, v := range []*models.Vehicle{withData, noData} {
		if err := svc.Create(context.Background(), v); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	speed := 88.0
	readings.latest[withData.ID] = models.Reading{VehicleID: withData.ID, FrameID: "VIN-A", TimestampMs: 1000, Speed: &speed}

	list, err := svc.ListWithLatest(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListWithLatest: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	byIdentifier := make(map[string]VehicleWithLatest)
	for _, entry := range list {
		byIdentifier[entry.Identifier] = entry
	}
	if entry := byIdentifier["VIN-A"]; entry.LatestData == nil || *entry.LatestData.Speed != 88.0 {
		t.Errorf("VIN-A latest = %+v, want speed 88", entry.LatestData)
	}
	if entry := byIdentifier["VIN-B"]; entry.LatestData != nil {
		t.Errorf("VIN-B latest = %+v, want nil", entry.LatestData)
	}
}

func TestVehicleService_ListWithLatest_Empty(t *testing.T) {
	svc, _, _ := newTestVehicleService()

	list, err := svc.ListWithLatest(context.Background(), 99)
	if err != nil {
		t.Fatalf("ListWithLatest: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("len = %d, want 0", len(list))
	}
}

func TestVehicleService_History(t *testing.T) {
	svc, _, readings := newTestVehicleService()

	vehicle := &models.Vehicle{UserID: 1, Name: "Car", Identifier: "VIN123"}
	if err := svc.Create(context.Background(), vehicle); err != nil {
		t.Fatalf("Create: %v", err)
	}
	readings.history[vehicle.ID] = []models.Reading{
		{VehicleID: vehicle.ID, FrameID: "f2", TimestampMs: 2000},
		{VehicleID: vehicle.ID, FrameID: "f1", TimestampMs: 1000},
	}

	result, err := svc.History(context.Background(), 1, vehicle.ID, 25)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len = %d, want 2", len(result))
	}
	if readings.historyLimit != 25 {
		t.Errorf("limit passed = %d, want 25", readings.historyLimit)
	}
}

func TestVehicleService_HistoryOwnershipEnforced(t *testing.T) {
	svc, _, _ := newTestVehicleService()

	vehicle := &models.Vehicle{UserID: 1, Name: "Car", Identifier: "VIN123"}
	if err := svc.Create(context.Background(), vehicle); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Another user's vehicle looks exactly like a missing one.
	_, err := svc.History(context.Background(), 2, vehicle.ID, 10)
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("err = %v, want ErrVehicleNotFound", err)
	}
}
