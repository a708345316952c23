package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
	"fleetwatch/internal/repository"
)

// ErrIdentifierInUse is returned when registering a duplicate vehicle
// identifier.
var ErrIdentifierInUse = errors.New("vehicles: identifier already in use")

// ErrVehicleNotFound mirrors the repository sentinel for callers of this
// service.
var ErrVehicleNotFound = repository.ErrVehicleNotFound

// VehicleRepositoryContract defines the registry storage used by the service.
type VehicleRepositoryContract interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByIdentifier(ctx context.Context, identifier string) (*models.Vehicle, error)
	GetByIDForUser(ctx context.Context, vehicleID, userID int64) (*models.Vehicle, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error)
}

// ReadingQueries defines the read patterns the dashboard needs from the
// reading store.
type ReadingQueries interface {
	LatestForMany(ctx context.Context, vehicleIDs []int64) (map[int64]models.Reading, error)
	History(ctx context.Context, vehicleID int64, limit int) ([]models.Reading, error)
}

// VehicleWithLatest pairs a vehicle with its most recent reading, if any.
type VehicleWithLatest struct {
	models.Vehicle
	LatestData *models.Reading `json:"latestData"`
}

// VehicleService handles vehicle registration and the dashboard queries.
type VehicleService struct {
	vehicles VehicleRepositoryContract
	readings ReadingQueries
	logger   *zap.Logger
}

// NewVehicleService returns service instance.
func NewVehicleService(vehicles VehicleRepositoryContract, readings ReadingQueries, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		vehicles: vehicles,
		readings: readings,
		logger:   logger,
	}
}

// Create registers a new vehicle for the user.
func (s *VehicleService) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if _, err := s.vehicles.GetByIdentifier(ctx, vehicle.Identifier); err == nil {
		return ErrIdentifierInUse
	} else if !errors.Is(err, repository.ErrVehicleNotFound) {
		return err
	}

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return err
	}

	s.logger.Info("vehicle registered",
		zap.Int64("vehicle_id", vehicle.ID),
		zap.String("identifier", vehicle.Identifier))
	return nil
}

// ListWithLatest returns the user's vehicles, each carrying its latest
// reading. The latest readings for all vehicles are fetched in one round
// trip.
func (s *VehicleService) ListWithLatest(ctx context.Context, userID int64) ([]VehicleWithLatest, error) {
	vehicles, err := s.vehicles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return []VehicleWithLatest{}, nil
	}

	ids := make([]int64, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}

	latest, err := s.readings.LatestForMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]VehicleWithLatest, 0, len(vehicles))
	for _, v := range vehicles {
		entry := VehicleWithLatest{Vehicle: v}
		if reading, ok := latest[v.ID]; ok {
			r := reading
			entry.LatestData = &r
		}
		result = append(result, entry)
	}
	return result, nil
}

// History returns recent readings for a vehicle owned by the user, newest
// first. The limit is clamped by the reading store.
func (s *VehicleService) History(ctx context.Context, userID, vehicleID int64, limit int) ([]models.Reading, error) {
	if _, err := s.vehicles.GetByIDForUser(ctx, vehicleID, userID); err != nil {
		return nil, err
	}
	return s.readings.History(ctx, vehicleID, limit)
}
