package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
	"fleetwatch/internal/repository"
)

// VehicleRegistry is the read-only registry lookup the resolver runs against.
type VehicleRegistry interface {
	GetByIdentifier(ctx context.Context, identifier string) (*models.Vehicle, error)
}

// IdentifierCache caches identifier → vehicle id mappings with a short TTL.
type IdentifierCache interface {
	Get(ctx context.Context, identifier string) (int64, bool, error)
	Set(ctx context.Context, identifier string, vehicleID int64) error
}

// Resolver maps external vehicle identifiers to internal vehicle ids. The
// cache is optional; a cache outage degrades to registry point reads and
// never blocks ingestion.
type Resolver struct {
	registry VehicleRegistry
	cache    IdentifierCache
	logger   *zap.Logger
}

// NewResolver returns resolver. Pass a nil cache to resolve against the
// registry only.
func NewResolver(registry VehicleRegistry, cache IdentifierCache, logger *zap.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		cache:    cache,
		logger:   logger,
	}
}

// Resolve returns the internal vehicle id for an external identifier, or
// ErrUnknownVehicle when no registered vehicle matches.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (int64, error) {
	if r.cache != nil {
		id, found, err := r.cache.Get(ctx, identifier)
		if err != nil {
			r.logger.Warn("resolver cache read failed", zap.Error(err))
		} else if found {
			return id, nil
		}
	}

	vehicle, err := r.registry.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return 0, ErrUnknownVehicle
		}
		return 0, err
	}

	if r.cache != nil {
		// Only positive lookups are cached; a fresh registration becomes
		// visible on its first frame instead of after a negative-entry TTL.
		if err := r.cache.Set(ctx, identifier, vehicle.ID); err != nil {
			r.logger.Warn("resolver cache write failed", zap.Error(err))
		}
	}

	return vehicle.ID, nil
}
