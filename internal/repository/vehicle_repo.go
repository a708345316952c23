package repository

import (
	"context"
	"database/sql"
	"errors"

	"fleetwatch/internal/models"
)

// ErrVehicleNotFound represents missing vehicle rows.
var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleRepository handles persistence of vehicle records. The ingestion
// pipeline only ever reads from it; registration happens over HTTP.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository instance.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (user_id, name, vehicle_identifier, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		vehicle.UserID,
		vehicle.Name,
		vehicle.Identifier,
		vehicle.Description,
	).Scan(&vehicle.ID, &vehicle.CreatedAt)
}

// GetByIdentifier fetches a vehicle by its unique external identifier. This is
// the point read backing the ingestion resolver.
func (r *VehicleRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, name, vehicle_identifier, description, created_at
		FROM vehicles
		WHERE vehicle_identifier = $1
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

// GetByIDForUser fetches a vehicle owned by the given user.
func (r *VehicleRepository) GetByIDForUser(ctx context.Context, vehicleID, userID int64) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, name, vehicle_identifier, description, created_at
		FROM vehicles
		WHERE id = $1 AND user_id = $2
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, vehicleID, userID))
}

// ListByUser returns the user's vehicles, newest first.
func (r *VehicleRepository) ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	const query = `
		SELECT id, user_id, name, vehicle_identifier, description, created_at
		FROM vehicles
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.Identifier, &v.Description, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *VehicleRepository) scanOne(row *sql.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Identifier, &v.Description, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}
