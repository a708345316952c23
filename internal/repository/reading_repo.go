package repository

import (
	"context"
	"database/sql"
	"errors"

	"fleetwatch/internal/models"
)

const (
	// MaxHistoryLimit bounds history responses regardless of what the caller
	// requests.
	MaxHistoryLimit     = 200
	defaultHistoryLimit = 50
)

const readingColumns = `
	id, vehicle_id, frame_id, timestamp_ms,
	rpm, speed, coolant_temp, timing_advance, intake_temp, maf, throttle,
	engine_load, manifold_pressure, o2_voltage, lambda_value, o2_voltage_b1s2,
	lambda_b1s2, wideband_lambda, wideband_voltage, afr, short_fuel_trim,
	long_fuel_trim, created_at`

// ReadingRepository owns the persisted reading set. Readings are immutable
// once stored; the frame_id uniqueness constraint is the sole duplicate
// delivery defense.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository returns repository instance.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// InsertIfAbsent stores a reading unless one with the same frame id already
// exists, in which case it is a successful no-op. The conflict policy is
// enforced atomically by the database, not by application-level locking.
func (r *ReadingRepository) InsertIfAbsent(ctx context.Context, reading *models.Reading) error {
	const query = `
		INSERT INTO telematics_data (
			vehicle_id, frame_id, timestamp_ms,
			rpm, speed, coolant_temp, timing_advance, intake_temp, maf, throttle,
			engine_load, manifold_pressure, o2_voltage, lambda_value, o2_voltage_b1s2,
			lambda_b1s2, wideband_lambda, wideband_voltage, afr, short_fuel_trim,
			long_fuel_trim
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (frame_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		reading.VehicleID,
		reading.FrameID,
		reading.TimestampMs,
		reading.RPM,
		reading.Speed,
		reading.CoolantTemp,
		reading.TimingAdvance,
		reading.IntakeTemp,
		reading.MAF,
		reading.Throttle,
		reading.EngineLoad,
		reading.ManifoldPressure,
		reading.O2Voltage,
		reading.LambdaValue,
		reading.O2VoltageB1S2,
		reading.LambdaB1S2,
		reading.WidebandLambda,
		reading.WidebandVoltage,
		reading.AFR,
		reading.ShortFuelTrim,
		reading.LongFuelTrim,
	)
	return err
}

// LatestFor returns the reading with the maximum timestamp for a vehicle, or
// nil when the vehicle has no data. Frames arrive out of order, so this is
// latest-by-timestamp, not latest-by-insertion; ties break on frame_id for
// determinism.
func (r *ReadingRepository) LatestFor(ctx context.Context, vehicleID int64) (*models.Reading, error) {
	query := `
		SELECT` + readingColumns + `
		FROM telematics_data
		WHERE vehicle_id = $1
		ORDER BY timestamp_ms DESC, frame_id DESC
		LIMIT 1
	`
	reading, err := scanReading(r.db.QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

// LatestForMany returns the latest reading per vehicle in one round trip.
// Vehicles without data are absent from the result map.
func (r *ReadingRepository) LatestForMany(ctx context.Context, vehicleIDs []int64) (map[int64]models.Reading, error) {
	result := make(map[int64]models.Reading)
	if len(vehicleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT DISTINCT ON (vehicle_id)` + readingColumns + `
		FROM telematics_data
		WHERE vehicle_id = ANY($1)
		ORDER BY vehicle_id, timestamp_ms DESC, frame_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result[reading.VehicleID] = *reading
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// History returns readings for a vehicle, newest first. The limit defaults to
// 50 and is clamped to MaxHistoryLimit server-side.
func (r *ReadingRepository) History(ctx context.Context, vehicleID int64, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := `
		SELECT` + readingColumns + `
		FROM telematics_data
		WHERE vehicle_id = $1
		ORDER BY timestamp_ms DESC, frame_id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*models.Reading, error) {
	var reading models.Reading
	err := row.Scan(
		&reading.ID,
		&reading.VehicleID,
		&reading.FrameID,
		&reading.TimestampMs,
		&reading.RPM,
		&reading.Speed,
		&reading.CoolantTemp,
		&reading.TimingAdvance,
		&reading.IntakeTemp,
		&reading.MAF,
		&reading.Throttle,
		&reading.EngineLoad,
		&reading.ManifoldPressure,
		&reading.O2Voltage,
		&reading.LambdaValue,
		&reading.O2VoltageB1S2,
		&reading.LambdaB1S2,
		&reading.WidebandLambda,
		&reading.WidebandVoltage,
		&reading.AFR,
		&reading.ShortFuelTrim,
		&reading.LongFuelTrim,
		&reading.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
