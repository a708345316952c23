package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Readings cascade from vehicle deletion and vehicles cascade from user
// deletion; the reading store itself has no delete operation.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password_hash VARCHAR(191) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(150) NOT NULL,
		vehicle_identifier VARCHAR(64) NOT NULL UNIQUE,
		description VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS telematics_data (
		id BIGSERIAL PRIMARY KEY,
		vehicle_id BIGINT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		frame_id VARCHAR(64) NOT NULL UNIQUE,
		timestamp_ms BIGINT,
		rpm DOUBLE PRECISION,
		speed DOUBLE PRECISION,
		coolant_temp DOUBLE PRECISION,
		timing_advance DOUBLE PRECISION,
		intake_temp DOUBLE PRECISION,
		maf DOUBLE PRECISION,
		throttle DOUBLE PRECISION,
		engine_load DOUBLE PRECISION,
		manifold_pressure DOUBLE PRECISION,
		o2_voltage DOUBLE PRECISION,
		lambda_value DOUBLE PRECISION,
		o2_voltage_b1s2 DOUBLE PRECISION,
		lambda_b1s2 DOUBLE PRECISION,
		wideband_lambda DOUBLE PRECISION,
		wideband_voltage DOUBLE PRECISION,
		afr DOUBLE PRECISION,
		short_fuel_trim DOUBLE PRECISION,
		long_fuel_trim DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_telematics_vehicle_ts
		ON telematics_data (vehicle_id, timestamp_ms DESC)`,
}

// InitSchema creates tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context, pool *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: init schema: %w", err)
		}
	}
	return nil
}
