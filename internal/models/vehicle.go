package models

import "time"

// Vehicle is a registered vehicle. Identifier is the value the vehicle embeds
// in its telemetry payloads and is unique across the fleet.
type Vehicle struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Identifier  string    `db:"vehicle_identifier" json:"vehicleIdentifier"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
