package models

import "time"

// Reading is one persisted, normalized telemetry frame. Channel fields are
// pointers: a nil channel was simply not reported in the frame.
//
// The external "lambda" channel is stored as lambda_value (lambda is reserved
// in the storage layer) but serialized back out as "lambda".
type Reading struct {
	ID          int64  `db:"id" json:"id"`
	VehicleID   int64  `db:"vehicle_id" json:"vehicle_id"`
	FrameID     string `db:"frame_id" json:"frame_id"`
	TimestampMs int64  `db:"timestamp_ms" json:"timestamp_ms"`

	RPM              *float64 `db:"rpm" json:"rpm"`
	Speed            *float64 `db:"speed" json:"speed"`
	CoolantTemp      *float64 `db:"coolant_temp" json:"coolant_temp"`
	TimingAdvance    *float64 `db:"timing_advance" json:"timing_advance"`
	IntakeTemp       *float64 `db:"intake_temp" json:"intake_temp"`
	MAF              *float64 `db:"maf" json:"maf"`
	Throttle         *float64 `db:"throttle" json:"throttle"`
	EngineLoad       *float64 `db:"engine_load" json:"engine_load"`
	ManifoldPressure *float64 `db:"manifold_pressure" json:"manifold_pressure"`
	O2Voltage        *float64 `db:"o2_voltage" json:"o2_voltage"`
	LambdaValue      *float64 `db:"lambda_value" json:"lambda"`
	O2VoltageB1S2    *float64 `db:"o2_voltage_b1s2" json:"o2_voltage_b1s2"`
	LambdaB1S2       *float64 `db:"lambda_b1s2" json:"lambda_b1s2"`
	WidebandLambda   *float64 `db:"wideband_lambda" json:"wideband_lambda"`
	WidebandVoltage  *float64 `db:"wideband_voltage" json:"wideband_voltage"`
	AFR              *float64 `db:"afr" json:"afr"`
	ShortFuelTrim    *float64 `db:"short_fuel_trim" json:"short_fuel_trim"`
	LongFuelTrim     *float64 `db:"long_fuel_trim" json:"long_fuel_trim"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
