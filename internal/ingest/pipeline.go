package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
)

const payloadExcerptLen = 256

// ReadingStore persists normalized readings. Duplicate frame ids must be a
// successful no-op so redelivered frames and shutdown redeliveries are safe.
type ReadingStore interface {
	InsertIfAbsent(ctx context.Context, reading *models.Reading) error
}

// Pipeline drives one message through decode → resolve → store. Every failure
// is contained to its message: logged with enough context to diagnose and
// dropped, never propagated to terminate the listener.
type Pipeline struct {
	resolver *Resolver
	store    ReadingStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewPipeline returns pipeline.
func NewPipeline(resolver *Resolver, store ReadingStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Process ingests one raw message. The returned error reports why a message
// was dropped; callers do not need to act on it.
func (p *Pipeline) Process(ctx context.Context, payload []byte) error {
	frame, err := DecodeFrame(payload, p.now())
	if err != nil {
		if errors.Is(err, ErrMissingIdentifier) {
			p.logger.Warn("dropped frame missing vehicle identifier",
				zap.String("payload", excerpt(payload)))
		} else {
			p.logger.Warn("dropped malformed frame",
				zap.String("payload", excerpt(payload)),
				zap.Error(err))
		}
		return err
	}

	vehicleID, err := p.resolver.Resolve(ctx, frame.VehicleIdentifier)
	if err != nil {
		if errors.Is(err, ErrUnknownVehicle) {
			p.logger.Warn("dropped frame for unknown vehicle",
				zap.String("identifier", frame.VehicleIdentifier))
		} else {
			p.logger.Error("vehicle lookup failed",
				zap.String("identifier", frame.VehicleIdentifier),
				zap.Error(err))
		}
		return err
	}

	reading := buildReading(vehicleID, frame)
	if err := p.store.InsertIfAbsent(ctx, reading); err != nil {
		p.logger.Error("failed to store reading",
			zap.String("frame_id", frame.FrameID),
			zap.Int64("vehicle_id", vehicleID),
			zap.Error(err))
		return err
	}

	return nil
}

func buildReading(vehicleID int64, frame *RawFrame) *models.Reading {
	reading := &models.Reading{
		VehicleID:   vehicleID,
		FrameID:     frame.FrameID,
		TimestampMs: frame.TimestampMs,
	}
	for name, value := range frame.Channels {
		v := value
		switch name {
		case "rpm":
			reading.RPM = &v
		case "speed":
			reading.Speed = &v
		case "coolant_temp":
			reading.CoolantTemp = &v
		case "timing_advance":
			reading.TimingAdvance = &v
		case "intake_temp":
			reading.IntakeTemp = &v
		case "maf":
			reading.MAF = &v
		case "throttle":
			reading.Throttle = &v
		case "engine_load":
			reading.EngineLoad = &v
		case "manifold_pressure":
			reading.ManifoldPressure = &v
		case "o2_voltage":
			reading.O2Voltage = &v
		case "lambda_value":
			reading.LambdaValue = &v
		case "o2_voltage_b1s2":
			reading.O2VoltageB1S2 = &v
		case "lambda_b1s2":
			reading.LambdaB1S2 = &v
		case "wideband_lambda":
			reading.WidebandLambda = &v
		case "wideband_voltage":
			reading.WidebandVoltage = &v
		case "afr":
			reading.AFR = &v
		case "short_fuel_trim":
			reading.ShortFuelTrim = &v
		case "long_fuel_trim":
			reading.LongFuelTrim = &v
		}
	}
	return reading
}

func excerpt(payload []byte) string {
	if len(payload) <= payloadExcerptLen {
		return string(payload)
	}
	return string(payload[:payloadExcerptLen]) + "..."
}
