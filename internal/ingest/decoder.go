package ingest

import (
	"encoding/json"
	"strconv"
	"time"
)

// knownChannels is the fixed set of sensor channels copied from inbound
// payloads, keyed by their external names. Anything else in a frame is
// silently ignored.
var knownChannels = []string{
	"rpm",
	"speed",
	"coolant_temp",
	"timing_advance",
	"intake_temp",
	"maf",
	"throttle",
	"engine_load",
	"manifold_pressure",
	"o2_voltage",
	"lambda",
	"o2_voltage_b1s2",
	"lambda_b1s2",
	"wideband_lambda",
	"wideband_voltage",
	"afr",
	"short_fuel_trim",
	"long_fuel_trim",
}

// channelAliases renames external channel names to their canonical storage
// names. "lambda" collides with a reserved word in the storage layer.
var channelAliases = map[string]string{
	"lambda": "lambda_value",
}

// RawFrame is one decoded telemetry message. It is constructed here, consumed
// immediately by the resolver and store, and never mutated.
type RawFrame struct {
	VehicleIdentifier string
	FrameID           string
	TimestampMs       int64
	Channels          map[string]float64
}

// DecodeFrame turns a raw message body into a RawFrame or rejects it.
//
// The vehicle identifier comes from the payload's "id" field, falling back to
// the "vehicleId" and "vehicleIdentifier" aliases. The same value doubles as
// the frame's deduplication key. Channel values pass through unconverted; no
// range or plausibility validation happens here.
func DecodeFrame(payload []byte, now time.Time) (*RawFrame, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, &DecodeError{Err: err}
	}

	identifier := firstString(doc, "id", "vehicleId", "vehicleIdentifier")
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}

	frame := &RawFrame{
		VehicleIdentifier: identifier,
		FrameID:           identifier,
		TimestampMs:       timestampOrDefault(doc, now),
		Channels:          make(map[string]float64),
	}

	for _, name := range knownChannels {
		raw, ok := doc[name]
		if !ok {
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		canonical := name
		if alias, ok := channelAliases[name]; ok {
			canonical = alias
		}
		frame.Channels[canonical] = value
	}

	return frame, nil
}

func firstString(doc map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

func timestampOrDefault(doc map[string]json.RawMessage, now time.Time) int64 {
	raw, ok := doc["timestamp"]
	if ok {
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
	}
	return now.UnixMilli()
}
