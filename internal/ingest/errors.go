package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentifier marks frames carrying no vehicle-identifying field.
	ErrMissingIdentifier = errors.New("ingest: payload has no vehicle identifier")
	// ErrUnknownVehicle marks frames whose identifier is not registered.
	// Telemetry for unregistered vehicles is noise, not an operator problem.
	ErrUnknownVehicle = errors.New("ingest: unknown vehicle identifier")
)

// DecodeError wraps a malformed message body failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ingest: malformed payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
