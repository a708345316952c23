package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
)

// fakeStore mimics the conflict policy of the real store: a duplicate frame
// id is a successful no-op.
type fakeStore struct {
	mu        sync.Mutex
	readings  map[string]models.Reading
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{readings: make(map[string]models.Reading)}
}

func (f *fakeStore) InsertIfAbsent(_ context.Context, reading *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.readings[reading.FrameID]; ok {
		return nil
	}
	f.readings[reading.FrameID] = *reading
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

func (f *fakeStore) get(frameID string) (models.Reading, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.readings[frameID]
	return r, ok
}

func newTestPipeline(store *fakeStore, vehicles map[string]int64) *Pipeline {
	resolver := NewResolver(&fakeRegistry{vehicles: vehicles}, nil, zap.NewNop())
	p := NewPipeline(resolver, store, zap.NewNop())
	p.now = func() time.Time { return time.UnixMilli(5555) }
	return p
}

func TestPipeline_EndToEnd(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, map[string]int64{"VIN123": 3})

	payload := []byte(`{"id":"VIN123","timestamp":1000,"speed":60,"rpm":2000}`)
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}

	reading, ok := store.get("VIN123")
	if !ok {
		t.Fatal("reading not stored")
	}
	if reading.VehicleID != 3 {
		t.Errorf("vehicle id = %d, want 3", reading.VehicleID)
	}
	if reading.TimestampMs != 1000 {
		t.Errorf("timestamp = %d, want 1000", reading.TimestampMs)
	}
	if reading.Speed == nil || *reading.Speed != 60 {
		t.Errorf("speed = %v, want 60", reading.Speed)
	}
	if reading.RPM == nil || *reading.RPM != 2000 {
		t.Errorf("rpm = %v, want 2000", reading.RPM)
	}
	if reading.CoolantTemp != nil || reading.Throttle != nil || reading.LambdaValue != nil {
		t.Error("unreported channels must stay nil")
	}

	// Re-publishing the identical frame leaves the stored count at one.
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process duplicate: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("stored count = %d, want 1", store.count())
	}
}

func TestPipeline_MalformedMessageIsNonFatal(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, map[string]int64{"VIN123": 3})

	if err := p.Process(context.Background(), []byte(`not json at all`)); err == nil {
		t.Fatal("expected decode error")
	}
	if store.count() != 0 {
		t.Errorf("stored count = %d, want 0", store.count())
	}

	// The next valid message is still processed.
	if err := p.Process(context.Background(), []byte(`{"id":"VIN123","speed":30}`)); err != nil {
		t.Fatalf("Process after malformed: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("stored count = %d, want 1", store.count())
	}
}

func TestPipeline_UnknownVehicleLeavesStoreUnchanged(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, map[string]int64{})

	err := p.Process(context.Background(), []byte(`{"id":"GHOST","speed":30}`))
	if !errors.Is(err, ErrUnknownVehicle) {
		t.Fatalf("err = %v, want ErrUnknownVehicle", err)
	}
	if store.count() != 0 {
		t.Errorf("stored count = %d, want 0", store.count())
	}
}

func TestPipeline_MissingIdentifierDropped(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, map[string]int64{"VIN123": 3})

	err := p.Process(context.Background(), []byte(`{"speed":30,"rpm":900}`))
	if !errors.Is(err, ErrMissingIdentifier) {
		t.Fatalf("err = %v, want ErrMissingIdentifier", err)
	}
	if store.count() != 0 {
		t.Errorf("stored count = %d, want 0", store.count())
	}
}

func TestPipeline_StoreFailureIsContained(t *testing.T) {
	store := newFakeStore()
	storeErr := errors.New("storage unavailable")
	store.insertErr = storeErr
	p := newTestPipeline(store, map[string]int64{"VIN123": 3})

	err := p.Process(context.Background(), []byte(`{"id":"VIN123","speed":30}`))
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want store error", err)
	}

	// Storage heals; the next message goes through without a restart.
	store.insertErr = nil
	if err := p.Process(context.Background(), []byte(`{"id":"VIN123","speed":31}`)); err != nil {
		t.Fatalf("Process after outage: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("stored count = %d, want 1", store.count())
	}
}

func TestPipeline_IngestionTimeDefault(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, map[string]int64{"VIN123": 3})

	if err := p.Process(context.Background(), []byte(`{"id":"VIN123","speed":30}`)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	reading, _ := store.get("VIN123")
	if reading.TimestampMs != 5555 {
		t.Errorf("timestamp = %d, want ingestion-time default 5555", reading.TimestampMs)
	}
}
