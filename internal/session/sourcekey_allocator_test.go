package session

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/google/uuid"
)

type fakeSettings struct {
	counter  uint64
	reserves int
	err      error
}

func (f *fakeSettings) ReserveSourceKeyRange(ctx context.Context, count uint64) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.reserves++
	first := f.counter + 1
	f.counter += count
	return first, nil
}

func TestSourceKeyAllocator_BatchesReservations(t *testing.T) {
	settings := &fakeSettings{}
	guid := uuid.New()
	a := NewSourceKeyAllocator(guid, settings, logger.Nop())

	seen := make(map[string]struct{})
	for i := 0; i < int(sourceKeyBatchSize)+1; i++ {
		key, err := a.NewSourceKey(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[string(key)]; dup {
			t.Fatalf("duplicate sourcekey %s", key)
		}
		seen[string(key)] = struct{}{}
	}

	// One batch covers the first 50 keys; the 51st needs a second trip.
	if settings.reserves != 2 {
		t.Errorf("expected 2 counter reservations, got %d", settings.reserves)
	}
}

func TestSourceKeyAllocator_ReservationFailure(t *testing.T) {
	settings := &fakeSettings{err: errors.New("settings row missing")}
	a := NewSourceKeyAllocator(uuid.New(), settings, logger.Nop())

	if _, err := a.NewSourceKey(context.Background()); err == nil {
		t.Fatal("expected error when the counter cannot be reserved")
	}
}
