package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"roominventory/constants"
	"roominventory/models"
	"roominventory/repository/memory"
)

// fixedNow nằm trong giờ làm việc mặc định
var fixedNow = time.Date(2024, 7, 10, 10, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.StatusEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) ofKind(kind string) []models.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.StatusEvent
	for _, ev := range p.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store        *memory.Store
	publisher    *recordingPublisher
	rates        *RateService
	rooms        *RoomStatusService
	availability *AvailabilityService
	bookings     *BookingService
}

type fixtureOptions struct {
	cache       Cache
	idempotency IdempotencyStore
	rates       RateCalculator
	timeout     time.Duration
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }

	store := memory.NewStore()
	seedInventory(t, store)

	f := &fixture{store: store, publisher: &recordingPublisher{}}
	f.rates = NewRateService(RateServiceOptions{Rates: store.Rates(), Cache: opts.cache})
	var calc RateCalculator = f.rates
	if opts.rates != nil {
		calc = opts.rates
	}
	f.rooms = NewRoomStatusService(RoomStatusServiceOptions{
		TxManager: store,
		Rooms:     store.Rooms(),
		Publisher: f.publisher,
		Cache:     opts.cache,
		Clock:     clock,
	})
	f.availability = NewAvailabilityService(AvailabilityServiceOptions{
		Rooms:    store.Rooms(),
		Bookings: store.Bookings(),
		Rates:    calc,
		Cache:    opts.cache,
		Clock:    clock,
	})
	f.bookings = NewBookingService(BookingServiceOptions{
		TxManager:    store,
		Bookings:     store.Bookings(),
		Rooms:        store.Rooms(),
		Availability: f.availability,
		Rates:        calc,
		Inventory:    f.rooms,
		Publisher:    f.publisher,
		Idempotency:  opts.idempotency,
		Timeout:      opts.timeout,
		Clock:        clock,
	})
	return f
}

// seedInventory: 101, 102 DELUXE; 201 SUITE; 301 ngừng hoạt động.
// Bảng giá BAR không có điều chỉnh nên giá một đêm luôn là 110.
func seedInventory(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	rooms := []models.Room{
		{RoomNumber: "101", Floor: 1, Type: "DELUXE", MaxOccupancy: 2, Amenities: models.StringList{"wifi", "balcony"}, IsActive: true, Status: constants.RoomStatusAvailable, RateID: "BAR"},
		{RoomNumber: "102", Floor: 1, Type: "DELUXE", MaxOccupancy: 3, Amenities: models.StringList{"wifi"}, IsActive: true, Status: constants.RoomStatusAvailable, RateID: "BAR"},
		{RoomNumber: "201", Floor: 2, Type: "SUITE", MaxOccupancy: 4, Amenities: models.StringList{"wifi", "balcony", "minibar"}, IsActive: true, Status: constants.RoomStatusAvailable, RateID: "BAR"},
		{RoomNumber: "301", Floor: 3, Type: "DELUXE", MaxOccupancy: 2, IsActive: false, Status: constants.RoomStatusAvailable, RateID: "BAR"},
	}
	for i := range rooms {
		require.NoError(t, store.Rooms().Save(ctx, &rooms[i]))
	}
	require.NoError(t, store.Rates().Save(ctx, &models.RateDefinition{
		ID:          "BAR",
		Name:        "Best available rate",
		BaseRate:    100,
		TaxRate:     0.10,
		MinimumRate: 50,
		MaximumRate: 500,
		IsActive:    true,
	}))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func roomStatus(t *testing.T, f *fixture, number string) string {
	t.Helper()
	room, err := f.store.Rooms().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return room.Status
}
