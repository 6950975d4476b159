package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"roominventory/models"
)

var ErrNotFound = errors.New("record not found")

// TxManager runs fn as one unit of work while holding the locks of the given rooms.
// A nested call with a transaction already in ctx joins it.
type TxManager interface {
	WithinRoomLocks(ctx context.Context, roomNumbers []string, fn func(ctx context.Context) error) error
}

type RoomQuery struct {
	Type            string
	MinOccupancy    int
	ActiveOnly      bool
	ExcludeStatuses []string
}

type RoomRepository interface {
	GetByNumber(ctx context.Context, number string) (*models.Room, error)
	List(ctx context.Context, q RoomQuery) ([]models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	UpdateStatus(ctx context.Context, number, status string, window *models.MaintenanceWindow, at time.Time) error
	AppendAudit(ctx context.Context, audit *models.RoomStatusAudit) error
	ListAudits(ctx context.Context, number string) ([]models.RoomStatusAudit, error)
	CountOccupancy(ctx context.Context) (occupied, active int, err error)
}

type BookingListOptions struct {
	CheckInBefore *time.Time
	CreatedBefore *time.Time
	Limit         int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	// FindOverlapping uses the inclusive test checkIn <= end AND checkOut >= start.
	FindOverlapping(ctx context.Context, roomNumbers []string, start, end time.Time, statuses []string) ([]models.Booking, error)
	ListByRoom(ctx context.Context, roomNumber string) ([]models.Booking, error)
	ListByStatus(ctx context.Context, status string, opts BookingListOptions) ([]models.Booking, error)
	AppendAudit(ctx context.Context, audit *models.BookingAudit) error
	ListAudits(ctx context.Context, bookingID string) ([]models.BookingAudit, error)
}

type RateRepository interface {
	GetByID(ctx context.Context, id string) (*models.RateDefinition, error)
	Save(ctx context.Context, rate *models.RateDefinition) error
}

// SortedUnique returns the room numbers deduplicated in lock order.
func SortedUnique(roomNumbers []string) []string {
	seen := make(map[string]struct{}, len(roomNumbers))
	out := make([]string, 0, len(roomNumbers))
	for _, n := range roomNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
