package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roominventory/constants"
	"roominventory/models"
	"roominventory/repository"
)

func seedRoom(t *testing.T, s *Store, number string) {
	t.Helper()
	require.NoError(t, s.Rooms().Save(context.Background(), &models.Room{
		RoomNumber:   number,
		Type:         "DELUXE",
		MaxOccupancy: 2,
		IsActive:     true,
		Status:       constants.RoomStatusAvailable,
	}))
}

func date(s string) time.Time {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWithinRoomLocks_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")

	boom := errors.New("boom")
	err := s.WithinRoomLocks(ctx, []string{"101"}, func(ctx context.Context) error {
		require.NoError(t, s.Rooms().UpdateStatus(ctx, "101", constants.RoomStatusOccupied, nil, time.Now()))
		require.NoError(t, s.Rooms().AppendAudit(ctx, &models.RoomStatusAudit{RoomNumber: "101", NewStatus: constants.RoomStatusOccupied}))
		require.NoError(t, s.Bookings().Create(ctx, &models.Booking{ID: "b1", RoomNumber: "101", Status: constants.BookingStatusPending}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	room, err := s.Rooms().GetByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, constants.RoomStatusAvailable, room.Status)

	audits, err := s.Rooms().ListAudits(ctx, "101")
	require.NoError(t, err)
	assert.Empty(t, audits)

	_, err = s.Bookings().GetByID(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinRoomLocks_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")

	staged := make(chan struct{})
	commit := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinRoomLocks(ctx, []string{"101"}, func(ctx context.Context) error {
			if err := s.Bookings().Create(ctx, &models.Booking{ID: "b1", RoomNumber: "101", Status: constants.BookingStatusPending, CheckIn: date("2024-07-15"), CheckOut: date("2024-07-18")}); err != nil {
				return err
			}
			if err := s.Bookings().AppendAudit(ctx, &models.BookingAudit{BookingID: "b1", Action: constants.AuditActionCreated}); err != nil {
				return err
			}
			if err := s.Rooms().UpdateStatus(ctx, "101", constants.RoomStatusBlocked, nil, time.Now()); err != nil {
				return err
			}

			// bên trong unit of work thấy được thay đổi của chính nó
			b, err := s.Bookings().GetByID(ctx, "b1")
			if err != nil {
				return err
			}
			if b.RoomNumber != "101" {
				return errors.New("staged booking not readable inside the unit of work")
			}
			close(staged)
			<-commit
			return nil
		})
	}()
	<-staged

	_, err := s.Bookings().GetByID(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	overlapping, err := s.Bookings().FindOverlapping(ctx, []string{"101"}, date("2024-07-15"), date("2024-07-18"), []string{constants.BookingStatusPending})
	require.NoError(t, err)
	assert.Empty(t, overlapping)
	audits, err := s.Bookings().ListAudits(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, audits)
	rooms, err := s.Rooms().List(ctx, repository.RoomQuery{ExcludeStatuses: []string{constants.RoomStatusBlocked}})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	close(commit)
	require.NoError(t, <-done)

	overlapping, err = s.Bookings().FindOverlapping(ctx, []string{"101"}, date("2024-07-15"), date("2024-07-18"), []string{constants.BookingStatusPending})
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
	audits, err = s.Bookings().ListAudits(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, audits, 1)
	room, err := s.Rooms().GetByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, constants.RoomStatusBlocked, room.Status)
}

func TestFindByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Bookings().Create(ctx, &models.Booking{ID: "b1", IdempotencyKey: "req-1"}))

	b, err := s.Bookings().FindByIdempotencyKey(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = s.Bookings().FindByIdempotencyKey(ctx, "req-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Bookings().FindByIdempotencyKey(ctx, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinRoomLocks_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")

	err := s.WithinRoomLocks(ctx, []string{"101"}, func(ctx context.Context) error {
		return s.Bookings().Create(ctx, &models.Booking{ID: "b1", RoomNumber: "101", Status: constants.BookingStatusPending})
	})
	require.NoError(t, err)

	b, err := s.Bookings().GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "101", b.RoomNumber)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestWithinRoomLocks_UnknownRoom(t *testing.T) {
	s := NewStore()
	err := s.WithinRoomLocks(context.Background(), []string{"999"}, func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinRoomLocks_SerializesSameRoom(t *testing.T) {
	s := NewStore()
	seedRoom(t, s, "101")

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinRoomLocks(context.Background(), []string{"101"}, func(context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestWithinRoomLocks_NestedCallJoins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")
	seedRoom(t, s, "102")

	err := s.WithinRoomLocks(ctx, []string{"101"}, func(ctx context.Context) error {
		return s.WithinRoomLocks(ctx, []string{"101", "102"}, func(ctx context.Context) error {
			return s.Rooms().UpdateStatus(ctx, "102", constants.RoomStatusBlocked, nil, time.Now())
		})
	})
	require.NoError(t, err)

	room, err := s.Rooms().GetByNumber(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, constants.RoomStatusBlocked, room.Status)
}

func TestWithinRoomLocks_CancelledWhileWaiting(t *testing.T) {
	s := NewStore()
	seedRoom(t, s, "101")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithinRoomLocks(context.Background(), []string{"101"}, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithinRoomLocks(ctx, []string{"101"}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestWithinRoomLocks_ExpiredContextRollsBack(t *testing.T) {
	s := NewStore()
	seedRoom(t, s, "101")

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinRoomLocks(ctx, []string{"101"}, func(ctx context.Context) error {
		require.NoError(t, s.Bookings().Create(ctx, &models.Booking{ID: "b1", RoomNumber: "101"}))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Bookings().GetByID(context.Background(), "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindOverlapping_InclusiveFetch(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")
	seedRoom(t, s, "102")

	bookings := []models.Booking{
		{ID: "touching-before", RoomNumber: "101", Status: constants.BookingStatusConfirmed, CheckIn: date("2024-07-10"), CheckOut: date("2024-07-15")},
		{ID: "inside", RoomNumber: "101", Status: constants.BookingStatusConfirmed, CheckIn: date("2024-07-16"), CheckOut: date("2024-07-17")},
		{ID: "cancelled", RoomNumber: "101", Status: constants.BookingStatusCancelled, CheckIn: date("2024-07-16"), CheckOut: date("2024-07-17")},
		{ID: "other-room", RoomNumber: "102", Status: constants.BookingStatusConfirmed, CheckIn: date("2024-07-16"), CheckOut: date("2024-07-17")},
		{ID: "after", RoomNumber: "101", Status: constants.BookingStatusConfirmed, CheckIn: date("2024-07-19"), CheckOut: date("2024-07-20")},
	}
	for i := range bookings {
		require.NoError(t, s.Bookings().Create(ctx, &bookings[i]))
	}

	got, err := s.Bookings().FindOverlapping(ctx, []string{"101"}, date("2024-07-15"), date("2024-07-18"), []string{constants.BookingStatusConfirmed})
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, b := range got {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"touching-before", "inside"}, ids)
}

func TestListByStatus_Filters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created := date("2024-07-01")
	for i, checkIn := range []string{"2024-07-10", "2024-07-12", "2024-07-20"} {
		require.NoError(t, s.Bookings().Create(ctx, &models.Booking{
			ID:        string(rune('a' + i)),
			Status:    constants.BookingStatusConfirmed,
			CheckIn:   date(checkIn),
			CreatedAt: created.Add(time.Duration(i) * time.Hour),
		}))
	}

	cutoff := date("2024-07-15")
	got, err := s.Bookings().ListByStatus(ctx, constants.BookingStatusConfirmed, repository.BookingListOptions{CheckInBefore: &cutoff})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Bookings().ListByStatus(ctx, constants.BookingStatusConfirmed, repository.BookingListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestCountOccupancy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "101")
	seedRoom(t, s, "102")
	require.NoError(t, s.Rooms().Save(ctx, &models.Room{RoomNumber: "103", Status: constants.RoomStatusOccupied, IsActive: false}))
	require.NoError(t, s.Rooms().UpdateStatus(ctx, "101", constants.RoomStatusOccupied, nil, time.Now()))

	occupied, active, err := s.Rooms().CountOccupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, occupied)
	assert.Equal(t, 2, active)
}

func TestRoomList_Query(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoom(t, s, "102")
	seedRoom(t, s, "101")
	require.NoError(t, s.Rooms().Save(ctx, &models.Room{RoomNumber: "201", Type: "SUITE", MaxOccupancy: 4, IsActive: true, Status: constants.RoomStatusOutOfOrder}))

	rooms, err := s.Rooms().List(ctx, repository.RoomQuery{ActiveOnly: true, MinOccupancy: 2})
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "101", rooms[0].RoomNumber)

	rooms, err = s.Rooms().List(ctx, repository.RoomQuery{MinOccupancy: 3, ExcludeStatuses: []string{constants.RoomStatusOutOfOrder}})
	require.NoError(t, err)
	assert.Empty(t, rooms)

	rooms, err = s.Rooms().List(ctx, repository.RoomQuery{Type: "SUITE"})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
