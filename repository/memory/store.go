// Package memory is an in-process implementation of the repository interfaces.
// Rooms are serialized with per-room semaphores. Writes inside a unit of work are
// staged on the unit and applied together at commit, so other readers only ever
// see committed state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"roominventory/constants"
	"roominventory/models"
	"roominventory/repository"
	"roominventory/utils"
)

var (
	_ repository.TxManager         = (*Store)(nil)
	_ repository.RoomRepository    = (*RoomRepository)(nil)
	_ repository.BookingRepository = (*BookingRepository)(nil)
	_ repository.RateRepository    = (*RateRepository)(nil)
)

type Store struct {
	mu            sync.RWMutex
	rooms         map[string]models.Room
	rates         map[string]models.RateDefinition
	bookings      map[string]models.Booking
	roomAudits    []models.RoomStatusAudit
	bookingAudits []models.BookingAudit
	nextAuditID   uint

	lockMu sync.Mutex
	locks  map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]models.Room),
		rates:    make(map[string]models.RateDefinition),
		bookings: make(map[string]models.Booking),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *Store) Rooms() *RoomRepository       { return &RoomRepository{s: s} }
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }
func (s *Store) Rates() *RateRepository       { return &RateRepository{s: s} }

type uowKey struct{}

// unitOfWork giữ các thay đổi chưa commit; chỉ goroutine sở hữu được dùng nó
type unitOfWork struct {
	held          map[string]bool
	rooms         map[string]models.Room
	rates         map[string]models.RateDefinition
	bookings      map[string]models.Booking
	roomAudits    []models.RoomStatusAudit
	bookingAudits []models.BookingAudit
}

func newUnitOfWork(size int) *unitOfWork {
	return &unitOfWork{
		held:     make(map[string]bool, size),
		rooms:    make(map[string]models.Room),
		rates:    make(map[string]models.RateDefinition),
		bookings: make(map[string]models.Booking),
	}
}

func uowFrom(ctx context.Context) *unitOfWork {
	uow, _ := ctx.Value(uowKey{}).(*unitOfWork)
	return uow
}

func (s *Store) WithinRoomLocks(ctx context.Context, roomNumbers []string, fn func(ctx context.Context) error) error {
	rooms := repository.SortedUnique(roomNumbers)
	outer := uowFrom(ctx)
	if err := s.ensureRooms(outer, rooms); err != nil {
		return err
	}

	if outer != nil {
		for _, n := range rooms {
			if outer.held[n] {
				continue
			}
			if err := s.acquire(ctx, n); err != nil {
				return err
			}
			outer.held[n] = true
		}
		return fn(ctx)
	}

	uow := newUnitOfWork(len(rooms))
	defer func() {
		for n := range uow.held {
			s.release(n)
		}
	}()
	for _, n := range rooms {
		if err := s.acquire(ctx, n); err != nil {
			return err
		}
		uow.held[n] = true
	}

	if err := fn(context.WithValue(ctx, uowKey{}, uow)); err != nil {
		return err
	}
	// a cancelled context makes the commit fail, as it would against a database
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(uow)
	return nil
}

func (s *Store) commit(uow *unitOfWork) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, room := range uow.rooms {
		s.rooms[k] = room
	}
	for k, rate := range uow.rates {
		s.rates[k] = rate
	}
	for k, b := range uow.bookings {
		s.bookings[k] = b
	}
	s.roomAudits = append(s.roomAudits, uow.roomAudits...)
	s.bookingAudits = append(s.bookingAudits, uow.bookingAudits...)
}

func (s *Store) ensureRooms(uow *unitOfWork, rooms []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range rooms {
		if _, ok := s.room(uow, n); !ok {
			return fmt.Errorf("room %s: %w", n, repository.ErrNotFound)
		}
	}
	return nil
}

func (s *Store) acquire(ctx context.Context, room string) error {
	s.lockMu.Lock()
	ch, ok := s.locks[room]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[room] = ch
	}
	s.lockMu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(room string) {
	s.lockMu.Lock()
	ch := s.locks[room]
	s.lockMu.Unlock()
	<-ch
}

// Các hàm đọc/ghi dưới đây phải được gọi khi đang giữ s.mu

func (s *Store) room(uow *unitOfWork, number string) (models.Room, bool) {
	if uow != nil {
		if room, ok := uow.rooms[number]; ok {
			return room, true
		}
	}
	room, ok := s.rooms[number]
	return room, ok
}

func (s *Store) putRoom(uow *unitOfWork, room models.Room) {
	if uow != nil {
		uow.rooms[room.RoomNumber] = room
		return
	}
	s.rooms[room.RoomNumber] = room
}

func (s *Store) eachRoom(uow *unitOfWork, fn func(models.Room)) {
	for k, room := range s.rooms {
		if uow != nil {
			if _, staged := uow.rooms[k]; staged {
				continue
			}
		}
		fn(room)
	}
	if uow != nil {
		for _, room := range uow.rooms {
			fn(room)
		}
	}
}

func (s *Store) booking(uow *unitOfWork, id string) (models.Booking, bool) {
	if uow != nil {
		if b, ok := uow.bookings[id]; ok {
			return b, true
		}
	}
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) putBooking(uow *unitOfWork, b models.Booking) {
	if uow != nil {
		uow.bookings[b.ID] = b
		return
	}
	s.bookings[b.ID] = b
}

func (s *Store) eachBooking(uow *unitOfWork, fn func(models.Booking)) {
	for k, b := range s.bookings {
		if uow != nil {
			if _, staged := uow.bookings[k]; staged {
				continue
			}
		}
		fn(b)
	}
	if uow != nil {
		for _, b := range uow.bookings {
			fn(b)
		}
	}
}

func (s *Store) allRoomAudits(uow *unitOfWork) []models.RoomStatusAudit {
	if uow == nil {
		return s.roomAudits
	}
	return append(append([]models.RoomStatusAudit(nil), s.roomAudits...), uow.roomAudits...)
}

func (s *Store) allBookingAudits(uow *unitOfWork) []models.BookingAudit {
	if uow == nil {
		return s.bookingAudits
	}
	return append(append([]models.BookingAudit(nil), s.bookingAudits...), uow.bookingAudits...)
}

type RoomRepository struct{ s *Store }

func (r *RoomRepository) GetByNumber(ctx context.Context, number string) (*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.room(uowFrom(ctx), number)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (r *RoomRepository) List(ctx context.Context, q repository.RoomQuery) ([]models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	excluded := toSet(q.ExcludeStatuses)
	var rooms []models.Room
	r.s.eachRoom(uowFrom(ctx), func(room models.Room) {
		if q.ActiveOnly && !room.IsActive {
			return
		}
		if q.Type != "" && room.Type != q.Type {
			return
		}
		if q.MinOccupancy > 0 && room.MaxOccupancy < q.MinOccupancy {
			return
		}
		if excluded[room.Status] {
			return
		}
		rooms = append(rooms, *cloneRoom(room))
	})
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms, nil
}

func (r *RoomRepository) Save(ctx context.Context, room *models.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	r.s.putRoom(uowFrom(ctx), *cloneRoom(*room))
	return nil
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, number, status string, window *models.MaintenanceWindow, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	uow := uowFrom(ctx)
	prev, ok := r.s.room(uow, number)
	if !ok {
		return repository.ErrNotFound
	}
	next := *cloneRoom(prev)
	next.Status = status
	next.UpdatedAt = at
	if window != nil {
		start, end := window.Start, window.End
		next.MaintenanceStart, next.MaintenanceEnd = &start, &end
	} else if status == constants.RoomStatusAvailable {
		next.MaintenanceStart, next.MaintenanceEnd = nil, nil
	}
	r.s.putRoom(uow, next)
	return nil
}

func (r *RoomRepository) AppendAudit(ctx context.Context, audit *models.RoomStatusAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAuditID++
	audit.ID = r.s.nextAuditID
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}
	if uow := uowFrom(ctx); uow != nil {
		uow.roomAudits = append(uow.roomAudits, *audit)
		return nil
	}
	r.s.roomAudits = append(r.s.roomAudits, *audit)
	return nil
}

func (r *RoomRepository) ListAudits(ctx context.Context, number string) ([]models.RoomStatusAudit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.RoomStatusAudit
	for _, a := range r.s.allRoomAudits(uowFrom(ctx)) {
		if a.RoomNumber == number {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *RoomRepository) CountOccupancy(ctx context.Context) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var occupied, active int
	r.s.eachRoom(uowFrom(ctx), func(room models.Room) {
		if !room.IsActive {
			return
		}
		active++
		if room.Status == constants.RoomStatusOccupied {
			occupied++
		}
	})
	return occupied, active, nil
}

type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	uow := uowFrom(ctx)
	if _, ok := r.s.booking(uow, booking.ID); ok {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = now
	}
	stored := *booking
	stored.Audits = nil
	r.s.putBooking(uow, stored)
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	uow := uowFrom(ctx)
	prev, ok := r.s.booking(uow, booking.ID)
	if !ok {
		return repository.ErrNotFound
	}
	stored := *booking
	stored.Audits = nil
	stored.CreatedAt = prev.CreatedAt
	r.s.putBooking(uow, stored)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.booking(uowFrom(ctx), id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.Booking
	r.s.eachBooking(uowFrom(ctx), func(b models.Booking) {
		if found == nil && key != "" && b.IdempotencyKey == key {
			found = &b
		}
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, roomNumbers []string, start, end time.Time, statuses []string) ([]models.Booking, error) {
	rooms := toSet(roomNumbers)
	wanted := toSet(statuses)
	start, end = utils.DateOnly(start), utils.DateOnly(end)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Booking
	r.s.eachBooking(uowFrom(ctx), func(b models.Booking) {
		if !rooms[b.RoomNumber] || !wanted[b.Status] {
			return
		}
		if !utils.DateOnly(b.CheckIn).After(end) && !utils.DateOnly(b.CheckOut).Before(start) {
			out = append(out, b)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomNumber != out[j].RoomNumber {
			return out[i].RoomNumber < out[j].RoomNumber
		}
		return out[i].CheckIn.Before(out[j].CheckIn)
	})
	return out, nil
}

func (r *BookingRepository) ListByRoom(ctx context.Context, roomNumber string) ([]models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Booking
	r.s.eachBooking(uowFrom(ctx), func(b models.Booking) {
		if b.RoomNumber == roomNumber {
			out = append(out, b)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status string, opts repository.BookingListOptions) ([]models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Booking
	r.s.eachBooking(uowFrom(ctx), func(b models.Booking) {
		if b.Status != status {
			return
		}
		if opts.CheckInBefore != nil && !b.CheckIn.Before(*opts.CheckInBefore) {
			return
		}
		if opts.CreatedBefore != nil && !b.CreatedAt.Before(*opts.CreatedBefore) {
			return
		}
		out = append(out, b)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *BookingRepository) AppendAudit(ctx context.Context, audit *models.BookingAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAuditID++
	audit.ID = r.s.nextAuditID
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}
	if uow := uowFrom(ctx); uow != nil {
		uow.bookingAudits = append(uow.bookingAudits, *audit)
		return nil
	}
	r.s.bookingAudits = append(r.s.bookingAudits, *audit)
	return nil
}

func (r *BookingRepository) ListAudits(ctx context.Context, bookingID string) ([]models.BookingAudit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.BookingAudit
	for _, a := range r.s.allBookingAudits(uowFrom(ctx)) {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out, nil
}

type RateRepository struct{ s *Store }

func (r *RateRepository) GetByID(ctx context.Context, id string) (*models.RateDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if uow := uowFrom(ctx); uow != nil {
		if rate, ok := uow.rates[id]; ok {
			return &rate, nil
		}
	}
	rate, ok := r.s.rates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rate, nil
}

func (r *RateRepository) Save(ctx context.Context, rate *models.RateDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if uow := uowFrom(ctx); uow != nil {
		uow.rates[rate.ID] = *rate
		return nil
	}
	r.s.rates[rate.ID] = *rate
	return nil
}

func cloneRoom(room models.Room) *models.Room {
	out := room
	if room.Amenities != nil {
		out.Amenities = append(models.StringList(nil), room.Amenities...)
	}
	return &out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
