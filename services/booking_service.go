package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"roominventory/builders"
	"roominventory/constants"
	"roominventory/dto"
	"roominventory/errors"
	"roominventory/models"
	"roominventory/repository"
	"roominventory/services/logger"
	"roominventory/services/notification"
	"roominventory/utils"
	"roominventory/validator"
)

// AvailabilityChecker là phần của AvailabilityService mà luồng booking cần
type AvailabilityChecker interface {
	FindConflicts(ctx context.Context, roomNumbers []string, checkIn, checkOut time.Time, excludeID string) ([]models.Booking, error)
	CurrentOccupancy(ctx context.Context) (float64, error)
	InvalidateRooms(ctx context.Context, roomNumbers ...string)
	InvalidateRoomStatus(ctx context.Context, roomNumbers ...string)
}

// RoomInventory là phần của RoomStatusService mà luồng booking cần.
// Các hàm được gọi khi đang giữ khoá phòng.
type RoomInventory interface {
	ApplyTransition(ctx context.Context, req dto.RoomStatusUpdateRequest) (*models.Room, *models.StatusEvent, error)
	RecordBookingEvent(ctx context.Context, roomNumber, bookingID, actor, reason string) error
}

type BookingService struct {
	tx             repository.TxManager
	bookings       repository.BookingRepository
	rooms          repository.RoomRepository
	availability   AvailabilityChecker
	rates          RateCalculator
	inventory      RoomInventory
	publisher      notification.Publisher
	idempotency    IdempotencyStore
	logger         logger.Logger
	metrics        *Metrics
	timeout        time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
}

type BookingServiceOptions struct {
	TxManager      repository.TxManager
	Bookings       repository.BookingRepository
	Rooms          repository.RoomRepository
	Availability   AvailabilityChecker
	Rates          RateCalculator
	Inventory      RoomInventory
	Publisher      notification.Publisher
	Idempotency    IdempotencyStore
	Logger         logger.Logger
	Metrics        *Metrics
	Timeout        time.Duration
	IdempotencyTTL time.Duration
	Clock          func() time.Time
}

func NewBookingService(opts BookingServiceOptions) *BookingService {
	if opts.Publisher == nil {
		opts.Publisher = notification.NopPublisher{}
	}
	if opts.Idempotency == nil {
		opts.Idempotency = NoopIdempotencyStore{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultBookingTimeout
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &BookingService{
		tx:             opts.TxManager,
		bookings:       opts.Bookings,
		rooms:          opts.Rooms,
		availability:   opts.Availability,
		rates:          opts.Rates,
		inventory:      opts.Inventory,
		publisher:      opts.Publisher,
		idempotency:    opts.Idempotency,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		timeout:        opts.Timeout,
		idempotencyTTL: opts.IdempotencyTTL,
		now:            opts.Clock,
	}
}

// Create giữ phòng và tạo booking (mặc định PENDING) trong một unit of work theo khoá phòng.
// Khi có IdempotencyKey, gọi lại với cùng key trả về booking đã tạo.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := validator.ValidateCreateBooking(&req); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	var lockAcquired, committed bool
	if key != "" {
		existing, err := s.claimIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		lockAcquired = true
	}
	defer func() {
		if lockAcquired && !committed {
			if err := s.idempotency.Del(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn("release idempotency key %s failed: %v", key, err)
			}
		}
	}()

	var (
		booking *models.Booking
		events  []models.StatusEvent
	)
	err := s.withTimeout(ctx, []string{req.RoomNumber}, func(ctx context.Context) error {
		b, ev, err := s.reserve(ctx, req)
		booking, events = b, ev
		return err
	})
	if err != nil {
		return nil, err
	}

	committed = true
	if key != "" {
		if err := s.idempotency.Set(context.WithoutCancel(ctx), key, booking.ID, s.idempotencyTTL); err != nil {
			s.logger.Warn("store idempotency key %s failed: %v", key, err)
		}
	}
	s.afterCommit(ctx, []string{booking.RoomNumber}, events)
	s.metrics.BookingCreated(ctx, booking.Channel)
	s.logger.Info("booking %s created for room %s (%s..%s)", booking.ID, booking.RoomNumber,
		utils.FormatDate(booking.CheckIn), utils.FormatDate(booking.CheckOut))
	return booking, nil
}

// CreateBatch tạo nhiều booking: kiểm tra toàn bộ trước, lỗi ở bất kỳ booking nào thì không booking nào được ghi.
// IdempotencyKey của từng request không được dùng ở đây.
func (s *BookingService) CreateBatch(ctx context.Context, reqs []dto.CreateBookingRequest) ([]*models.Booking, error) {
	if len(reqs) == 0 {
		return nil, errors.Validation("batch must contain at least one booking")
	}
	rooms := make([]string, 0, len(reqs))
	for i := range reqs {
		if err := validator.ValidateCreateBooking(&reqs[i]); err != nil {
			return nil, withIndex(err, i)
		}
		rooms = append(rooms, reqs[i].RoomNumber)
	}

	var (
		created []*models.Booking
		events  []models.StatusEvent
	)
	err := s.withTimeout(ctx, rooms, func(ctx context.Context) error {
		created, events = nil, nil
		for i := range reqs {
			for j := 0; j < i; j++ {
				if reqs[j].RoomNumber == reqs[i].RoomNumber &&
					utils.RangesOverlap(utils.DateOnly(reqs[j].CheckIn), utils.DateOnly(reqs[j].CheckOut),
						utils.DateOnly(reqs[i].CheckIn), utils.DateOnly(reqs[i].CheckOut)) {
					s.metrics.BookingConflict(ctx, reqs[i].RoomNumber)
					return errors.NewAppError(errors.ErrCodeConflict, "bookings in the batch overlap", errors.ErrRoomNotAvailable).
						With("room", reqs[i].RoomNumber).
						With("index", strconv.Itoa(i)).
						With("conflictsWith", strconv.Itoa(j))
				}
			}
		}
		for i := range reqs {
			if _, err := s.checkRoom(ctx, reqs[i], ""); err != nil {
				return withIndex(err, i)
			}
		}
		for i := range reqs {
			b, ev, err := s.reserve(ctx, reqs[i])
			if err != nil {
				return withIndex(err, i)
			}
			created = append(created, b)
			events = append(events, ev...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rooms, events)
	for _, b := range created {
		s.metrics.BookingCreated(ctx, b.Channel)
	}
	s.logger.Info("batch of %d bookings created", len(created))
	return created, nil
}

func (s *BookingService) Confirm(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error) {
	return s.transition(ctx, req, constants.BookingStatusConfirmed)
}

// Cancel huỷ booking và nhả phòng
func (s *BookingService) Cancel(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error) {
	return s.transition(ctx, req, constants.BookingStatusCancelled)
}

// CheckIn chuyển phòng sang OCCUPIED
func (s *BookingService) CheckIn(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error) {
	return s.transition(ctx, req, constants.BookingStatusCheckedIn)
}

// CheckOut chuyển phòng sang CLEANING
func (s *BookingService) CheckOut(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error) {
	return s.transition(ctx, req, constants.BookingStatusCheckedOut)
}

func (s *BookingService) MarkNoShow(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error) {
	return s.transition(ctx, req, constants.BookingStatusNoShow)
}

// Update áp dụng các trường được gửi lên và ghi một audit chứa field-diff.
// Đổi ngày chỉ được phép trước khi check-in, khi đó giá được tính lại.
func (s *BookingService) Update(ctx context.Context, req dto.UpdateBookingRequest) (*models.Booking, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	current, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, wrapStoreError(err, "booking", req.BookingID)
	}

	var (
		booking *models.Booking
		events  []models.StatusEvent
	)
	err = s.tx.WithinRoomLocks(ctx, []string{current.RoomNumber}, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return wrapStoreError(err, "booking", req.BookingID)
		}
		previous := b.Status
		diff := models.FieldDiff{}

		if req.CheckIn != nil || req.CheckOut != nil {
			if err := s.reschedule(ctx, b, req, diff); err != nil {
				return err
			}
		}
		if req.Guests != nil && *req.Guests != b.Guests {
			if models.IsTerminalBookingStatus(b.Status) {
				return errors.InvalidOperation("cannot change guests of a closed booking").With("booking", b.ID).With("status", b.Status)
			}
			room, err := s.rooms.GetByNumber(ctx, b.RoomNumber)
			if err != nil {
				return wrapStoreError(err, "room", b.RoomNumber)
			}
			if *req.Guests > room.MaxOccupancy {
				return errors.BusinessRule("guest count exceeds room capacity").
					With("room", room.RoomNumber).
					With("maxOccupancy", strconv.Itoa(room.MaxOccupancy))
			}
			diff.Record("guests", strconv.Itoa(b.Guests), strconv.Itoa(*req.Guests))
			b.Guests = *req.Guests
		}
		if req.PaymentStatus != nil {
			diff.Record("paymentStatus", b.PaymentStatus, *req.PaymentStatus)
			b.PaymentStatus = *req.PaymentStatus
		}
		if req.Notes != nil {
			diff.Record("notes", b.Notes, *req.Notes)
			b.Notes = *req.Notes
		}
		if req.Status != nil && *req.Status != b.Status {
			ev, err := s.applyStatus(ctx, b, *req.Status, req.Actor, req.Reason)
			if err != nil {
				return err
			}
			events = append(events, ev...)
			diff.Record("status", previous, b.Status)
		}

		if len(diff) == 0 {
			booking = b
			return nil
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, b); err != nil {
			return wrapStoreError(err, "booking", b.ID)
		}
		if err := s.appendAudit(ctx, b.ID, req.Actor, constants.AuditActionUpdated, req.Reason, diff); err != nil {
			return err
		}
		if previous != b.Status {
			events = append(events, s.bookingEvent(b, previous, req.Actor, req.Reason))
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err, "booking", req.BookingID)
	}
	s.afterCommit(ctx, []string{booking.RoomNumber}, events)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "booking", id)
	}
	return b, nil
}

func (s *BookingService) ListByRoom(ctx context.Context, roomNumber string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByRoom(ctx, roomNumber)
	return bookings, wrapStoreError(err, "room", roomNumber)
}

// History nhật ký thay đổi của booking theo thứ tự ghi
func (s *BookingService) History(ctx context.Context, id string) ([]models.BookingAudit, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	audits, err := s.bookings.ListAudits(ctx, id)
	return audits, wrapStoreError(err, "booking", id)
}

// SweepNoShows chuyển booking CONFIRMED có ngày check-in trước asOf sang NO_SHOW
func (s *BookingService) SweepNoShows(ctx context.Context, asOf time.Time) (int, error) {
	cutoff := utils.DateOnly(asOf)
	due, err := s.bookings.ListByStatus(ctx, constants.BookingStatusConfirmed, repository.BookingListOptions{CheckInBefore: &cutoff})
	if err != nil {
		return 0, wrapStoreError(err, "booking", "")
	}
	count := 0
	for _, b := range due {
		_, err := s.MarkNoShow(ctx, dto.BookingActionRequest{BookingID: b.ID, Actor: constants.ActorNoShowSweeper, Reason: "guest did not arrive"})
		if err != nil {
			s.logger.Warn("no-show sweep skipped booking %s: %v", b.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

// ExpireHolds huỷ booking ON_HOLD được tạo trước olderThan
func (s *BookingService) ExpireHolds(ctx context.Context, olderThan time.Time) (int, error) {
	due, err := s.bookings.ListByStatus(ctx, constants.BookingStatusOnHold, repository.BookingListOptions{CreatedBefore: &olderThan})
	if err != nil {
		return 0, wrapStoreError(err, "booking", "")
	}
	count := 0
	for _, b := range due {
		_, err := s.Cancel(ctx, dto.BookingActionRequest{BookingID: b.ID, Actor: constants.ActorHoldExpirer, Reason: "hold expired"})
		if err != nil {
			s.logger.Warn("hold expiry skipped booking %s: %v", b.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *BookingService) transition(ctx context.Context, req dto.BookingActionRequest, target string) (*models.Booking, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	current, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, wrapStoreError(err, "booking", req.BookingID)
	}

	var (
		booking *models.Booking
		events  []models.StatusEvent
	)
	err = s.tx.WithinRoomLocks(ctx, []string{current.RoomNumber}, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return wrapStoreError(err, "booking", req.BookingID)
		}
		previous := b.Status
		ev, err := s.applyStatus(ctx, b, target, req.Actor, req.Reason)
		if err != nil {
			return err
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, b); err != nil {
			return wrapStoreError(err, "booking", b.ID)
		}
		diff := models.FieldDiff{}
		diff.Record("status", previous, target)
		if err := s.appendAudit(ctx, b.ID, req.Actor, constants.AuditActionStatusChanged, req.Reason, diff); err != nil {
			return err
		}
		events = append(ev, s.bookingEvent(b, previous, req.Actor, req.Reason))
		booking = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err, "booking", req.BookingID)
	}
	s.afterCommit(ctx, []string{booking.RoomNumber}, events)
	return booking, nil
}

// applyStatus kiểm tra bảng chuyển trạng thái rồi áp dụng tác động lên phòng.
// Trả về các event phòng cần phát sau commit.
func (s *BookingService) applyStatus(ctx context.Context, b *models.Booking, target, actor, reason string) ([]models.StatusEvent, error) {
	if !models.CanBookingTransition(b.Status, target) {
		return nil, errors.InvalidOperation(fmt.Sprintf("cannot move booking from %s to %s", b.Status, target)).
			With("booking", b.ID).
			With("from", b.Status).
			With("to", target)
	}

	var events []models.StatusEvent
	switch target {
	case constants.BookingStatusCheckedIn:
		room, err := s.rooms.GetByNumber(ctx, b.RoomNumber)
		if err != nil {
			return nil, wrapStoreError(err, "room", b.RoomNumber)
		}
		if room.Status == constants.RoomStatusOccupied {
			return nil, errors.NewAppError(errors.ErrCodeConflict, "room is already occupied", errors.ErrRoomNotAvailable).
				With("room", room.RoomNumber).
				With("booking", b.ID)
		}
		_, ev, err := s.inventory.ApplyTransition(ctx, dto.RoomStatusUpdateRequest{
			RoomNumber:    b.RoomNumber,
			CurrentStatus: room.Status,
			TargetStatus:  constants.RoomStatusOccupied,
			Reason:        constants.ReasonCheckIn,
			Actor:         actor,
			BookingID:     b.ID,
		})
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	case constants.BookingStatusCheckedOut:
		room, err := s.rooms.GetByNumber(ctx, b.RoomNumber)
		if err != nil {
			return nil, wrapStoreError(err, "room", b.RoomNumber)
		}
		if room.Status == constants.RoomStatusOccupied {
			_, ev, err := s.inventory.ApplyTransition(ctx, dto.RoomStatusUpdateRequest{
				RoomNumber:    b.RoomNumber,
				CurrentStatus: room.Status,
				TargetStatus:  constants.RoomStatusCleaning,
				Reason:        constants.ReasonCleaningRequired,
				Actor:         actor,
				BookingID:     b.ID,
			})
			if err != nil {
				return nil, err
			}
			if ev != nil {
				events = append(events, *ev)
			}
		}
	case constants.BookingStatusCancelled, constants.BookingStatusNoShow:
		if err := s.inventory.RecordBookingEvent(ctx, b.RoomNumber, b.ID, actor, constants.ReasonBookingReleased); err != nil {
			return nil, err
		}
	}

	s.metrics.BookingTransition(ctx, b.Status, target)
	b.Status = target
	return events, nil
}

// reschedule đổi ngày ở và tính lại giá, bỏ qua chính booking này khi kiểm tra trùng
func (s *BookingService) reschedule(ctx context.Context, b *models.Booking, req dto.UpdateBookingRequest, diff models.FieldDiff) error {
	if !models.IsBlockingStatus(b.Status) || b.Status == constants.BookingStatusCheckedIn {
		return errors.InvalidOperation("dates can only be changed before check-in").
			With("booking", b.ID).
			With("status", b.Status)
	}
	checkIn, checkOut := b.CheckIn, b.CheckOut
	if req.CheckIn != nil {
		checkIn = utils.DateOnly(*req.CheckIn)
	}
	if req.CheckOut != nil {
		checkOut = utils.DateOnly(*req.CheckOut)
	}
	if checkIn.Equal(b.CheckIn) && checkOut.Equal(b.CheckOut) {
		return nil
	}
	if err := validator.ValidateDateRange(checkIn, checkOut); err != nil {
		return err
	}
	room, err := s.rooms.GetByNumber(ctx, b.RoomNumber)
	if err != nil {
		return wrapStoreError(err, "room", b.RoomNumber)
	}
	if err := s.ensureBookable(ctx, room, checkIn, checkOut, b.ID); err != nil {
		return err
	}
	nightly, err := s.price(ctx, b.RateID, checkIn, checkOut, b.Channel)
	if err != nil {
		return err
	}

	diff.Record("checkIn", utils.FormatDate(b.CheckIn), utils.FormatDate(checkIn))
	diff.Record("checkOut", utils.FormatDate(b.CheckOut), utils.FormatDate(checkOut))
	b.CheckIn, b.CheckOut = checkIn, checkOut
	b.NightlyRate = nightly
	total := utils.Round2(nightly * float64(b.Nights()))
	diff.Record("totalAmount", strconv.FormatFloat(b.TotalAmount, 'f', 2, 64), strconv.FormatFloat(total, 'f', 2, 64))
	b.TotalAmount = total
	return nil
}

// reserve phải chạy khi đang giữ khoá phòng của req
func (s *BookingService) reserve(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, []models.StatusEvent, error) {
	room, err := s.checkRoom(ctx, req, "")
	if err != nil {
		return nil, nil, err
	}
	rateID := req.RateID
	if rateID == "" {
		rateID = room.RateID
	}
	nightly, err := s.price(ctx, rateID, req.CheckIn, req.CheckOut, req.Channel)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	builder := builders.NewBookingBuilder()
	if req.InitialStatus != "" {
		builder.WithStatus(req.InitialStatus)
	}
	booking := builder.
		WithGuest(req.GuestID, req.Guests).
		WithRoom(room.RoomNumber, rateID).
		WithStay(req.CheckIn, req.CheckOut).
		WithChannel(req.Channel).
		WithPrice(nightly).
		WithIdempotencyKey(req.IdempotencyKey).
		WithNotes(req.Notes).
		WithTimestamps(now).
		Build()

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, nil, wrapStoreError(err, "booking", booking.ID)
	}
	diff := models.FieldDiff{}
	diff.Record("status", "", booking.Status)
	diff.Record("checkIn", "", utils.FormatDate(booking.CheckIn))
	diff.Record("checkOut", "", utils.FormatDate(booking.CheckOut))
	diff.Record("totalAmount", "", strconv.FormatFloat(booking.TotalAmount, 'f', 2, 64))
	if err := s.appendAudit(ctx, booking.ID, req.Actor, constants.AuditActionCreated, "", diff); err != nil {
		return nil, nil, err
	}
	if err := s.inventory.RecordBookingEvent(ctx, room.RoomNumber, booking.ID, req.Actor, constants.ReasonBookingHold); err != nil {
		return nil, nil, err
	}
	return booking, []models.StatusEvent{s.bookingEvent(booking, "", req.Actor, constants.AuditActionCreated)}, nil
}

// checkRoom kiểm tra phòng nhận được booking req
func (s *BookingService) checkRoom(ctx context.Context, req dto.CreateBookingRequest, excludeID string) (*models.Room, error) {
	room, err := s.rooms.GetByNumber(ctx, req.RoomNumber)
	if err != nil {
		return nil, wrapStoreError(err, "room", req.RoomNumber)
	}
	if !room.IsActive {
		return nil, errors.BusinessRule("room is not active").With("room", room.RoomNumber)
	}
	if req.Guests > room.MaxOccupancy {
		return nil, errors.BusinessRule("guest count exceeds room capacity").
			With("room", room.RoomNumber).
			With("maxOccupancy", strconv.Itoa(room.MaxOccupancy))
	}
	if err := s.ensureBookable(ctx, room, req.CheckIn, req.CheckOut, excludeID); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *BookingService) ensureBookable(ctx context.Context, room *models.Room, checkIn, checkOut time.Time, excludeID string) error {
	if room.Status == constants.RoomStatusOutOfOrder {
		return errors.NewAppError(errors.ErrCodeConflict, "room is out of order", errors.ErrRoomNotAvailable).
			With("room", room.RoomNumber)
	}
	for _, day := range utils.Days(checkIn, checkOut) {
		if room.UnderMaintenanceOn(day) {
			return errors.NewAppError(errors.ErrCodeConflict, "room is under maintenance", errors.ErrRoomNotAvailable).
				With("room", room.RoomNumber).
				With("date", utils.FormatDate(day))
		}
	}
	conflicts, err := s.availability.FindConflicts(ctx, []string{room.RoomNumber}, checkIn, checkOut, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		s.metrics.BookingConflict(ctx, room.RoomNumber)
		return errors.NewAppError(errors.ErrCodeConflict, "room is not available for the requested dates", errors.ErrRoomNotAvailable).
			With("room", room.RoomNumber).
			With("conflictingBooking", c.ID).
			With("conflictCheckIn", utils.FormatDate(c.CheckIn)).
			With("conflictCheckOut", utils.FormatDate(c.CheckOut))
	}
	return nil
}

func (s *BookingService) price(ctx context.Context, rateID string, checkIn, checkOut time.Time, channel string) (float64, error) {
	if rateID == "" {
		return 0, errors.Validation("rate is required")
	}
	occupancy, err := s.availability.CurrentOccupancy(ctx)
	if err != nil {
		return 0, err
	}
	return s.rates.CalculateRate(ctx, rateID, checkIn, checkOut, occupancy, channel)
}

// withTimeout chạy fn trong khoá các phòng với thời hạn s.timeout; quá hạn thì huỷ toàn bộ và trả lỗi có thể thử lại
func (s *BookingService) withTimeout(ctx context.Context, rooms []string, fn func(ctx context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinRoomLocks(tctx, rooms, fn)
	if err == nil {
		return nil
	}
	if stderrors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		appErr := errors.Internal("booking creation timed out", errors.ErrBookingTimeout)
		appErr.Retryable = true
		return appErr
	}
	return wrapStoreError(err, "room", firstOf(rooms))
}

func (s *BookingService) claimIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	locked, err := s.idempotency.SetNX(ctx, key, idempotencyProcessing, s.idempotencyTTL)
	if err != nil {
		return nil, errors.Internal("idempotency store unavailable", err)
	}
	if locked {
		return nil, nil
	}
	existingID, err := s.idempotency.Get(ctx, key)
	if err != nil && !stderrors.Is(err, ErrIdempotencyKeyNotFound) {
		return nil, errors.Internal("idempotency store unavailable", err)
	}
	if err != nil || existingID == idempotencyProcessing {
		// key kẹt ở "processing" khi lần ghi id sau commit bị lỗi: tìm lại booking theo key
		booking, findErr := s.bookings.FindByIdempotencyKey(ctx, key)
		if findErr == nil {
			if err := s.idempotency.Set(ctx, key, booking.ID, s.idempotencyTTL); err != nil {
				s.logger.Warn("repair idempotency key %s failed: %v", key, err)
			}
			return booking, nil
		}
		if !stderrors.Is(findErr, repository.ErrNotFound) {
			return nil, wrapStoreError(findErr, "booking", "")
		}
		appErr := errors.NewAppError(errors.ErrCodeConflict, "a request with this idempotency key is in progress", errors.ErrIdempotencyInUse).
			With("idempotencyKey", key)
		appErr.Retryable = true
		return nil, appErr
	}
	booking, err := s.bookings.GetByID(ctx, existingID)
	if err != nil {
		return nil, wrapStoreError(err, "booking", existingID)
	}
	return booking, nil
}

func (s *BookingService) appendAudit(ctx context.Context, bookingID, actor, action, reason string, diff models.FieldDiff) error {
	audit := &models.BookingAudit{
		BookingID: bookingID,
		Actor:     actor,
		Action:    action,
		Reason:    reason,
		Changes:   diff,
		CreatedAt: s.now(),
	}
	return wrapStoreError(s.bookings.AppendAudit(ctx, audit), "booking", bookingID)
}

func (s *BookingService) bookingEvent(b *models.Booking, previous, actor, reason string) models.StatusEvent {
	return models.StatusEvent{
		ID:             b.ID,
		Kind:           constants.EventKindBooking,
		PreviousStatus: previous,
		NewStatus:      b.Status,
		Timestamp:      s.now(),
		Actor:          actor,
		Reason:         reason,
	}
}

// afterCommit xoá cache của phòng rồi phát event, lỗi chỉ được log
func (s *BookingService) afterCommit(ctx context.Context, rooms []string, events []models.StatusEvent) {
	rooms = repository.SortedUnique(rooms)
	roomChanged := false
	for _, ev := range events {
		if ev.Kind == constants.EventKindRoom {
			roomChanged = true
		}
	}
	if roomChanged {
		s.availability.InvalidateRoomStatus(ctx, rooms...)
	} else {
		s.availability.InvalidateRooms(ctx, rooms...)
	}
	for _, ev := range events {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
			s.logger.Error("publish %s event for %s failed: %v", ev.Kind, ev.ID, err)
		}
	}
}

func withIndex(err error, i int) error {
	if appErr := errors.GetAppError(err); appErr != nil {
		appErr.With("index", strconv.Itoa(i))
	}
	return err
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
