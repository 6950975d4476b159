package services

import (
	"context"
	"fmt"
	"time"

	"roominventory/constants"
	"roominventory/dto"
	"roominventory/errors"
	"roominventory/models"
	"roominventory/repository"
	"roominventory/services/logger"
	"roominventory/services/notification"
	"roominventory/validator"
)

// BusinessHours giờ làm việc [StartHour, EndHour)
type BusinessHours struct {
	StartHour int
	EndHour   int
}

func (h BusinessHours) Contains(t time.Time) bool {
	return t.Hour() >= h.StartHour && t.Hour() < h.EndHour
}

// RoomStatusService là nơi duy nhất được ghi trạng thái phòng
type RoomStatusService struct {
	tx            repository.TxManager
	rooms         repository.RoomRepository
	publisher     notification.Publisher
	cache         Cache
	logger        logger.Logger
	metrics       *Metrics
	businessHours BusinessHours
	now           func() time.Time
}

type RoomStatusServiceOptions struct {
	TxManager     repository.TxManager
	Rooms         repository.RoomRepository
	Publisher     notification.Publisher
	Cache         Cache
	Logger        logger.Logger
	Metrics       *Metrics
	BusinessHours BusinessHours
	Clock         func() time.Time
}

func NewRoomStatusService(opts RoomStatusServiceOptions) *RoomStatusService {
	if opts.Publisher == nil {
		opts.Publisher = notification.NopPublisher{}
	}
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.BusinessHours == (BusinessHours{}) {
		opts.BusinessHours = BusinessHours{StartHour: 8, EndHour: 20}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &RoomStatusService{
		tx:            opts.TxManager,
		rooms:         opts.Rooms,
		publisher:     opts.Publisher,
		cache:         opts.Cache,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		businessHours: opts.BusinessHours,
		now:           opts.Clock,
	}
}

func (s *RoomStatusService) ValidateTransition(current, target string) bool {
	return models.CanRoomTransition(current, target)
}

// UpdateStatus đổi trạng thái phòng trong vùng khoá của phòng.
// Trạng thái được kiểm tra lại theo giá trị đang lưu, không theo giá trị người gọi gửi lên.
func (s *RoomStatusService) UpdateStatus(ctx context.Context, req dto.RoomStatusUpdateRequest) (*models.Room, error) {
	var (
		room  *models.Room
		event *models.StatusEvent
	)
	err := s.tx.WithinRoomLocks(ctx, []string{req.RoomNumber}, func(ctx context.Context) error {
		var err error
		room, event, err = s.ApplyTransition(ctx, req)
		return err
	})
	if err != nil {
		return nil, wrapStoreError(err, "room", req.RoomNumber)
	}
	if event != nil {
		invalidateRooms(ctx, s.cache, s.logger, true, req.RoomNumber)
		s.publish(ctx, *event)
	}
	return room, nil
}

// ApplyTransition phải được gọi khi đang giữ khoá phòng.
// Trả về event nil nếu phòng đã ở trạng thái đích.
func (s *RoomStatusService) ApplyTransition(ctx context.Context, req dto.RoomStatusUpdateRequest) (*models.Room, *models.StatusEvent, error) {
	if err := validator.ValidateRoomStatusUpdate(&req); err != nil {
		return nil, nil, err
	}
	now := s.now()
	if req.Timestamp.IsZero() {
		req.Timestamp = now
	}
	if req.RequireBusinessHours && !s.businessHours.Contains(req.Timestamp) {
		return nil, nil, errors.BusinessRule("status change is only allowed during business hours").
			With("room", req.RoomNumber).
			With("timestamp", req.Timestamp.Format(time.RFC3339))
	}
	var window *models.MaintenanceWindow
	if req.TargetStatus == constants.RoomStatusMaintenance {
		if err := validator.ValidateMaintenanceWindow(req.MaintenanceWindow, now); err != nil {
			if appErr := errors.GetAppError(err); appErr != nil {
				appErr.With("room", req.RoomNumber)
			}
			return nil, nil, err
		}
		window = req.MaintenanceWindow
	}

	room, err := s.rooms.GetByNumber(ctx, req.RoomNumber)
	if err != nil {
		return nil, nil, wrapStoreError(err, "room", req.RoomNumber)
	}
	previous := room.Status
	if previous == req.TargetStatus {
		return room, nil, nil
	}
	if req.CurrentStatus != "" && req.CurrentStatus != previous {
		return nil, nil, errors.Conflict("room status changed concurrently").
			With("room", req.RoomNumber).
			With("expected", req.CurrentStatus).
			With("actual", previous)
	}
	if !models.CanRoomTransition(previous, req.TargetStatus) {
		return nil, nil, errors.InvalidOperation(fmt.Sprintf("cannot move room from %s to %s", previous, req.TargetStatus)).
			With("room", req.RoomNumber).
			With("from", previous).
			With("to", req.TargetStatus)
	}

	if err := s.rooms.UpdateStatus(ctx, req.RoomNumber, req.TargetStatus, window, req.Timestamp); err != nil {
		return nil, nil, wrapStoreError(err, "room", req.RoomNumber)
	}
	audit := &models.RoomStatusAudit{
		RoomNumber:     req.RoomNumber,
		PreviousStatus: previous,
		NewStatus:      req.TargetStatus,
		Reason:         req.Reason,
		Actor:          req.Actor,
		BookingID:      req.BookingID,
		CreatedAt:      req.Timestamp,
	}
	if err := s.rooms.AppendAudit(ctx, audit); err != nil {
		return nil, nil, wrapStoreError(err, "room", req.RoomNumber)
	}

	room.Status = req.TargetStatus
	room.UpdatedAt = req.Timestamp
	if window != nil {
		room.MaintenanceStart, room.MaintenanceEnd = &window.Start, &window.End
	} else if req.TargetStatus == constants.RoomStatusAvailable {
		room.MaintenanceStart, room.MaintenanceEnd = nil, nil
	}
	s.metrics.RoomTransition(ctx, previous, req.TargetStatus)
	return room, &models.StatusEvent{
		ID:             req.RoomNumber,
		Kind:           constants.EventKindRoom,
		PreviousStatus: previous,
		NewStatus:      req.TargetStatus,
		Timestamp:      req.Timestamp,
		Actor:          req.Actor,
		Reason:         req.Reason,
	}, nil
}

// RecordBookingEvent ghi vết giữ/nhả phòng cho booking mà không đổi trạng thái vật lý.
// Gọi trong cùng unit of work với thao tác booking.
func (s *RoomStatusService) RecordBookingEvent(ctx context.Context, roomNumber, bookingID, actor, reason string) error {
	room, err := s.rooms.GetByNumber(ctx, roomNumber)
	if err != nil {
		return wrapStoreError(err, "room", roomNumber)
	}
	audit := &models.RoomStatusAudit{
		RoomNumber:     roomNumber,
		PreviousStatus: room.Status,
		NewStatus:      room.Status,
		Reason:         reason,
		Actor:          actor,
		BookingID:      bookingID,
		CreatedAt:      s.now(),
	}
	return wrapStoreError(s.rooms.AppendAudit(ctx, audit), "room", roomNumber)
}

func (s *RoomStatusService) History(ctx context.Context, roomNumber string) ([]models.RoomStatusAudit, error) {
	audits, err := s.rooms.ListAudits(ctx, roomNumber)
	return audits, wrapStoreError(err, "room", roomNumber)
}

// Publish gửi event, lỗi chỉ được log
func (s *RoomStatusService) Publish(ctx context.Context, event models.StatusEvent) {
	s.publish(ctx, event)
}

func (s *RoomStatusService) publish(ctx context.Context, event models.StatusEvent) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("publish %s event for %s failed: %v", event.Kind, event.ID, err)
	}
}
