package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"roominventory/models"
)

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return dbFromContext(ctx, r.db).Omit("Audits").Create(booking).Error
}

func (r *GormBookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	res := dbFromContext(ctx, r.db).Model(booking).
		Select("*").
		Omit("Audits", "ID", "CreatedAt").
		Updates(booking)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := dbFromContext(ctx, r.db).First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *GormBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	var booking models.Booking
	err := dbFromContext(ctx, r.db).
		Where("idempotency_key = ?", key).
		Order("created_at").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *GormBookingRepository) FindOverlapping(ctx context.Context, roomNumbers []string, start, end time.Time, statuses []string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := dbFromContext(ctx, r.db).
		Where("room_number IN ? AND status IN ?", roomNumbers, statuses).
		Where("check_in <= ? AND check_out >= ?", end, start).
		Order("room_number, check_in").
		Find(&bookings).Error
	return bookings, err
}

func (r *GormBookingRepository) ListByRoom(ctx context.Context, roomNumber string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := dbFromContext(ctx, r.db).
		Where("room_number = ?", roomNumber).
		Order("check_in").
		Find(&bookings).Error
	return bookings, err
}

func (r *GormBookingRepository) ListByStatus(ctx context.Context, status string, opts BookingListOptions) ([]models.Booking, error) {
	query := dbFromContext(ctx, r.db).Where("status = ?", status)
	if opts.CheckInBefore != nil {
		query = query.Where("check_in < ?", *opts.CheckInBefore)
	}
	if opts.CreatedBefore != nil {
		query = query.Where("created_at < ?", *opts.CreatedBefore)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var bookings []models.Booking
	err := query.Order("created_at").Find(&bookings).Error
	return bookings, err
}

func (r *GormBookingRepository) AppendAudit(ctx context.Context, audit *models.BookingAudit) error {
	return dbFromContext(ctx, r.db).Create(audit).Error
}

func (r *GormBookingRepository) ListAudits(ctx context.Context, bookingID string) ([]models.BookingAudit, error) {
	var audits []models.BookingAudit
	err := dbFromContext(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at, id").
		Find(&audits).Error
	return audits, err
}
