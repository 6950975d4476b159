package builders

import (
	"time"

	"github.com/google/uuid"

	"roominventory/constants"
	"roominventory/models"
	"roominventory/utils"
)

// BookingBuilder giúp tạo booking theo từng bước
type BookingBuilder struct {
	booking *models.Booking
}

// NewBookingBuilder tạo booking mới với id ngẫu nhiên, trạng thái PENDING và chưa thanh toán
func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		booking: &models.Booking{
			ID:            uuid.NewString(),
			Status:        constants.BookingStatusPending,
			PaymentStatus: constants.PaymentStatusUnpaid,
			Channel:       constants.ChannelDirect,
		},
	}
}

// WithGuest thêm mã khách
func (b *BookingBuilder) WithGuest(guestID string, guests int) *BookingBuilder {
	b.booking.GuestID = guestID
	b.booking.Guests = guests
	return b
}

// WithRoom thêm phòng và bảng giá
func (b *BookingBuilder) WithRoom(roomNumber, rateID string) *BookingBuilder {
	b.booking.RoomNumber = roomNumber
	b.booking.RateID = rateID
	return b
}

// WithStay thêm ngày check-in, check-out
func (b *BookingBuilder) WithStay(checkIn, checkOut time.Time) *BookingBuilder {
	b.booking.CheckIn = utils.DateOnly(checkIn)
	b.booking.CheckOut = utils.DateOnly(checkOut)
	return b
}

func (b *BookingBuilder) WithChannel(channel string) *BookingBuilder {
	if channel != "" {
		b.booking.Channel = channel
	}
	return b
}

// WithStatus thêm trạng thái
func (b *BookingBuilder) WithStatus(status string) *BookingBuilder {
	b.booking.Status = status
	return b
}

// WithPrice tính tổng tiền theo giá một đêm
func (b *BookingBuilder) WithPrice(nightlyRate float64) *BookingBuilder {
	b.booking.NightlyRate = nightlyRate
	b.booking.TotalAmount = utils.Round2(nightlyRate * float64(b.booking.Nights()))
	return b
}

func (b *BookingBuilder) WithIdempotencyKey(key string) *BookingBuilder {
	b.booking.IdempotencyKey = key
	return b
}

func (b *BookingBuilder) WithNotes(notes string) *BookingBuilder {
	b.booking.Notes = notes
	return b
}

// WithTimestamps gán thời điểm tạo
func (b *BookingBuilder) WithTimestamps(at time.Time) *BookingBuilder {
	b.booking.CreatedAt = at
	b.booking.UpdatedAt = at
	return b
}

// Build tạo booking hoàn chỉnh
func (b *BookingBuilder) Build() *models.Booking {
	return b.booking
}
