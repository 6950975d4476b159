package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"roominventory/utils"
)

type Booking struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	GuestID        string         `json:"guestId" gorm:"size:64;index"`
	RoomNumber     string         `json:"roomNumber" gorm:"size:16;index:idx_booking_room_stay"`
	RateID         string         `json:"rateId" gorm:"size:64"`
	Channel        string         `json:"channel" gorm:"size:32"`
	CheckIn        time.Time      `json:"checkIn" gorm:"type:date;index:idx_booking_room_stay"`
	CheckOut       time.Time      `json:"checkOut" gorm:"type:date;index:idx_booking_room_stay"`
	Guests         int            `json:"guests"`
	NightlyRate    float64        `json:"nightlyRate"`
	TotalAmount    float64        `json:"totalAmount"`
	Status         string         `json:"status" gorm:"size:32;index"`
	PaymentStatus  string         `json:"paymentStatus" gorm:"size:16"`
	IdempotencyKey string         `json:"idempotencyKey,omitempty" gorm:"size:128;index"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Audits         []BookingAudit `json:"audits,omitempty" gorm:"foreignKey:BookingID"`
}

func (b *Booking) Nights() int {
	return utils.Nights(b.CheckIn, b.CheckOut)
}

// Overlaps so sánh [CheckIn, CheckOut) với khoảng [start, end)
func (b *Booking) Overlaps(start, end time.Time) bool {
	return utils.RangesOverlap(utils.DateOnly(b.CheckIn), utils.DateOnly(b.CheckOut), utils.DateOnly(start), utils.DateOnly(end))
}

// Covers kiểm tra khách có ở đêm của ngày day không
func (b *Booking) Covers(day time.Time) bool {
	day = utils.DateOnly(day)
	return !day.Before(utils.DateOnly(b.CheckIn)) && day.Before(utils.DateOnly(b.CheckOut))
}

// BookingAudit nhật ký thay đổi booking, chỉ ghi thêm
type BookingAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BookingID string    `json:"bookingId" gorm:"size:36;index"`
	Actor     string    `json:"actor" gorm:"size:128"`
	Action    string    `json:"action" gorm:"size:32"`
	Reason    string    `json:"reason,omitempty"`
	Changes   FieldDiff `json:"changes" gorm:"type:json"`
	CreatedAt time.Time `json:"createdAt"`
}

type FieldChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FieldDiff field -> giá trị cũ/mới
type FieldDiff map[string]FieldChange

func (d FieldDiff) Record(field, from, to string) {
	if from != to {
		d[field] = FieldChange{From: from, To: to}
	}
}

func (d FieldDiff) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *FieldDiff) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for FieldDiff: %T", src)
	}
}
