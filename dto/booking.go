package dto

import "time"

// CreateBookingRequest là DTO cho yêu cầu tạo booking
type CreateBookingRequest struct {
	GuestID        string    `json:"guestId" validate:"required"`
	RoomNumber     string    `json:"roomNumber" validate:"required"`
	RateID         string    `json:"rateId"`
	Channel        string    `json:"channel"`
	CheckIn        time.Time `json:"checkIn" validate:"required"`
	CheckOut       time.Time `json:"checkOut" validate:"required,gtfield=CheckIn"`
	Guests         int       `json:"guests" validate:"required,min=1"`
	Actor          string    `json:"actor" validate:"required"`
	IdempotencyKey string    `json:"idempotencyKey" validate:"omitempty,max=128"`
	Notes          string    `json:"notes" validate:"max=1000"`
	// InitialStatus để trống thì là PENDING
	InitialStatus string `json:"initialStatus" validate:"omitempty,oneof=PENDING ON_HOLD PENDING_PAYMENT PENDING_CONFIRMATION"`
}

// UpdateBookingRequest chỉ áp dụng các trường khác nil
type UpdateBookingRequest struct {
	BookingID     string     `json:"bookingId" validate:"required"`
	Actor         string     `json:"actor" validate:"required"`
	Reason        string     `json:"reason"`
	Status        *string    `json:"status" validate:"omitempty,bookingstatus"`
	CheckIn       *time.Time `json:"checkIn"`
	CheckOut      *time.Time `json:"checkOut"`
	Guests        *int       `json:"guests" validate:"omitempty,min=1"`
	PaymentStatus *string    `json:"paymentStatus" validate:"omitempty,oneof=UNPAID PAID REFUNDED"`
	Notes         *string    `json:"notes" validate:"omitempty,max=1000"`
}

// BookingActionRequest dùng cho cancel, check-in, check-out
type BookingActionRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
	Actor     string `json:"actor" validate:"required"`
	Reason    string `json:"reason"`
}
