package constants

import "time"

// Room status
const (
	RoomStatusAvailable    = "AVAILABLE"
	RoomStatusOccupied     = "OCCUPIED"
	RoomStatusCleaning     = "CLEANING"
	RoomStatusMaintenance  = "MAINTENANCE"
	RoomStatusOutOfOrder   = "OUT_OF_ORDER"
	RoomStatusReserved     = "RESERVED"
	RoomStatusBlocked      = "BLOCKED"
	RoomStatusInspecting   = "INSPECTING"
	RoomStatusDeepCleaning = "DEEP_CLEANING"
)

// Booking status
const (
	BookingStatusPending             = "PENDING"
	BookingStatusConfirmed           = "CONFIRMED"
	BookingStatusCheckedIn           = "CHECKED_IN"
	BookingStatusCheckedOut          = "CHECKED_OUT"
	BookingStatusCancelled           = "CANCELLED"
	BookingStatusNoShow              = "NO_SHOW"
	BookingStatusPendingConfirmation = "PENDING_CONFIRMATION"
	BookingStatusPendingPayment      = "PENDING_PAYMENT"
	BookingStatusOnHold              = "ON_HOLD"
)

// Payment status, do billing cập nhật
const (
	PaymentStatusUnpaid   = "UNPAID"
	PaymentStatusPaid     = "PAID"
	PaymentStatusRefunded = "REFUNDED"
)

// Booking channel
const (
	ChannelDirect = "DIRECT"
	ChannelOTA    = "OTA"
)

// Room status change reasons
const (
	ReasonCheckIn             = "CHECK_IN"
	ReasonCleaningRequired    = "CLEANING_REQUIRED"
	ReasonMaintenanceComplete = "MAINTENANCE_COMPLETE"
	ReasonBookingHold         = "BOOKING_HOLD"
	ReasonBookingReleased     = "BOOKING_RELEASED"
)

// Booking audit actions
const (
	AuditActionCreated       = "CREATED"
	AuditActionUpdated       = "UPDATED"
	AuditActionStatusChanged = "STATUS_CHANGED"
)

// Event kinds
const (
	EventKindRoom    = "room"
	EventKindBooking = "booking"
)

// System actors
const (
	ActorNoShowSweeper = "system:no-show-sweeper"
	ActorHoldExpirer   = "system:hold-expirer"
)

// Cache
const (
	RateCacheTTL         = 15 * time.Minute
	AvailabilityCacheTTL = 15 * time.Minute

	RateCachePrefix         = "rate:"
	AvailabilityCachePrefix = "availability:"
	RoomCacheTagPrefix      = "availability:room:"
	RoomRosterCacheTag      = "availability:roster"
	IdempotencyPrefix       = "booking:idempotency:"
)

const (
	DefaultBookingTimeout = 5 * time.Second
	DateLayout            = "2006-01-02"
)
