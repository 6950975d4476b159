package models

import "roominventory/constants"

var bookingTransitions = map[string][]string{
	constants.BookingStatusPending: {
		constants.BookingStatusConfirmed,
		constants.BookingStatusCancelled,
	},
	constants.BookingStatusConfirmed: {
		constants.BookingStatusCheckedIn,
		constants.BookingStatusCancelled,
		constants.BookingStatusNoShow,
	},
	constants.BookingStatusCheckedIn: {
		constants.BookingStatusCheckedOut,
	},
	constants.BookingStatusPendingConfirmation: {
		constants.BookingStatusConfirmed,
		constants.BookingStatusCancelled,
	},
	constants.BookingStatusPendingPayment: {
		constants.BookingStatusConfirmed,
		constants.BookingStatusCancelled,
	},
	constants.BookingStatusOnHold: {
		constants.BookingStatusPending,
		constants.BookingStatusCancelled,
	},
}

// BookingStatuses toàn bộ trạng thái booking hợp lệ
var BookingStatuses = []string{
	constants.BookingStatusPending,
	constants.BookingStatusConfirmed,
	constants.BookingStatusCheckedIn,
	constants.BookingStatusCheckedOut,
	constants.BookingStatusCancelled,
	constants.BookingStatusNoShow,
	constants.BookingStatusPendingConfirmation,
	constants.BookingStatusPendingPayment,
	constants.BookingStatusOnHold,
}

// ActiveBookingStatuses hai booking ở các trạng thái này không bao giờ được trùng ngày trên cùng một phòng
var ActiveBookingStatuses = []string{
	constants.BookingStatusConfirmed,
	constants.BookingStatusCheckedIn,
	constants.BookingStatusPendingConfirmation,
}

// BlockingBookingStatuses các trạng thái còn giữ phòng, dùng khi kiểm tra phòng trống.
// Bao gồm cả PENDING vì booking mới tạo ở trạng thái này.
var BlockingBookingStatuses = []string{
	constants.BookingStatusPending,
	constants.BookingStatusPendingConfirmation,
	constants.BookingStatusPendingPayment,
	constants.BookingStatusOnHold,
	constants.BookingStatusConfirmed,
	constants.BookingStatusCheckedIn,
}

func CanBookingTransition(current, target string) bool {
	for _, s := range bookingTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminalBookingStatus trạng thái không còn chuyển tiếp
func IsTerminalBookingStatus(status string) bool {
	return IsValidBookingStatus(status) && len(bookingTransitions[status]) == 0
}

func IsValidBookingStatus(status string) bool {
	return contains(BookingStatuses, status)
}

func IsBlockingStatus(status string) bool {
	return contains(BlockingBookingStatuses, status)
}

func IsActiveStatus(status string) bool {
	return contains(ActiveBookingStatuses, status)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
