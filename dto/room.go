package dto

import (
	"time"

	"roominventory/models"
)

// RoomStatusUpdateRequest yêu cầu đổi trạng thái phòng.
// CurrentStatus là trạng thái người gọi nhìn thấy, để trống nếu không cần so khớp.
type RoomStatusUpdateRequest struct {
	RoomNumber           string                    `json:"roomNumber" validate:"required"`
	CurrentStatus        string                    `json:"currentStatus" validate:"omitempty,roomstatus"`
	TargetStatus         string                    `json:"targetStatus" validate:"required,roomstatus"`
	Reason               string                    `json:"reason" validate:"required"`
	Actor                string                    `json:"actor" validate:"required"`
	Timestamp            time.Time                 `json:"timestamp"`
	RequireBusinessHours bool                      `json:"requireBusinessHours"`
	MaintenanceWindow    *models.MaintenanceWindow `json:"maintenanceWindow"`
	BookingID            string                    `json:"bookingId"`
}

// RateQuote giá sau từng bước tính
type RateQuote struct {
	RateID            string  `json:"rateId"`
	Nights            int     `json:"nights"`
	BaseRate          float64 `json:"baseRate"`
	AfterSeasonal     float64 `json:"afterSeasonal"`
	AfterOccupancy    float64 `json:"afterOccupancy"`
	AfterLengthOfStay float64 `json:"afterLengthOfStay"`
	AfterChannel      float64 `json:"afterChannel"`
	PreTax            float64 `json:"preTax"`
	Total             float64 `json:"total"`
}
