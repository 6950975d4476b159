package models

import "time"

// RoomStatusAudit lịch sử thay đổi trạng thái phòng, chỉ ghi thêm
type RoomStatusAudit struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RoomNumber     string    `json:"roomNumber" gorm:"size:16;index"`
	PreviousStatus string    `json:"previousStatus" gorm:"size:32"`
	NewStatus      string    `json:"newStatus" gorm:"size:32"`
	Reason         string    `json:"reason" gorm:"size:64"`
	Actor          string    `json:"actor" gorm:"size:128"`
	BookingID      string    `json:"bookingId,omitempty" gorm:"size:36;index"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
}
