package models

import "time"

// StatusEvent phát ra sau mỗi lần đổi trạng thái phòng hoặc booking
type StatusEvent struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Timestamp      time.Time `json:"timestamp"`
	Actor          string    `json:"actor"`
	Reason         string    `json:"reason,omitempty"`
}
