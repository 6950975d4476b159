package dto

import "time"

// AvailabilityFilter điều kiện tìm phòng trống trong [StartDate, EndDate)
type AvailabilityFilter struct {
	StartDate time.Time `json:"startDate" form:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" form:"endDate" validate:"required"`
	RoomType  string    `json:"roomType" form:"roomType"`
	Guests    int       `json:"guests" form:"guests" validate:"min=0"`
	Amenities []string  `json:"amenities" form:"amenities"`
	Channel   string    `json:"channel" form:"channel"`
}

type AvailabilityResult struct {
	RoomNumber       string   `json:"roomNumber"`
	Floor            int      `json:"floor"`
	RoomType         string   `json:"roomType"`
	MaxOccupancy     int      `json:"maxOccupancy"`
	Status           string   `json:"status"`
	IsAvailable      bool     `json:"isAvailable"`
	UnavailableDates []string `json:"unavailableDates"`
	DynamicRate      *float64 `json:"dynamicRate,omitempty"`
}
