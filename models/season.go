package models

import (
	"time"

	"roominventory/utils"
)

// SeasonalModifier điều chỉnh giá theo mùa/kỳ nghỉ lễ trong khoảng ngày [StartDate, EndDate]
type SeasonalModifier struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	RateID    string       `json:"rateId" gorm:"size:64;index"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate" gorm:"type:date"`
	EndDate   time.Time    `json:"endDate" gorm:"type:date"`
	Type      ModifierType `json:"type" gorm:"size:16"`
	Value     float64      `json:"value"`
}

// Intersects so sánh bao gồm cả hai đầu với [checkIn, checkOut]
func (m *SeasonalModifier) Intersects(checkIn, checkOut time.Time) bool {
	start, end := utils.DateOnly(m.StartDate), utils.DateOnly(m.EndDate)
	return !start.After(utils.DateOnly(checkOut)) && !end.Before(utils.DateOnly(checkIn))
}
