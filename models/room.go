package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"roominventory/utils"
)

type Room struct {
	RoomNumber       string     `json:"roomNumber" gorm:"primaryKey;size:16"`
	Floor            int        `json:"floor"`
	Type             string     `json:"type" gorm:"size:32;index"`
	MaxOccupancy     int        `json:"maxOccupancy"`
	Amenities        StringList `json:"amenities" gorm:"type:json"`
	IsActive         bool       `json:"isActive" gorm:"index"`
	Status           string     `json:"status" gorm:"size:32;not null"`
	RateID           string     `json:"rateId" gorm:"size:64"`
	MaintenanceStart *time.Time `json:"maintenanceStart,omitempty"`
	MaintenanceEnd   *time.Time `json:"maintenanceEnd,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// MaintenanceWindow khoảng thời gian phòng bị khoá để bảo trì
type MaintenanceWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r *Room) Maintenance() *MaintenanceWindow {
	if r.MaintenanceStart == nil || r.MaintenanceEnd == nil {
		return nil
	}
	return &MaintenanceWindow{Start: *r.MaintenanceStart, End: *r.MaintenanceEnd}
}

// UnderMaintenanceOn kiểm tra một ngày có nằm trong lịch bảo trì không
func (r *Room) UnderMaintenanceOn(day time.Time) bool {
	w := r.Maintenance()
	if w == nil {
		return false
	}
	day = utils.DateOnly(day)
	return utils.RangesOverlap(day, day.AddDate(0, 0, 1), w.Start, w.End)
}

func (r *Room) HasAmenities(want []string) bool {
	have := make(map[string]struct{}, len(r.Amenities))
	for _, a := range r.Amenities {
		have[a] = struct{}{}
	}
	for _, a := range want {
		if _, ok := have[a]; !ok {
			return false
		}
	}
	return true
}

// StringList lưu dạng json trong cột
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
}
