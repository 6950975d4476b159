package models

import "time"

// ModifierType cách quy đổi giá trị điều chỉnh ra tỉ lệ
type ModifierType string

const (
	ModifierPercentage ModifierType = "PERCENTAGE"
	ModifierFixed      ModifierType = "FIXED"
)

// Fraction trả về phần điều chỉnh theo tỉ lệ so với giá gốc
func (t ModifierType) Fraction(value, baseRate float64) float64 {
	if t == ModifierFixed {
		if baseRate == 0 {
			return 0
		}
		return value / baseRate
	}
	return value / 100
}

// RateDefinition bảng giá: giá gốc mỗi đêm, thuế, giới hạn và các nhóm điều chỉnh
type RateDefinition struct {
	ID                    string                 `json:"id" gorm:"primaryKey;size:64"`
	Name                  string                 `json:"name"`
	BaseRate              float64                `json:"baseRate"`
	TaxRate               float64                `json:"taxRate"`
	MinimumRate           float64                `json:"minimumRate"`
	MaximumRate           float64                `json:"maximumRate"`
	IsActive              bool                   `json:"isActive"`
	SeasonalModifiers     []SeasonalModifier     `json:"seasonalModifiers" gorm:"foreignKey:RateID"`
	OccupancyModifiers    []OccupancyModifier    `json:"occupancyModifiers" gorm:"foreignKey:RateID"`
	LengthOfStayModifiers []LengthOfStayModifier `json:"lengthOfStayModifiers" gorm:"foreignKey:RateID"`
	ChannelRules          []ChannelRule          `json:"channelRules" gorm:"foreignKey:RateID"`
	CreatedAt             time.Time              `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time              `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *RateDefinition) ChannelRule(channel string) *ChannelRule {
	for i := range r.ChannelRules {
		if r.ChannelRules[i].Channel == channel {
			return &r.ChannelRules[i]
		}
	}
	return nil
}

type OccupancyModifier struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	RateID    string       `json:"rateId" gorm:"size:64;index"`
	Threshold float64      `json:"threshold"` // % lấp đầy
	Type      ModifierType `json:"type" gorm:"size:16"`
	Value     float64      `json:"value"`
}

type LengthOfStayModifier struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	RateID    string       `json:"rateId" gorm:"size:64;index"`
	MinNights int          `json:"minNights"`
	Type      ModifierType `json:"type" gorm:"size:16"`
	Value     float64      `json:"value"`
}

// ChannelRule markup theo kênh bán; Markup và MinimumMarkup là tỉ lệ (0.15 = 15%)
type ChannelRule struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	RateID        string  `json:"rateId" gorm:"size:64;index"`
	Channel       string  `json:"channel" gorm:"size:32"`
	Markup        float64 `json:"markup"`
	MinimumMarkup float64 `json:"minimumMarkup"`
}
