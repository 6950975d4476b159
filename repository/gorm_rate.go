package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roominventory/models"
)

type GormRateRepository struct {
	db *gorm.DB
}

func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

func (r *GormRateRepository) GetByID(ctx context.Context, id string) (*models.RateDefinition, error) {
	var rate models.RateDefinition
	err := dbFromContext(ctx, r.db).
		Preload("SeasonalModifiers").
		Preload("OccupancyModifiers").
		Preload("LengthOfStayModifiers").
		Preload("ChannelRules").
		First(&rate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *GormRateRepository) Save(ctx context.Context, rate *models.RateDefinition) error {
	return dbFromContext(ctx, r.db).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(rate).Error
}
