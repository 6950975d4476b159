package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"roominventory/constants"
	"roominventory/models"
)

type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) GetByNumber(ctx context.Context, number string) (*models.Room, error) {
	var room models.Room
	err := dbFromContext(ctx, r.db).First(&room, "room_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormRoomRepository) List(ctx context.Context, q RoomQuery) ([]models.Room, error) {
	query := dbFromContext(ctx, r.db).Model(&models.Room{})
	if q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.MinOccupancy > 0 {
		query = query.Where("max_occupancy >= ?", q.MinOccupancy)
	}
	if len(q.ExcludeStatuses) > 0 {
		query = query.Where("status NOT IN ?", q.ExcludeStatuses)
	}
	var rooms []models.Room
	if err := query.Order("room_number").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *models.Room) error {
	return dbFromContext(ctx, r.db).Save(room).Error
}

func (r *GormRoomRepository) UpdateStatus(ctx context.Context, number, status string, window *models.MaintenanceWindow, at time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": at,
	}
	if window != nil {
		updates["maintenance_start"] = window.Start
		updates["maintenance_end"] = window.End
	} else if status == constants.RoomStatusAvailable {
		updates["maintenance_start"] = nil
		updates["maintenance_end"] = nil
	}
	res := dbFromContext(ctx, r.db).Model(&models.Room{}).
		Where("room_number = ?", number).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRoomRepository) AppendAudit(ctx context.Context, audit *models.RoomStatusAudit) error {
	return dbFromContext(ctx, r.db).Create(audit).Error
}

func (r *GormRoomRepository) ListAudits(ctx context.Context, number string) ([]models.RoomStatusAudit, error) {
	var audits []models.RoomStatusAudit
	err := dbFromContext(ctx, r.db).
		Where("room_number = ?", number).
		Order("created_at, id").
		Find(&audits).Error
	return audits, err
}

func (r *GormRoomRepository) CountOccupancy(ctx context.Context) (int, int, error) {
	var active, occupied int64
	db := dbFromContext(ctx, r.db)
	if err := db.Model(&models.Room{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	err := db.Model(&models.Room{}).
		Where("is_active = ? AND status = ?", true, constants.RoomStatusOccupied).
		Count(&occupied).Error
	if err != nil {
		return 0, 0, err
	}
	return int(occupied), int(active), nil
}
