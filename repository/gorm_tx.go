package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roominventory/models"
)

type txContextKey struct{}

// dbFromContext returns the transaction carried by ctx, or the base handle.
func dbFromContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// GormTxManager serializes work per room with SELECT ... FOR UPDATE on the room rows.
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithinRoomLocks(ctx context.Context, roomNumbers []string, fn func(ctx context.Context) error) error {
	rooms := SortedUnique(roomNumbers)
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		if err := lockRooms(tx, rooms); err != nil {
			return err
		}
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRooms(tx, rooms); err != nil {
			return err
		}
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func lockRooms(tx *gorm.DB, rooms []string) error {
	if len(rooms) == 0 {
		return nil
	}
	var locked []models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("room_number").
		Where("room_number IN ?", rooms).
		Order("room_number").
		Find(&locked).Error
	if err != nil {
		return err
	}
	if len(locked) == len(rooms) {
		return nil
	}
	found := make(map[string]bool, len(locked))
	for _, r := range locked {
		found[r.RoomNumber] = true
	}
	for _, n := range rooms {
		if !found[n] {
			return fmt.Errorf("room %s: %w", n, ErrNotFound)
		}
	}
	return nil
}

// Migrate tạo/cập nhật bảng
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.RoomStatusAudit{},
		&models.RateDefinition{},
		&models.SeasonalModifier{},
		&models.OccupancyModifier{},
		&models.LengthOfStayModifier{},
		&models.ChannelRule{},
		&models.Booking{},
		&models.BookingAudit{},
	)
}
