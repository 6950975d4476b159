package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"roominventory/constants"
	"roominventory/dto"
	"roominventory/errors"
	"roominventory/models"
	"roominventory/repository"
	"roominventory/services/logger"
	"roominventory/utils"
	"roominventory/validator"
)

// RateCalculator tính giá một đêm cho kỳ lưu trú
type RateCalculator interface {
	CalculateRate(ctx context.Context, rateID string, checkIn, checkOut time.Time, occupancyPct float64, channel string) (float64, error)
}

type AvailabilityService struct {
	rooms    repository.RoomRepository
	bookings repository.BookingRepository
	rates    RateCalculator
	cache    Cache
	ttl      time.Duration
	logger   logger.Logger
	metrics  *Metrics
	now      func() time.Time
}

type AvailabilityServiceOptions struct {
	Rooms    repository.RoomRepository
	Bookings repository.BookingRepository
	Rates    RateCalculator
	Cache    Cache
	TTL      time.Duration
	Logger   logger.Logger
	Metrics  *Metrics
	Clock    func() time.Time
}

func NewAvailabilityService(opts AvailabilityServiceOptions) *AvailabilityService {
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.AvailabilityCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &AvailabilityService{
		rooms:    opts.Rooms,
		bookings: opts.Bookings,
		rates:    opts.Rates,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Clock,
	}
}

// CheckAvailability trả về tình trạng từng phòng phù hợp với filter trong [StartDate, EndDate).
// Kết quả được cache theo filter, gắn tag theo từng phòng để xoá khi phòng thay đổi.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, filter dto.AvailabilityFilter) ([]dto.AvailabilityResult, error) {
	if err := validator.ValidateAvailabilityFilter(&filter, s.now()); err != nil {
		return nil, err
	}
	start, end := utils.DateOnly(filter.StartDate), utils.DateOnly(filter.EndDate)

	key := availabilityCacheKey(filter)
	var cached []dto.AvailabilityResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("availability cache read failed for %s: %v", key, err)
	}
	s.metrics.CacheLookup(ctx, "availability", hit)
	if hit {
		return cached, nil
	}

	// thế hệ của danh sách phòng phải đọc trước khi đọc store
	guard, err := s.cache.Generations(ctx, constants.RoomRosterCacheTag)
	if err != nil {
		s.logger.Warn("availability cache generation read failed: %v", err)
		guard = nil
	}

	rooms, err := s.rooms.List(ctx, repository.RoomQuery{
		Type:            filter.RoomType,
		MinOccupancy:    filter.Guests,
		ActiveOnly:      true,
		ExcludeStatuses: []string{constants.RoomStatusOutOfOrder},
	})
	if err != nil {
		return nil, wrapStoreError(err, "room", "")
	}
	candidates := rooms[:0]
	for _, room := range rooms {
		if room.HasAmenities(filter.Amenities) {
			candidates = append(candidates, room)
		}
	}

	numbers := make([]string, len(candidates))
	tags := make([]string, len(candidates), len(candidates)+1)
	for i, room := range candidates {
		numbers[i] = room.RoomNumber
		tags[i] = roomCacheTag(room.RoomNumber)
	}
	if guard != nil {
		roomGens, err := s.cache.Generations(ctx, tags...)
		if err != nil {
			s.logger.Warn("availability cache generation read failed: %v", err)
			guard = nil
		}
		for tag, gen := range roomGens {
			guard[tag] = gen
		}
	}
	byRoom := map[string][]models.Booking{}
	if len(numbers) > 0 {
		bookings, err := s.bookings.FindOverlapping(ctx, numbers, start, end, models.BlockingBookingStatuses)
		if err != nil {
			return nil, wrapStoreError(err, "booking", "")
		}
		for _, b := range bookings {
			byRoom[b.RoomNumber] = append(byRoom[b.RoomNumber], b)
		}
	}

	occupancy, err := s.CurrentOccupancy(ctx)
	if err != nil {
		return nil, err
	}

	days := utils.Days(start, end)
	results := make([]dto.AvailabilityResult, 0, len(candidates))
	for i := range candidates {
		room := &candidates[i]
		result := dto.AvailabilityResult{
			RoomNumber:       room.RoomNumber,
			Floor:            room.Floor,
			RoomType:         room.Type,
			MaxOccupancy:     room.MaxOccupancy,
			Status:           room.Status,
			UnavailableDates: []string{},
		}
		for _, day := range days {
			if room.UnderMaintenanceOn(day) || coveredBy(byRoom[room.RoomNumber], day) {
				result.UnavailableDates = append(result.UnavailableDates, utils.FormatDate(day))
			}
		}
		result.IsAvailable = len(result.UnavailableDates) == 0

		rate, err := s.dynamicRate(ctx, room, start, end, occupancy, filter.Channel)
		if err != nil {
			return nil, err
		}
		result.DynamicRate = rate

		results = append(results, result)
	}

	if guard != nil {
		tags = append(tags, constants.RoomRosterCacheTag)
		stored, err := s.cache.SetIfUnchanged(ctx, guard, key, results, s.ttl, tags...)
		if err != nil {
			s.logger.Warn("availability cache write failed for %s: %v", key, err)
		} else if !stored {
			s.logger.Debug("availability cache write skipped for %s: rooms changed during search", key)
		}
	}
	return results, nil
}

// ValidateAvailability luôn đọc trực tiếp từ store, không qua cache.
// Trả về false nếu bất kỳ phòng nào có booking trùng ngày.
func (s *AvailabilityService) ValidateAvailability(ctx context.Context, roomNumbers []string, checkIn, checkOut time.Time) (bool, error) {
	conflicts, err := s.FindConflicts(ctx, roomNumbers, checkIn, checkOut, "")
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// FindConflicts trả về các booking còn giữ phòng và trùng [checkIn, checkOut), bỏ qua excludeID
func (s *AvailabilityService) FindConflicts(ctx context.Context, roomNumbers []string, checkIn, checkOut time.Time, excludeID string) ([]models.Booking, error) {
	if err := validator.ValidateDateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if len(roomNumbers) == 0 {
		return nil, errors.Validation("at least one room is required")
	}
	candidates, err := s.bookings.FindOverlapping(ctx, roomNumbers, checkIn, checkOut, models.BlockingBookingStatuses)
	if err != nil {
		return nil, wrapStoreError(err, "booking", "")
	}
	var conflicts []models.Booking
	for _, b := range candidates {
		if b.ID == excludeID {
			continue
		}
		if b.Overlaps(checkIn, checkOut) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

// CurrentOccupancy tỉ lệ phòng đang có khách trên số phòng đang hoạt động
func (s *AvailabilityService) CurrentOccupancy(ctx context.Context) (float64, error) {
	occupied, active, err := s.rooms.CountOccupancy(ctx)
	if err != nil {
		return 0, wrapStoreError(err, "room", "")
	}
	if active == 0 {
		return 0, nil
	}
	return float64(occupied) / float64(active) * 100, nil
}

// InvalidateRooms xoá kết quả tìm kiếm có chứa các phòng này
func (s *AvailabilityService) InvalidateRooms(ctx context.Context, roomNumbers ...string) {
	invalidateRooms(ctx, s.cache, s.logger, false, roomNumbers...)
}

// InvalidateRoomStatus dùng khi trạng thái phòng đổi: phòng có thể vào/ra khỏi kết quả
// và tỉ lệ lấp đầy đổi, nên mọi kết quả tìm kiếm đều bị xoá
func (s *AvailabilityService) InvalidateRoomStatus(ctx context.Context, roomNumbers ...string) {
	invalidateRooms(ctx, s.cache, s.logger, true, roomNumbers...)
}

// dynamicRate trả về nil khi phòng không có giá dùng được, lỗi hệ thống thì fail cả truy vấn
func (s *AvailabilityService) dynamicRate(ctx context.Context, room *models.Room, start, end time.Time, occupancy float64, channel string) (*float64, error) {
	if room.RateID == "" || s.rates == nil {
		return nil, nil
	}
	price, err := s.rates.CalculateRate(ctx, room.RateID, start, end, occupancy, channel)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.ErrCodeNotFound, errors.ErrCodeBusinessRule, errors.ErrCodeValidation:
			s.logger.Warn("no dynamic rate for room %s: %v", room.RoomNumber, err)
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

func coveredBy(bookings []models.Booking, day time.Time) bool {
	for i := range bookings {
		if bookings[i].Covers(day) {
			return true
		}
	}
	return false
}

func invalidateRooms(ctx context.Context, cache Cache, log logger.Logger, roster bool, roomNumbers ...string) {
	if len(roomNumbers) == 0 && !roster {
		return
	}
	tags := make([]string, 0, len(roomNumbers)+1)
	for _, n := range roomNumbers {
		tags = append(tags, roomCacheTag(n))
	}
	if roster {
		tags = append(tags, constants.RoomRosterCacheTag)
	}
	if err := cache.Invalidate(context.WithoutCancel(ctx), tags...); err != nil {
		log.Error("availability cache invalidation failed for rooms %v: %v", roomNumbers, err)
	}
}

func roomCacheTag(roomNumber string) string {
	return constants.RoomCacheTagPrefix + roomNumber
}

func availabilityCacheKey(f dto.AvailabilityFilter) string {
	amenities := append([]string(nil), f.Amenities...)
	sort.Strings(amenities)
	return fmt.Sprintf("%ssearch:%s:%s:%s:%d:%s:%s", constants.AvailabilityCachePrefix,
		utils.FormatDate(f.StartDate), utils.FormatDate(f.EndDate), f.RoomType, f.Guests,
		strings.Join(amenities, ","), f.Channel)
}
