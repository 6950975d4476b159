package services

import (
	"context"
	"fmt"
	"math"
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

type RateService struct {
	rates   repository.RateRepository
	cache   Cache
	ttl     time.Duration
	logger  logger.Logger
	metrics *Metrics
}

type RateServiceOptions struct {
	Rates   repository.RateRepository
	Cache   Cache
	TTL     time.Duration
	Logger  logger.Logger
	Metrics *Metrics
}

func NewRateService(opts RateServiceOptions) *RateService {
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.RateCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	return &RateService{
		rates:   opts.Rates,
		cache:   opts.Cache,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// CalculateRate giá một đêm (đã gồm thuế) cho kỳ lưu trú.
// Kết quả được cache theo (rateID, checkIn, checkOut, occupancy, channel) và chỉ hết hạn theo TTL.
func (s *RateService) CalculateRate(ctx context.Context, rateID string, checkIn, checkOut time.Time, occupancyPct float64, channel string) (float64, error) {
	quote, err := s.Quote(ctx, rateID, checkIn, checkOut, occupancyPct, channel)
	if err != nil {
		return 0, err
	}
	return quote.Total, nil
}

func (s *RateService) Quote(ctx context.Context, rateID string, checkIn, checkOut time.Time, occupancyPct float64, channel string) (*dto.RateQuote, error) {
	if err := validator.ValidateDateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if err := validator.ValidateOccupancy(occupancyPct); err != nil {
		return nil, err
	}

	key := rateCacheKey(rateID, checkIn, checkOut, occupancyPct, channel)
	var cached dto.RateQuote
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("rate cache read failed for %s: %v", key, err)
	}
	s.metrics.CacheLookup(ctx, "rate", hit)
	if hit {
		return &cached, nil
	}

	rate, err := s.rates.GetByID(ctx, rateID)
	if err != nil {
		return nil, wrapStoreError(err, "rate", rateID)
	}
	if !rate.IsActive {
		return nil, errors.BusinessRule("rate is not active").With("rate", rateID)
	}

	quote := QuoteRate(rate, checkIn, checkOut, occupancyPct, channel)
	if err := s.cache.Set(ctx, key, quote, s.ttl); err != nil {
		s.logger.Warn("rate cache write failed for %s: %v", key, err)
	}
	return quote, nil
}

// QuoteRate tính giá theo thứ tự cố định: mùa -> công suất -> số đêm -> kênh -> giới hạn -> thuế.
// Mỗi nhóm cộng dồn tỉ lệ rồi nhân một lần vào giá của bước trước.
func QuoteRate(rate *models.RateDefinition, checkIn, checkOut time.Time, occupancyPct float64, channel string) *dto.RateQuote {
	nights := utils.Nights(checkIn, checkOut)
	base := rate.BaseRate
	q := &dto.RateQuote{RateID: rate.ID, Nights: nights, BaseRate: base}

	current := base

	var seasonal float64
	for i := range rate.SeasonalModifiers {
		m := &rate.SeasonalModifiers[i]
		if m.Intersects(checkIn, checkOut) {
			seasonal += m.Type.Fraction(m.Value, base)
		}
	}
	current *= 1 + seasonal
	q.AfterSeasonal = current

	var occupancy float64
	for _, m := range rate.OccupancyModifiers {
		if m.Threshold <= occupancyPct {
			occupancy += m.Type.Fraction(m.Value, base)
		}
	}
	current *= 1 + occupancy
	q.AfterOccupancy = current

	var los float64
	for _, m := range rate.LengthOfStayModifiers {
		if m.MinNights <= nights {
			los += m.Type.Fraction(m.Value, base)
		}
	}
	current *= 1 + los
	q.AfterLengthOfStay = current

	if rule := rate.ChannelRule(channel); rule != nil {
		current *= 1 + rule.Markup
		current = math.Max(current, base*(1+rule.MinimumMarkup))
	}
	q.AfterChannel = current

	if rate.MinimumRate > 0 && current < rate.MinimumRate {
		current = rate.MinimumRate
	}
	if rate.MaximumRate > 0 && current > rate.MaximumRate {
		current = rate.MaximumRate
	}
	q.PreTax = current

	q.Total = utils.Round2(current * (1 + rate.TaxRate))
	return q
}

func rateCacheKey(rateID string, checkIn, checkOut time.Time, occupancyPct float64, channel string) string {
	return fmt.Sprintf("%s%s:%s:%s:%g:%s", constants.RateCachePrefix, rateID,
		utils.FormatDate(checkIn), utils.FormatDate(checkOut), occupancyPct, channel)
}
