package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	bookingsCreated  metric.Int64Counter
	bookingConflicts metric.Int64Counter
	bookingStatus    metric.Int64Counter
	roomTransitions  metric.Int64Counter
	cacheLookups     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.bookingsCreated, err = meter.Int64Counter(
		"bookings_created_total",
		metric.WithDescription("Total number of bookings created"),
	)
	if err != nil {
		return nil, err
	}

	m.bookingConflicts, err = meter.Int64Counter(
		"booking_conflicts_total",
		metric.WithDescription("Total number of booking requests rejected because the room was taken"),
	)
	if err != nil {
		return nil, err
	}

	m.bookingStatus, err = meter.Int64Counter(
		"booking_status_transitions_total",
		metric.WithDescription("Total number of booking status transitions"),
	)
	if err != nil {
		return nil, err
	}

	m.roomTransitions, err = meter.Int64Counter(
		"room_status_transitions_total",
		metric.WithDescription("Total number of room status transitions"),
	)
	if err != nil {
		return nil, err
	}

	m.cacheLookups, err = meter.Int64Counter(
		"cache_lookups_total",
		metric.WithDescription("Cache lookups by cache name and result"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// NopMetrics ghi vào meter rỗng
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("roominventory"))
	return m
}

func (m *Metrics) BookingCreated(ctx context.Context, channel string) {
	m.bookingsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

func (m *Metrics) BookingConflict(ctx context.Context, room string) {
	m.bookingConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("room", room)))
}

func (m *Metrics) BookingTransition(ctx context.Context, from, to string) {
	m.bookingStatus.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RoomTransition(ctx context.Context, from, to string) {
	m.roomTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) CacheLookup(ctx context.Context, cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("result", result),
	))
}
