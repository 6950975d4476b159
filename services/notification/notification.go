package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"

	"roominventory/models"
)

// Publisher phát sự kiện đổi trạng thái; việc giao tới client là trách nhiệm của tầng dưới
type Publisher interface {
	Publish(ctx context.Context, event models.StatusEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.StatusEvent) error { return nil }

// MultiPublisher gửi tới tất cả publisher, gom lỗi lại
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event models.StatusEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MelodyPublisher broadcast sự kiện tới các websocket session
type MelodyPublisher struct {
	m *melody.Melody
}

func NewMelodyPublisher(m *melody.Melody) *MelodyPublisher {
	return &MelodyPublisher{m: m}
}

func (p *MelodyPublisher) Publish(_ context.Context, event models.StatusEvent) error {
	if p.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.m.Broadcast(body)
}
