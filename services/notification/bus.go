package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"roominventory/models"
)

var ErrTooManySubscribers = errors.New("notification: subscriber limit reached")

// Bus is an in-process event stream with a bounded subscriber list.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan models.StatusEvent
	nextID  int
	buffer  int
	maxSubs int
	dropped atomic.Int64
}

func NewBus(buffer, maxSubs int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	if maxSubs <= 0 {
		maxSubs = 16
	}
	return &Bus{
		subs:    make(map[int]chan models.StatusEvent),
		buffer:  buffer,
		maxSubs: maxSubs,
	}
}

// Subscribe returns the event channel and a func that unsubscribes and closes it.
func (b *Bus) Subscribe() (<-chan models.StatusEvent, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) >= b.maxSubs {
		return nil, nil, ErrTooManySubscribers
	}
	id := b.nextID
	b.nextID++
	ch := make(chan models.StatusEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (b *Bus) Publish(ctx context.Context, event models.StatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped counts events lost to full subscriber buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
