package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"roominventory/services/logger"
)

// BookingSweeper định nghĩa các tác vụ dọn booking định kỳ
type BookingSweeper interface {
	SweepNoShows(ctx context.Context, asOf time.Time) (int, error)
	ExpireHolds(ctx context.Context, olderThan time.Time) (int, error)
}

type Options struct {
	NoShowSpec     string
	HoldExpirySpec string
	HoldTTL        time.Duration
	Timeout        time.Duration
	Logger         logger.Logger
	Clock          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NoShowSpec == "" {
		o.NoShowSpec = "0 1 * * *"
	}
	if o.HoldExpirySpec == "" {
		o.HoldExpirySpec = "*/5 * * * *"
	}
	if o.HoldTTL <= 0 {
		o.HoldTTL = 30 * time.Minute
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Minute
	}
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// InitCronJobs đăng ký các cron job, chưa Start
func InitCronJobs(c *cron.Cron, sweeper BookingSweeper, opts Options) error {
	opts = opts.withDefaults()

	// Cron job đánh dấu NO_SHOW, mặc định chạy lúc 1h mỗi ngày
	if _, err := c.AddFunc(opts.NoShowSpec, func() { NoShowJob(sweeper, opts) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(opts.HoldExpirySpec, func() { HoldExpiryJob(sweeper, opts) }); err != nil {
		return err
	}

	opts.Logger.Info("cron jobs registered: no-show %q, hold expiry %q", opts.NoShowSpec, opts.HoldExpirySpec)
	return nil
}

func NoShowJob(sweeper BookingSweeper, opts Options) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	now := opts.Clock()
	n, err := sweeper.SweepNoShows(ctx, now)
	if err != nil {
		opts.Logger.Error("no-show sweep failed: %v", err)
		return
	}
	opts.Logger.Info("no-show sweep at %v marked %d bookings", now, n)
}

func HoldExpiryJob(sweeper BookingSweeper, opts Options) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cutoff := opts.Clock().Add(-opts.HoldTTL)
	n, err := sweeper.ExpireHolds(ctx, cutoff)
	if err != nil {
		opts.Logger.Error("hold expiry failed: %v", err)
		return
	}
	if n > 0 {
		opts.Logger.Info("expired %d holds created before %v", n, cutoff)
	}
}
