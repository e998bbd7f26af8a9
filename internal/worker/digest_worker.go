package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DigestSender triggers one digest run.
type DigestSender interface {
	SendDaily(ctx context.Context) (string, error)
}

// DigestWorker fires the daily digest on a cron schedule in the
// configured timezone.
type DigestWorker struct {
	digest   DigestSender
	schedule string
	cron     *cron.Cron
}

func NewDigestWorker(digest DigestSender, schedule, timezone string) (*DigestWorker, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &DigestWorker{
		digest:   digest,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(loc)),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *DigestWorker) Run(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := w.digest.SendDaily(runCtx); err != nil {
			slog.ErrorContext(runCtx, "Daily digest failed", "error", err)
			return
		}
		slog.InfoContext(runCtx, "Daily digest sent")
	})
	if err != nil {
		return fmt.Errorf("schedule digest %q: %w", w.schedule, err)
	}

	w.cron.Start()
	slog.InfoContext(ctx, "Digest worker started", "schedule", w.schedule)

	<-ctx.Done()
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
