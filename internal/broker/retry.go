package broker

import (
	"context"
	"time"
)

// deliver runs h until it succeeds, fails permanently or has been retried
// maxRetries times. Drivers without broker-side redelivery use it.
func deliver(ctx context.Context, h Handler, d Delivery, maxRetries int, delay time.Duration) error {
	for attempt := 1; ; attempt++ {
		d.Attempt = attempt

		err := h.HandleMessage(ctx, d)
		if err == nil || IsPermanent(err) || attempt > maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
