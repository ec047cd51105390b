package trace

import (
	"context"
	"fmt"
	"time"
)

// Play emits the samples of t in real time, scaled by speed (2 plays twice as
// fast). at is the sample's recorded time, counted from time.UnixMilli(0), so a
// tracker clocked by it computes the same velocities at any speed.
func Play(ctx context.Context, t *Trace, speed float64, emit func(at time.Time, p Point)) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %g", speed)
	}

	start := time.Now()
	for _, p := range t.Samples {
		due := start.Add(time.Duration(float64(p.TMS) * float64(time.Millisecond) / speed))
		if wait := time.Until(due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		emit(time.UnixMilli(p.TMS), p)
	}
	return nil
}
