package upload

import (
	"context"
	"time"
)

// ScheduleSweep runs SweepOrphans every interval until ctx is done. The
// returned channel is closed when the goroutine exits.
func (s *Service) ScheduleSweep(ctx context.Context, interval, olderThan time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		s.log.Info().Msg("orphan sweep disabled")
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.SweepOrphans(ctx, olderThan); err != nil {
					s.log.Error().Err(err).Msg("scheduled orphan sweep failed")
				}
			case <-ctx.Done():
				s.log.Info().Msg("orphan sweep stopped")
				return
			}
		}
	}()

	s.log.Info().Dur("interval", interval).Dur("older_than", olderThan).Msg("orphan sweep scheduled")
	return done
}
