package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
)

// Sweeper expires stale persisted state on two independent schedules:
// an interval purge of sessions past their idle TTL and a once-daily
// purge, at a fixed hour, of old messages. It acts on storage only; live
// registry entries are deliberately untouched, so a purged-but-connected
// session survives in memory until its next reconnect. That mismatch is
// inherited behavior, surfaced here through the purge logs.
type Sweeper struct {
	Store      core.Store
	SessionTTL time.Duration
	MessageTTL time.Duration
	Interval   time.Duration
	PurgeHour  int
}

// Run starts both loops and blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	go s.sessionLoop(ctx)
	s.messageLoop(ctx)
}

func (s *Sweeper) sessionLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.Interval).Dur("ttl", s.SessionTTL).Msg("session sweep started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.SessionTTL)
			n, err := s.Store.PurgeSessionsOlderThan(ctx, cutoff)
			if err != nil {
				log.Warn().Err(err).Str("module", "app.sweeper").Msg("session purge failed")
				continue
			}
			if n > 0 {
				log.Info().Str("module", "app.sweeper").Int64("purged", n).Time("cutoff", cutoff).Msg("purged idle sessions from storage")
			}
		}
	}
}

func (s *Sweeper) messageLoop(ctx context.Context) {
	log.Info().Str("module", "app.sweeper").Int("hour", s.PurgeHour).Dur("ttl", s.MessageTTL).Msg("message sweep started")
	for {
		timer := time.NewTimer(untilHour(time.Now(), s.PurgeHour))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			cutoff := time.Now().Add(-s.MessageTTL)
			n, err := s.Store.PurgeMessagesOlderThan(ctx, cutoff)
			if err != nil {
				log.Warn().Err(err).Str("module", "app.sweeper").Msg("message purge failed")
				continue
			}
			log.Info().Str("module", "app.sweeper").Int64("purged", n).Time("cutoff", cutoff).Msg("purged old messages from storage")
		}
	}
}

// untilHour returns the wait until the next occurrence of hour o'clock.
func untilHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
