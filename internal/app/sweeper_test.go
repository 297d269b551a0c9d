package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionSweepUsesIdleTTLCutoff(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	s := &Sweeper{
		Store:      st,
		SessionTTL: 24 * time.Hour,
		MessageTTL: 24 * time.Hour,
		Interval:   10 * time.Millisecond,
		PurgeHour:  3,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.sessionLoop(ctx)

	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.sessionCutoffs) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	st.mu.Lock()
	cutoff := st.sessionCutoffs[0]
	st.mu.Unlock()
	expect := time.Now().Add(-24 * time.Hour)
	req.WithinDuration(expect, cutoff, 5*time.Second)
}

func TestUntilHour(t *testing.T) {
	req := require.New(t)
	loc := time.UTC

	now := time.Date(2026, 8, 31, 1, 0, 0, 0, loc)
	req.Equal(2*time.Hour, untilHour(now, 3))

	// Already past today's slot: wait for tomorrow's.
	now = time.Date(2026, 8, 31, 4, 0, 0, 0, loc)
	req.Equal(23*time.Hour, untilHour(now, 3))

	// Exactly on the hour schedules the next day, not a zero wait.
	now = time.Date(2026, 8, 31, 3, 0, 0, 0, loc)
	req.Equal(24*time.Hour, untilHour(now, 3))
}

func TestSweeperLeavesLiveRegistryAlone(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	r := newTestRelay(st, nil)
	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")

	s := &Sweeper{Store: st, SessionTTL: time.Nanosecond, MessageTTL: time.Nanosecond, Interval: 10 * time.Millisecond, PurgeHour: 3}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.sessionLoop(ctx)

	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.sessionCutoffs) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	// The sweep touches storage only; the connected session stays.
	req.True(r.State.Online(perez))
}
