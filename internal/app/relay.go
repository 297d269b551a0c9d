package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

// Relay composes the owned state with its collaborators and carries the
// operations the signal adapter calls into. One instance per process.
type Relay struct {
	State *State
	Store core.Store
	Trans core.Transcriber
	Allow core.Allowlist
	Bcast *Broadcaster
	Pipe  *Pipeline
	Met   *metrics.Metrics
}

func NewRelay(store core.Store, trans core.Transcriber, allow core.Allowlist, met *metrics.Metrics, queueSize int, overflow string) *Relay {
	state := NewState()
	bcast := NewBroadcaster(state, met)
	return &Relay{
		State: state,
		Store: store,
		Trans: trans,
		Allow: allow,
		Bcast: bcast,
		Pipe:  NewPipeline(state, store, trans, bcast, met, queueSize, overflow),
		Met:   met,
	}
}

// persist re-saves a session after a mutation. Failures are logged and
// counted but never roll back in-memory state.
func (r *Relay) persist(ctx context.Context, token domain.Token) {
	snap, ok := r.State.Snapshot(token)
	if !ok {
		return
	}
	if err := r.Store.SaveSession(ctx, &snap); err != nil {
		r.Met.PersistErrors.Inc()
		log.Warn().Err(err).Str("module", "app.relay").Str("token", string(token)).Msg("session persist failed, memory stays authoritative")
	}
}
