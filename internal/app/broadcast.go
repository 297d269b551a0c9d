package app

import (
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

// Broadcaster fans frames out to session subsets. It consults the state's
// mute policy per candidate and never retries a failed write: the failing
// session is demoted to offline and the roster is re-announced.
type Broadcaster struct {
	State *State
	Met   *metrics.Metrics
}

func NewBroadcaster(state *State, met *metrics.Metrics) *Broadcaster {
	return &Broadcaster{State: state, Met: met}
}

// Audio delivers one finished pipeline item to its audience.
func (b *Broadcaster) Audio(m *domain.AudioMessage) {
	evType := core.EventAudio
	if m.GroupID != "" {
		evType = core.EventGroupMessage
	}
	parts := splitPeerID(m.SenderPeerID)
	frame := core.MustFrame(core.AudioEvent{
		Type:      evType,
		Data:      m.Payload,
		Sender:    parts[0],
		Function:  parts[1],
		UserID:    m.SenderPeerID,
		Text:      m.Transcript,
		Timestamp: m.Timestamp,
		GroupID:   m.GroupID,
	})
	b.deliver(b.State.Recipients(m), frame)
}

// Roster recomputes and sends the full online list to every live session.
func (b *Broadcaster) Roster() {
	roster := b.State.Roster()
	frame := core.MustFrame(core.UsersEvent{
		Type:  core.EventUsers,
		Count: len(roster),
		List:  roster,
	})
	b.Met.RosterBroadcasts.Inc()
	b.deliver(b.State.Live(""), frame)
}

func (b *Broadcaster) GlobalMuteState(flag bool) {
	frame := core.MustFrame(core.MuteStateEvent{
		Type:             core.EventMuteState,
		GlobalMuteActive: flag,
	})
	b.deliver(b.State.Live(""), frame)
}

// deliver writes a frame to each target. Failed targets are demoted and,
// if any, the roster is re-broadcast so peers see them go offline. The
// recursion bottoms out because each pass strictly shrinks the live set.
func (b *Broadcaster) deliver(targets []target, frame core.Frame) {
	if frame == nil {
		return
	}
	var failed []domain.Token
	for _, t := range targets {
		if err := t.conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.broadcast").Str("token", string(t.token)).Msg("write failed, demoting")
			failed = append(failed, t.token)
			continue
		}
		b.Met.FramesDelivered.Inc()
	}
	for _, token := range failed {
		b.Met.DeliveryFailures.Inc()
		if conn, ok := b.State.Demote(token); ok {
			conn.Close()
			b.Met.ConnectedSessions.Dec()
		}
	}
	if len(failed) > 0 {
		b.Roster()
	}
}

func splitPeerID(p domain.PeerID) [2]string {
	s := string(p)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '_' {
			return [2]string{s[:i], s[i+1:]}
		}
	}
	return [2]string{s, ""}
}
