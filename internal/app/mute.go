package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// Mute adds peer to owner's mute set. A session never mutes its own peer id.
func (s *State) Mute(owner domain.Token, peer domain.PeerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[owner]
	if !ok || e.sess.PeerID() == peer {
		return false
	}
	e.sess.MuteSet[peer] = struct{}{}
	return true
}

func (s *State) Unmute(owner domain.Token, peer domain.PeerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[owner]
	if !ok {
		return false
	}
	delete(e.sess.MuteSet, peer)
	return true
}

// MuteNonGroupMembers mutes every online peer outside owner's group and
// returns the list of peer ids that were muted.
func (s *State) MuteNonGroupMembers(owner domain.Token) []domain.PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[owner]
	if !ok {
		return nil
	}
	var muted []domain.PeerID
	for token, other := range s.sessions {
		if token == owner || other.conn == nil {
			continue
		}
		if e.sess.GroupID != "" && other.sess.GroupID == e.sess.GroupID {
			continue
		}
		peer := other.sess.PeerID()
		if _, already := e.sess.MuteSet[peer]; !already {
			e.sess.MuteSet[peer] = struct{}{}
			muted = append(muted, peer)
		}
	}
	return muted
}

// target is one delivery candidate resolved under the state lock.
type target struct {
	token domain.Token
	conn  core.Conn
}

// Recipients resolves the audience of one audio message atomically:
// every live session minus the sender, minus sessions that muted the
// sender, scoped to the message's group. An ungrouped message never
// reaches grouped recipients; group traffic stays inside the group.
// The global mute gate is enforced earlier, at the pipeline.
func (s *State) Recipients(m *domain.AudioMessage) []target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]target, 0, len(s.sessions))
	for token, e := range s.sessions {
		if e.conn == nil || token == m.SenderToken {
			continue
		}
		if _, muted := e.sess.MuteSet[m.SenderPeerID]; muted {
			continue
		}
		if m.GroupID == "" {
			if e.sess.GroupID != "" {
				continue
			}
		} else if e.sess.GroupID != string(m.GroupID) {
			continue
		}
		out = append(out, target{token: token, conn: e.conn})
	}
	return out
}

// Live returns every connected session, optionally excluding one token.
// Used for roster and mute-state fan-outs, which ignore mute policy.
func (s *State) Live(exclude domain.Token) []target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]target, 0, len(s.sessions))
	for token, e := range s.sessions {
		if e.conn == nil || token == exclude {
			continue
		}
		out = append(out, target{token: token, conn: e.conn})
	}
	return out
}

// MuteUser is the relay-level operation: mutate, then persist best-effort.
func (r *Relay) MuteUser(ctx context.Context, owner domain.Token, peer domain.PeerID) bool {
	if !r.State.Mute(owner, peer) {
		return false
	}
	r.persist(ctx, owner)
	log.Info().Str("module", "app.mute").Str("owner", string(owner)).Str("peer", string(peer)).Msg("muted peer")
	return true
}

func (r *Relay) UnmuteUser(ctx context.Context, owner domain.Token, peer domain.PeerID) bool {
	if !r.State.Unmute(owner, peer) {
		return false
	}
	r.persist(ctx, owner)
	log.Info().Str("module", "app.mute").Str("owner", string(owner)).Str("peer", string(peer)).Msg("unmuted peer")
	return true
}

// SetGlobalMute flips the process-wide gate and announces the new state
// to everyone connected.
func (r *Relay) SetGlobalMute(flag bool) {
	r.State.SetGlobalMute(flag)
	r.Bcast.GlobalMuteState(flag)
}

func (r *Relay) MuteNonGroup(ctx context.Context, owner domain.Token) []domain.PeerID {
	muted := r.State.MuteNonGroupMembers(owner)
	if len(muted) > 0 {
		r.persist(ctx, owner)
	}
	return muted
}
