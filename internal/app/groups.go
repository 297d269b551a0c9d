package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// JoinGroup moves the session into gid, leaving any prior group first,
// persists and re-announces the roster.
func (r *Relay) JoinGroup(ctx context.Context, token domain.Token, gid domain.GroupID) bool {
	if gid == "" {
		return false
	}
	if !r.State.JoinGroup(token, gid) {
		return false
	}
	log.Info().Str("module", "app.groups").Str("token", string(token)).Str("group", string(gid)).Msg("join group")
	r.persist(ctx, token)
	r.Bcast.Roster()
	return true
}

// LeaveGroup removes the session from its group. The group vanishes with
// its last member.
func (r *Relay) LeaveGroup(ctx context.Context, token domain.Token) (domain.GroupID, bool) {
	gid, ok := r.State.LeaveGroup(token)
	if !ok {
		return "", false
	}
	log.Info().Str("module", "app.groups").Str("token", string(token)).Str("group", string(gid)).Msg("leave group")
	r.persist(ctx, token)
	r.Bcast.Roster()
	return gid, true
}
