package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

func (ctl *WSController) handleMuteUser(
	ctx context.Context,
	token domain.Token,
	conn *WsConn,
	data []byte,
	mute bool,
) {
	type mutePayload struct {
		Type         string `json:"type"`
		TargetUserID string `json:"target_user_id"`
	}
	var p mutePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad mute payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.TargetUserID == "" {
		ctl.sendError(conn, "missing target_user_id")
		return
	}

	target := domain.PeerID(p.TargetUserID)
	var ok bool
	if mute {
		ok = ctl.Relay.MuteUser(ctx, token, target)
	} else {
		ok = ctl.Relay.UnmuteUser(ctx, token, target)
	}
	if !ok {
		ctl.sendError(conn, "cannot mute "+p.TargetUserID)
	}
}

func (ctl *WSController) handleMuteAll(token domain.Token, conn *WsConn, mute bool) {
	log.Info().Str("module", "signal").Str("token", string(token)).Bool("mute", mute).Msg("global mute toggle")
	ctl.Relay.SetGlobalMute(mute)
	if mute {
		ctl.sendJSON(conn, map[string]any{"type": "mute_all_success"})
	} else {
		ctl.sendJSON(conn, map[string]any{"type": "unmute_all_success"})
	}
}

func (ctl *WSController) handleMuteNonGroup(ctx context.Context, token domain.Token, conn *WsConn) {
	muted := ctl.Relay.MuteNonGroup(ctx, token)
	resp := struct {
		Type       string          `json:"type"`
		MutedUsers []domain.PeerID `json:"muted_users"`
	}{
		Type:       "mute_non_group_success",
		MutedUsers: muted,
	}
	if resp.MutedUsers == nil {
		resp.MutedUsers = []domain.PeerID{}
	}
	ctl.sendJSON(conn, resp)
}
