package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

func (ctl *WSController) handleJoinGroup(
	ctx context.Context,
	token domain.Token,
	conn *WsConn,
	data []byte,
) {
	type joinPayload struct {
		Type    string `json:"type"`
		GroupID string `json:"group_id"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.GroupID == "" {
		ctl.sendError(conn, "missing group_id")
		return
	}

	if !ctl.Relay.JoinGroup(ctx, token, domain.GroupID(p.GroupID)) {
		ctl.sendError(conn, "cannot join group")
		return
	}
	resp := struct {
		Type    string `json:"type"`
		GroupID string `json:"group_id"`
	}{
		Type:    core.EventJoinGroup,
		GroupID: p.GroupID,
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *WSController) handleLeaveGroup(ctx context.Context, token domain.Token, conn *WsConn) {
	if _, ok := ctl.Relay.LeaveGroup(ctx, token); !ok {
		ctl.sendError(conn, "not in a group")
	}
}
