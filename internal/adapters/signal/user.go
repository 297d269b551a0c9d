package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

func (ctl *WSController) handleRegister(
	ctx context.Context,
	token domain.Token,
	conn *WsConn,
	data []byte,
) {
	type registerPayload struct {
		Type     string `json:"type"`
		Name     string `json:"name"`
		Function string `json:"function"`
	}
	var p registerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad register payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	log.Info().Str("module", "signal").Str("token", string(token)).Str("name", p.Name).Str("function", p.Function).Msg("register")
	if err := ctl.Relay.Register(ctx, token, p.Name, p.Function); err != nil {
		ctl.sendError(conn, "invalid_name")
		return
	}
}

// handleSubscribe records the client's channel interest. The relay keeps
// no per-subscription routing; the tag only refreshes activity.
func (ctl *WSController) handleSubscribe(
	token domain.Token,
	conn *WsConn,
	data []byte,
) {
	type subscribePayload struct {
		Type         string `json:"type"`
		Subscription string `json:"subscription"`
	}
	var p subscribePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad subscribe payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("token", string(token)).Str("subscription", p.Subscription).Msg("subscribe")
	ctl.Relay.Touch(token)
}

// handleLogout — cleanup first, then the read loop closes the socket.
func (ctl *WSController) handleLogout(ctx context.Context, token domain.Token) {
	log.Info().Str("module", "signal").Str("token", string(token)).Msg("logout")
	ctl.Relay.Logout(ctx, token)
}
