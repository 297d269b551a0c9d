package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

func (ctl *WSController) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, token domain.Token, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("token", string(token)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Relay.Disconnect(context.Background(), token, c)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("token", string(token)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("token", string(token)).Msg("readPump read error")
				return
			}
			if done := ctl.handleMessage(ctx, token, c, data); done {
				return
			}
		}
	}
}

// handleMessage dispatches one inbound tagged frame. It returns true when
// the connection must not read further (logout).
func (ctl *WSController) handleMessage(ctx context.Context, token domain.Token, c *WsConn, data []byte) bool {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return false
	}

	switch env.Type {
	case "register":
		ctl.handleRegister(ctx, token, c, data)
	case "subscribe":
		ctl.handleSubscribe(token, c, data)
	case "audio":
		ctl.handleAudio(token, c, data, false)
	case "group_message":
		ctl.handleAudio(token, c, data, true)
	case "logout":
		ctl.handleLogout(ctx, token)
		return true
	case "mute_user":
		ctl.handleMuteUser(ctx, token, c, data, true)
	case "unmute_user":
		ctl.handleMuteUser(ctx, token, c, data, false)
	case "mute_all":
		ctl.handleMuteAll(token, c, true)
	case "unmute_all":
		ctl.handleMuteAll(token, c, false)
	case "mute_non_group":
		ctl.handleMuteNonGroup(ctx, token, c)
	case "join_group":
		ctl.handleJoinGroup(ctx, token, c, data)
	case "leave_group":
		ctl.handleLeaveGroup(ctx, token, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message")
	}
	return false
}

func (ctl *WSController) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *WSController) sendError(c *WsConn, msg string) {
	ctl.sendJSON(c, core.ErrorEvent{Type: core.EventError, Message: msg})
}
