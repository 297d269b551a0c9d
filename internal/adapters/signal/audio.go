package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// handleAudio enqueues a transmission. Scope comes from the message tag:
// group_message addresses the sender's current group, plain audio the
// ungrouped audience. Sender identity on the wire is ignored; the peer id
// derives from the registered session.
func (ctl *WSController) handleAudio(
	token domain.Token,
	conn *WsConn,
	data []byte,
	asGroup bool,
) {
	type audioPayload struct {
		Type      string `json:"type"`
		Data      string `json:"data"`
		Sender    string `json:"sender"`
		Function  string `json:"function"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}
	var p audioPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad audio payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Data == "" {
		ctl.sendError(conn, "empty audio")
		return
	}

	if !ctl.Relay.EnqueueAudio(token, p.Data, p.Text, p.Timestamp, asGroup) {
		if asGroup {
			ctl.sendError(conn, "not in a group")
			return
		}
		log.Warn().Str("module", "signal").Str("token", string(token)).Msg("audio discarded")
	}
}
