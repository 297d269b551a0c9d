package core

import (
	"encoding/json"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

// Outbound event types. Inbound message types live in the signal adapter;
// these are shared because the app layer broadcasts some of them itself.
const (
	EventConnectionSuccess = "connection_success"
	EventMuteState         = "mute_state"
	EventUsers             = "users"
	EventAudio             = "audio"
	EventGroupMessage      = "group_message"
	EventJoinGroup         = "join_group"
	EventError             = "error"
)

// RosterEntry is a read-only view of one online operator (no transport fields).
type RosterEntry struct {
	Name    string         `json:"name"`
	UserID  domain.PeerID  `json:"user_id"`
	GroupID domain.GroupID `json:"group_id,omitempty"`
}

type UsersEvent struct {
	Type  string        `json:"type"`
	Count int           `json:"count"`
	List  []RosterEntry `json:"list"`
}

type MuteStateEvent struct {
	Type             string `json:"type"`
	GlobalMuteActive bool   `json:"global_mute_active"`
}

type AudioEvent struct {
	Type      string         `json:"type"`
	Data      string         `json:"data"`
	Sender    string         `json:"sender"`
	Function  string         `json:"function"`
	UserID    domain.PeerID  `json:"user_id"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp"`
	GroupID   domain.GroupID `json:"group_id,omitempty"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MustFrame marshals an event; a marshal failure here is a programming
// error on a fixed struct, so it only logs and returns nil.
func MustFrame(v any) Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core").Msg("event marshal")
		return nil
	}
	return b
}
