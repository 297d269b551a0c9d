package domain

import "time"

// Transcript sentinels. A client may upload audio before its own
// speech-to-text finished; "pending" asks the server to transcribe.
const (
	TranscriptPending = "pending"
	TranscriptFailed  = "[transcripción no disponible]"
)

// AudioMessage is one push-to-talk transmission. GroupID empty means the
// message addresses every ungrouped operator.
type AudioMessage struct {
	SenderPeerID PeerID
	SenderToken  Token
	Payload      string
	Transcript   string
	Timestamp    string
	GroupID      GroupID
	ReceivedAt   time.Time
}
