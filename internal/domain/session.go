package domain

import "time"

// Session is the persisted state of one operator. Transport endpoints are
// never stored here; the app layer pairs a Session with its live connection.
type Session struct {
	Token        Token
	Identity     Identity
	DisplayName  string
	Function     string
	MuteSet      map[PeerID]struct{}
	GroupID      string
	LastActiveAt time.Time
}

// NewSession avoids raw literals in adapters and keeps construction obvious.
func NewSession(token Token, id Identity) *Session {
	return &Session{
		Token:        token,
		Identity:     id,
		DisplayName:  id.Surname,
		MuteSet:      make(map[PeerID]struct{}),
		LastActiveAt: time.Now(),
	}
}

func (s *Session) PeerID() PeerID {
	return MakePeerID(s.DisplayName, s.Function)
}

func (s *Session) SetName(name, function string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen || len(function) > MaxFunctionLen {
		return ErrNameTooLong
	}
	s.DisplayName = name
	s.Function = function
	return nil
}

// MutedPeers returns the mute set as a sorted-free slice copy.
func (s *Session) MutedPeers() []PeerID {
	out := make([]PeerID, 0, len(s.MuteSet))
	for p := range s.MuteSet {
		out = append(out, p)
	}
	return out
}
