package app

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

var ErrNoSession = errors.New("no such session")

// entry pairs a session with its live transport endpoint, if any.
type entry struct {
	sess *domain.Session
	conn core.Conn
}

// State is the single owned home of all mutable relay state: the session
// map, the group map and the global mute flag. Every mutation completes
// under one lock before any socket or store I/O happens, so concurrent
// handlers observe whole mutations, never halves.
type State struct {
	mu         sync.Mutex
	sessions   map[domain.Token]*entry
	groups     map[domain.GroupID]*domain.Group
	globalMute bool
}

func NewState() *State {
	return &State{
		sessions: make(map[domain.Token]*entry),
		groups:   make(map[domain.GroupID]*domain.Group),
	}
}

// Attach binds a connection to a token, creating or replacing the entry.
// It returns the superseded connection (nil if none) for the caller to
// close outside the lock: a token has at most one live connection.
func (s *State) Attach(sess *domain.Session, conn core.Conn) core.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev core.Conn
	if e, ok := s.sessions[sess.Token]; ok {
		prev = e.conn
		e.conn = conn
		e.sess.LastActiveAt = time.Now()
	} else {
		sess.LastActiveAt = time.Now()
		s.sessions[sess.Token] = &entry{sess: sess, conn: conn}
		if sess.GroupID != "" {
			s.addToGroupLocked(sess.Token, domain.GroupID(sess.GroupID))
		}
	}
	log.Info().Str("module", "app.state").Str("token", string(sess.Token)).Msg("attached connection")
	return prev
}

// Detach clears the connection only if it is still the given one, so a
// late read-loop exit never clobbers a superseding connection.
func (s *State) Detach(token domain.Token, conn core.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok || e.conn != conn {
		return false
	}
	e.conn = nil
	e.sess.LastActiveAt = time.Now()
	log.Info().Str("module", "app.state").Str("token", string(token)).Msg("detached connection")
	return true
}

// Demote unconditionally clears a session's connection after a failed
// write and returns it so the caller can close it.
func (s *State) Demote(token domain.Token) (core.Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok || e.conn == nil {
		return nil, false
	}
	conn := e.conn
	e.conn = nil
	e.sess.LastActiveAt = time.Now()
	log.Warn().Str("module", "app.state").Str("token", string(token)).Msg("demoted session")
	return conn, true
}

// Remove drops the session entirely (logout). Returns the live connection
// (nil if offline) and its session for cleanup outside the lock.
func (s *State) Remove(token domain.Token) (*domain.Session, core.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	s.removeFromGroupLocked(token)
	delete(s.sessions, token)
	return e.sess, e.conn
}

// Session returns a lookup by token. The pointer is shared; mutating
// callers must go through State methods.
func (s *State) Session(token domain.Token) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

func (s *State) Online(token domain.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	return ok && e.conn != nil
}

func (s *State) GlobalMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalMute
}

func (s *State) SetGlobalMute(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalMute = v
	log.Info().Str("module", "app.state").Bool("global_mute", v).Msg("global mute set")
}

func (s *State) addToGroupLocked(token domain.Token, gid domain.GroupID) {
	g, ok := s.groups[gid]
	if !ok {
		g = domain.NewGroup(gid)
		s.groups[gid] = g
	}
	g.Members[token] = struct{}{}
}

func (s *State) removeFromGroupLocked(token domain.Token) (domain.GroupID, bool) {
	e, ok := s.sessions[token]
	if !ok || e.sess.GroupID == "" {
		return "", false
	}
	gid := domain.GroupID(e.sess.GroupID)
	e.sess.GroupID = ""
	if g, ok := s.groups[gid]; ok {
		delete(g.Members, token)
		if len(g.Members) == 0 {
			delete(s.groups, gid)
			log.Info().Str("module", "app.state").Str("group", string(gid)).Msg("group emptied, removed")
		}
	}
	return gid, true
}

// JoinGroup moves a token into gid, leaving any prior group first.
// A session belongs to at most one group.
func (s *State) JoinGroup(token domain.Token, gid domain.GroupID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return false
	}
	s.removeFromGroupLocked(token)
	s.addToGroupLocked(token, gid)
	e.sess.GroupID = string(gid)
	log.Info().Str("module", "app.state").Str("token", string(token)).Str("group", string(gid)).Msg("joined group")
	return true
}

func (s *State) LeaveGroup(token domain.Token) (domain.GroupID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeFromGroupLocked(token)
}

func (s *State) GroupExists(gid domain.GroupID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[gid]
	return ok
}

// Touch refreshes a session's activity timestamp.
func (s *State) Touch(token domain.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[token]; ok {
		e.sess.LastActiveAt = time.Now()
	}
}

// Rename sets display name and function, the fields the peer id derives from.
func (s *State) Rename(token domain.Token, name, function string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return ErrNoSession
	}
	return e.sess.SetName(name, function)
}

// Snapshot returns a deep copy of a session for persistence, so the store
// never reads fields while a handler mutates them.
func (s *State) Snapshot(token domain.Token) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, false
	}
	cp := *e.sess
	cp.MuteSet = make(map[domain.PeerID]struct{}, len(e.sess.MuteSet))
	for p := range e.sess.MuteSet {
		cp.MuteSet[p] = struct{}{}
	}
	return cp, true
}

// Roster recomputes the full online list.
func (s *State) Roster() []core.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RosterEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		if e.conn == nil {
			continue
		}
		out = append(out, core.RosterEntry{
			Name:    e.sess.DisplayName,
			UserID:  e.sess.PeerID(),
			GroupID: domain.GroupID(e.sess.GroupID),
		})
	}
	return out
}
