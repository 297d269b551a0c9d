package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

// Shared in-memory fakes for the relay tests.

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("stale handle")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// events decodes each captured frame into its type plus raw body.
func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func (c *fakeConn) countType(name string) int {
	n := 0
	for _, e := range c.events() {
		if strings.Contains(e, `"type":"`+name+`"`) {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu             sync.Mutex
	sessions       map[domain.Token]*domain.Session
	messages       []*domain.AudioMessage
	sessionCutoffs []time.Time
	messageCutoffs []time.Time
	failSaves      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[domain.Token]*domain.Session)}
}

func (s *fakeStore) SaveSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk on fire")
	}
	cp := *sess
	cp.MuteSet = make(map[domain.PeerID]struct{}, len(sess.MuteSet))
	for p := range sess.MuteSet {
		cp.MuteSet[p] = struct{}{}
	}
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *fakeStore) LoadSession(_ context.Context, token domain.Token) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, &core.NotFoundError{Token: token}
	}
	cp := *sess
	cp.MuteSet = make(map[domain.PeerID]struct{}, len(sess.MuteSet))
	for p := range sess.MuteSet {
		cp.MuteSet[p] = struct{}{}
	}
	return &cp, nil
}

func (s *fakeStore) DeleteSession(_ context.Context, token domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *fakeStore) SaveMessage(_ context.Context, m *domain.AudioMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk on fire")
	}
	s.messages = append(s.messages, m)
	return nil
}

func (s *fakeStore) ListMessages(_ context.Context) ([]*domain.AudioMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AudioMessage(nil), s.messages...), nil
}

func (s *fakeStore) PurgeSessionsOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionCutoffs = append(s.sessionCutoffs, cutoff)
	return 0, nil
}

func (s *fakeStore) PurgeMessagesOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCutoffs = append(s.messageCutoffs, cutoff)
	return 0, nil
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t *fakeTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return t.text, t.err
}

func newTestRelay(st *fakeStore, tr core.Transcriber) *Relay {
	if st == nil {
		st = newFakeStore()
	}
	if tr == nil {
		tr = &fakeTranscriber{text: "copiado"}
	}
	return NewRelay(st, tr, StaticAllowlist(nil), metrics.NewWith(prometheus.NewRegistry()), 16, OverflowDropOldest)
}

// connect resolves a token and returns its fake connection.
func connect(r *Relay, raw string) (*fakeConn, *domain.Session, error) {
	conn := &fakeConn{}
	sess, err := r.Resolve(context.Background(), raw, conn)
	return conn, sess, err
}
