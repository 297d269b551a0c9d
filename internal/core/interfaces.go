package core

import (
	"context"
	"time"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// Frame is a marshaled wire payload.
type Frame []byte

// Conn abstracts the per-session messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// Store is the persistence gateway. All calls are best-effort from the
// app layer's point of view: in-memory state stays authoritative when a
// call fails.
type Store interface {
	SaveSession(ctx context.Context, s *domain.Session) error
	LoadSession(ctx context.Context, token domain.Token) (*domain.Session, error)
	DeleteSession(ctx context.Context, token domain.Token) error
	SaveMessage(ctx context.Context, m *domain.AudioMessage) error
	ListMessages(ctx context.Context) ([]*domain.AudioMessage, error)
	PurgeSessionsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeMessagesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotFoundError is returned by Store.LoadSession for unknown tokens.
// Declared here so the app layer does not import the sqlite adapter.
type NotFoundError struct{ Token domain.Token }

func (e *NotFoundError) Error() string { return "session not found: " + string(e.Token) }

// Transcriber turns a raw audio payload into text within a bounded time.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Allowlist answers whether an identity belongs to the closed operator set.
type Allowlist interface {
	Allowed(id domain.Identity) bool
}
