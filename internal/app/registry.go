package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

type AuthReason string

const (
	AuthInvalidToken  AuthReason = "invalid_token"
	AuthNotRegistered AuthReason = "not_registered"
)

// AuthError is fatal to a connection attempt and never retried.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string { return "auth rejected: " + string(e.Reason) }

// Resolve validates a raw token, rehydrates or creates its session and
// binds the connection. A new connection for a known token supersedes the
// old one. The caller sends the welcome frames on success.
func (r *Relay) Resolve(ctx context.Context, raw string, conn core.Conn) (*domain.Session, error) {
	id, err := domain.ParseToken(raw)
	if err != nil {
		r.Met.AuthFailures.WithLabelValues(string(AuthInvalidToken)).Inc()
		return nil, &AuthError{Reason: AuthInvalidToken}
	}
	if !r.Allow.Allowed(id) {
		r.Met.AuthFailures.WithLabelValues(string(AuthNotRegistered)).Inc()
		return nil, &AuthError{Reason: AuthNotRegistered}
	}
	token := domain.Token(raw)

	sess, ok := r.State.Session(token)
	if !ok {
		sess = r.rehydrate(ctx, token, id)
	}

	if prev := r.State.Attach(sess, conn); prev != nil {
		log.Info().Str("module", "app.registry").Str("token", raw).Msg("superseding previous connection")
		prev.Close()
	} else {
		r.Met.ConnectedSessions.Inc()
	}
	r.persist(ctx, token)
	return sess, nil
}

// rehydrate loads the persisted session for a reconnect, falling back to
// a fresh one. The mute set and group id come back exactly as last saved.
func (r *Relay) rehydrate(ctx context.Context, token domain.Token, id domain.Identity) *domain.Session {
	stored, err := r.Store.LoadSession(ctx, token)
	if err == nil {
		log.Info().Str("module", "app.registry").Str("token", string(token)).Msg("rehydrated persisted session")
		return stored
	}
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		r.Met.PersistErrors.Inc()
		log.Warn().Err(err).Str("module", "app.registry").Str("token", string(token)).Msg("session load failed, starting fresh")
	}
	return domain.NewSession(token, id)
}

// Register sets the operator's display name and function.
func (r *Relay) Register(ctx context.Context, token domain.Token, name, function string) error {
	if err := r.State.Rename(token, name, function); err != nil {
		return err
	}
	r.persist(ctx, token)
	r.Bcast.Roster()
	return nil
}

// Logout deletes the persisted row, drops the session and closes its
// connection. The only non-sweeper path that removes a stored session.
func (r *Relay) Logout(ctx context.Context, token domain.Token) {
	if err := r.Store.DeleteSession(ctx, token); err != nil {
		r.Met.PersistErrors.Inc()
		log.Warn().Err(err).Str("module", "app.registry").Str("token", string(token)).Msg("session delete failed")
	}
	sess, conn := r.State.Remove(token)
	if sess == nil {
		return
	}
	if conn != nil {
		conn.Close()
		r.Met.ConnectedSessions.Dec()
	}
	log.Info().Str("module", "app.registry").Str("token", string(token)).Msg("logout")
	r.Bcast.Roster()
}

// Disconnect releases the connection handle when a read loop exits. The
// session row stays in memory and storage for a later reconnect.
func (r *Relay) Disconnect(ctx context.Context, token domain.Token, conn core.Conn) {
	if !r.State.Detach(token, conn) {
		return
	}
	r.Met.ConnectedSessions.Dec()
	r.persist(ctx, token)
	r.Bcast.Roster()
}

// Touch refreshes activity so the sweeper's idle TTL sees live traffic.
func (r *Relay) Touch(token domain.Token) {
	r.State.Touch(token)
}
