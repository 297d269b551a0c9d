package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// SQLStore provides data access for sessions and messages.
type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// SaveSession upserts the persisted form of a session.
func (s *SQLStore) SaveSession(ctx context.Context, sess *domain.Session) error {
	muteJSON, err := json.Marshal(sess.MutedPeers())
	if err != nil {
		return fmt.Errorf("failed to serialize mute set: %w", err)
	}

	query := `
		INSERT INTO sessions (token, employee_id, surname, sector, display_name, function, mute_set, group_id, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			display_name = excluded.display_name,
			function = excluded.function,
			mute_set = excluded.mute_set,
			group_id = excluded.group_id,
			last_active_at = excluded.last_active_at
	`

	_, err = s.db.ExecContext(ctx, query,
		sess.Token,
		sess.Identity.EmployeeID,
		sess.Identity.Surname,
		sess.Identity.Sector,
		sess.DisplayName,
		sess.Function,
		string(muteJSON),
		sess.GroupID,
		sess.LastActiveAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession retrieves a session by token, without a connection handle.
func (s *SQLStore) LoadSession(ctx context.Context, token domain.Token) (*domain.Session, error) {
	query := `
		SELECT token, employee_id, surname, sector, display_name, function, mute_set, group_id, last_active_at
		FROM sessions
		WHERE token = ?
	`

	sess := &domain.Session{}
	var muteJSON string
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&sess.Token,
		&sess.Identity.EmployeeID,
		&sess.Identity.Surname,
		&sess.Identity.Sector,
		&sess.DisplayName,
		&sess.Function,
		&muteJSON,
		&sess.GroupID,
		&sess.LastActiveAt,
	)
	if err == sql.ErrNoRows {
		return nil, &core.NotFoundError{Token: token}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var muted []domain.PeerID
	if err := json.Unmarshal([]byte(muteJSON), &muted); err != nil {
		return nil, fmt.Errorf("failed to parse mute set: %w", err)
	}
	sess.MuteSet = make(map[domain.PeerID]struct{}, len(muted))
	for _, p := range muted {
		sess.MuteSet[p] = struct{}{}
	}
	return sess, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, token domain.Token) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeSessionsOlderThan removes sessions idle since before cutoff.
func (s *SQLStore) PurgeSessionsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_active_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}
