package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// SaveMessage inserts one processed transmission.
func (s *SQLStore) SaveMessage(ctx context.Context, m *domain.AudioMessage) error {
	query := `
		INSERT INTO messages (id, sender, payload, transcript, date, timestamp, group_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		m.SenderPeerID,
		m.Payload,
		m.Transcript,
		m.ReceivedAt.Format("2006-01-02"),
		m.Timestamp,
		m.GroupID,
		m.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// ListMessages returns all stored transmissions ordered by date then
// display timestamp.
func (s *SQLStore) ListMessages(ctx context.Context) ([]*domain.AudioMessage, error) {
	query := `
		SELECT sender, payload, transcript, timestamp, group_id, created_at
		FROM messages
		ORDER BY date, timestamp
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.AudioMessage
	for rows.Next() {
		m := &domain.AudioMessage{}
		if err := rows.Scan(&m.SenderPeerID, &m.Payload, &m.Transcript, &m.Timestamp, &m.GroupID, &m.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PurgeMessagesOlderThan removes transmissions received before cutoff.
func (s *SQLStore) PurgeMessagesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge messages: %w", err)
	}
	return res.RowsAffected()
}
