package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStore persists stream records in the streams table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over an open connection pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateStream(ctx context.Context, streamID, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streams (stream_id, conversation_id, status) VALUES ($1, $2, $3)`,
		streamID, conversationID, StatusActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, streamID)
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

func (s *SQLStore) GetStream(ctx context.Context, streamID string) (*StreamRecord, error) {
	var rec StreamRecord
	var terminalAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT stream_id, conversation_id, status, last_event_id, created_at, updated_at, terminal_at
		FROM streams WHERE stream_id = $1`,
		streamID).Scan(
		&rec.StreamID, &rec.ConversationID, &rec.Status,
		&rec.LastEventID, &rec.CreatedAt, &rec.UpdatedAt, &terminalAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, streamID)
		}
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	if terminalAt.Valid {
		rec.TerminalAt = &terminalAt.Time
	}
	return &rec, nil
}

func (s *SQLStore) UpdateProgress(ctx context.Context, streamID string, lastEventID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE streams SET last_event_id = $2, updated_at = now()
		WHERE stream_id = $1 AND last_event_id < $2`,
		streamID, lastEventID)
	if err != nil {
		return fmt.Errorf("failed to update stream progress: %w", err)
	}
	// Zero rows means either a missing stream or an out-of-order update;
	// distinguish so callers can surface unknown streams.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetStream(ctx, streamID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) MarkTerminal(ctx context.Context, streamID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE streams SET status = $2, terminal_at = now(), updated_at = now()
		WHERE stream_id = $1`,
		streamID, status)
	if err != nil {
		return fmt.Errorf("failed to mark stream terminal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, streamID)
	}
	return nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM streams WHERE terminal_at IS NOT NULL AND terminal_at < $1
		RETURNING stream_id`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired streams: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted stream id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted streams: %w", err)
	}
	return ids, nil
}
