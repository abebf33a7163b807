package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// EventLog is one accepted event recorded for auditing. Inserts are
// best-effort: a write failure never fails the originating request.
type EventLog struct {
	ID          int64
	Demozone    string
	EventName   string
	BrokerBound bool
	Payload     []byte
	CreatedAt   time.Time
}

type EventLogStore interface {
	Create(ctx context.Context, log *EventLog) error
	GetByID(ctx context.Context, id int64) (*EventLog, error)
	ListRecent(ctx context.Context, limit int32) ([]EventLog, error)
}

type pgEventLogStore struct {
	pool *pgxpool.Pool
}

func NewEventLogStore(pool *pgxpool.Pool) EventLogStore {
	return &pgEventLogStore{pool: pool}
}

func (s *pgEventLogStore) Create(ctx context.Context, log *EventLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_logs (id, demozone, event_name, broker_bound, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.Demozone, log.EventName, log.BrokerBound, log.Payload, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event log: %w", err)
	}
	return nil
}

func (s *pgEventLogStore) GetByID(ctx context.Context, id int64) (*EventLog, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, demozone, event_name, broker_bound, payload, created_at
		FROM event_logs WHERE id = $1`, id)

	var log EventLog
	err := row.Scan(&log.ID, &log.Demozone, &log.EventName, &log.BrokerBound, &log.Payload, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting event log: %w", err)
	}
	return &log, nil
}

func (s *pgEventLogStore) ListRecent(ctx context.Context, limit int32) ([]EventLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, demozone, event_name, broker_bound, payload, created_at
		FROM event_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing event logs: %w", err)
	}
	defer rows.Close()

	var logs []EventLog
	for rows.Next() {
		var log EventLog
		if err := rows.Scan(&log.ID, &log.Demozone, &log.EventName, &log.BrokerBound, &log.Payload, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
