package surgery

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the event store needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgEventStore appends scheduling events to the event_logs table. It is an
// audit trail only; scheduler state is never loaded back from it.
type PgEventStore struct {
	db Execer
}

func NewPgEventStore(db Execer) *PgEventStore {
	return &PgEventStore{db: db}
}

const eventLogsSchema = `
CREATE TABLE IF NOT EXISTS event_logs (
	id          BIGSERIAL PRIMARY KEY,
	event_type  TEXT        NOT NULL,
	request_id  BIGINT      NOT NULL,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (s *PgEventStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, eventLogsSchema); err != nil {
		return fmt.Errorf("create event_logs table: %w", err)
	}
	return nil
}

func (s *PgEventStore) Record(ctx context.Context, ev Event) error {
	data, err := ev.MarshalPayload()
	if err != nil {
		return fmt.Errorf("marshal event payload for %s: %w", ev.Type, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, request_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.Type, ev.Request.ID, data, nullableTime(ev.OccurredAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
