package pg

import (
	"context"
	"fmt"
)

// schema is applied on startup so the service can run against a fresh
// database without an external migration step.
const schema = `
CREATE TABLE IF NOT EXISTS group_orders (
    id              TEXT PRIMARY KEY,
    group_order_id  TEXT NOT NULL UNIQUE,
    share_token     TEXT UNIQUE,
    status          TEXT NOT NULL,
    revision        BIGINT NOT NULL,
    expires_at      TIMESTAMPTZ NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL,
    doc             JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_orders_status_expires
    ON group_orders (status, expires_at);

CREATE TABLE IF NOT EXISTS outbox (
    id           BIGSERIAL PRIMARY KEY,
    topic        TEXT NOT NULL,
    key          TEXT NOT NULL,
    event_type   TEXT NOT NULL,
    payload      BYTEA NOT NULL,
    headers      JSONB NOT NULL DEFAULT '{}'::jsonb,
    retry_count  INT NOT NULL DEFAULT 0,
    last_error   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
    ON outbox (created_at) WHERE published_at IS NULL;
`

func (s *Storage) RunMigrations(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
