package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

func (s *Storage) Create(ctx context.Context, o *model.GroupOrder, msgs []*model.OutboxMessage) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal aggregate: %w", err)
		}

		query := `INSERT INTO group_orders
                      (id, group_order_id, share_token, status, revision, expires_at, created_at, updated_at, doc)
                  VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)`

		if _, err = s.conn(ctx).Exec(ctx, query,
			o.ID, o.GroupOrderID, o.ShareToken, o.Status, o.Revision,
			o.ExpiresAt, o.CreatedAt, o.UpdatedAt, doc); err != nil {
			return fmt.Errorf("insert group order: %w", err)
		}

		for _, msg := range msgs {
			if err = s.InsertOutboxMsg(ctx, msg); err != nil {
				return fmt.Errorf("insert outbox msg: %w", err)
			}
		}
		return nil
	})
}

func (s *Storage) Get(ctx context.Context, groupOrderID string) (*model.GroupOrder, error) {
	query := `SELECT doc FROM group_orders WHERE group_order_id = $1`
	return s.getOne(ctx, query, groupOrderID)
}

func (s *Storage) GetByShareToken(ctx context.Context, token string) (*model.GroupOrder, error) {
	query := `SELECT doc FROM group_orders WHERE share_token = $1`
	return s.getOne(ctx, query, token)
}

func (s *Storage) getOne(ctx context.Context, query string, arg any) (*model.GroupOrder, error) {
	var doc []byte
	if err := s.conn(ctx).QueryRow(ctx, query, arg).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("query group order: %w", err)
	}

	var o model.GroupOrder
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("unmarshal aggregate: %w", err)
	}
	return &o, nil
}

// UpdateCAS persists the aggregate only if the stored revision still matches
// expectedRevision. Outbox messages ride the same transaction, so a lost CAS
// race leaves no trace.
func (s *Storage) UpdateCAS(ctx context.Context, o *model.GroupOrder, expectedRevision int64, msgs []*model.OutboxMessage) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal aggregate: %w", err)
		}

		query := `UPDATE group_orders
                  SET share_token = NULLIF($1, ''),
                      status      = $2,
                      revision    = $3,
                      updated_at  = $4,
                      doc         = $5
                  WHERE group_order_id = $6 AND revision = $7`

		tag, err := s.conn(ctx).Exec(ctx, query,
			o.ShareToken, o.Status, o.Revision, o.UpdatedAt, doc,
			o.GroupOrderID, expectedRevision)
		if err != nil {
			return fmt.Errorf("update group order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := s.conn(ctx).QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM group_orders WHERE group_order_id = $1)`,
				o.GroupOrderID).Scan(&exists); err != nil {
				return fmt.Errorf("check existence: %w", err)
			}
			if !exists {
				return model.ErrNotFound
			}
			return model.ErrConcurrentModification
		}

		for _, msg := range msgs {
			if err = s.InsertOutboxMsg(ctx, msg); err != nil {
				return fmt.Errorf("insert outbox msg: %w", err)
			}
		}
		return nil
	})
}

// ListClosed returns orders awaiting conversion into a main order.
func (s *Storage) ListClosed(ctx context.Context) ([]string, error) {
	query := `SELECT group_order_id FROM group_orders
              WHERE status = 'closed'
              ORDER BY updated_at
              LIMIT 500`

	rows, err := s.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list closed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan closed id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed rows: %w", err)
	}
	return ids, nil
}

// ListExpired returns active orders whose expires_at has passed, for the
// periodic sweep.
func (s *Storage) ListExpired(ctx context.Context, now int64) ([]string, error) {
	query := `SELECT group_order_id FROM group_orders
              WHERE status = 'active' AND expires_at < to_timestamp($1)
              LIMIT 500`

	rows, err := s.conn(ctx).Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired rows: %w", err)
	}
	return ids, nil
}
