// Package conversion turns a closed group order into exactly one canonical
// downstream order. The order-creation call is idempotent on group_order_id,
// so a crashed or repeated conversion never double-creates.
package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/fulfillment"
	"github.com/cribnosh/group-ordering/internal/telemetry"
)

// Engine is the slice of the coordination engine the pipeline needs.
type Engine interface {
	GetState(ctx context.Context, groupOrderID string) (*model.GroupOrder, error)
	Confirm(ctx context.Context, groupOrderID, mainOrderID string) (*model.GroupOrder, error)
	FailConversion(ctx context.Context, groupOrderID, reason string) (*model.GroupOrder, error)
	ListClosed(ctx context.Context) ([]string, error)
}

// OrderCreator is the external order-creation collaborator.
type OrderCreator interface {
	CreateOrder(ctx context.Context, snap model.Snapshot) (string, error)
}

type Pipeline struct {
	logger     *slog.Logger
	engine     Engine
	creator    OrderCreator
	maxRetries int
	backoff    time.Duration
}

func NewPipeline(l *slog.Logger, engine Engine, creator OrderCreator, maxRetries int, backoff time.Duration) *Pipeline {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Pipeline{
		logger:     l,
		engine:     engine,
		creator:    creator,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Convert drives one group order from closed to confirmed (or cancelled on a
// terminal failure). Converting an already-confirmed order is a no-op and
// returns the existing result.
func (p *Pipeline) Convert(ctx context.Context, groupOrderID string) (*model.GroupOrder, error) {
	o, err := p.engine.GetState(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case model.StatusClosed:
		// proceed
	case model.StatusActive:
		return nil, fmt.Errorf("%w: order is still active", model.ErrPhaseViolation)
	case model.StatusCancelled:
		return nil, fmt.Errorf("%w: order was cancelled", model.ErrConversionFailed)
	default:
		// Confirmed or further along: a previous conversion already won.
		return o, nil
	}

	snap := o.Snapshot()
	mainOrderID, err := p.createWithRetry(ctx, snap)
	if err != nil {
		telemetry.ConversionsTotal.WithLabelValues("failed").Inc()
		if _, failErr := p.engine.FailConversion(ctx, groupOrderID, err.Error()); failErr != nil {
			p.logger.Error("failed to record conversion failure",
				slog.String("group_order_id", groupOrderID),
				slog.Any("error", failErr))
		}
		return nil, fmt.Errorf("%w: %v", model.ErrConversionFailed, err)
	}

	result, err := p.engine.Confirm(ctx, groupOrderID, mainOrderID)
	if err != nil {
		return nil, fmt.Errorf("confirm after conversion: %w", err)
	}

	telemetry.ConversionsTotal.WithLabelValues("confirmed").Inc()
	p.logger.Info("group order converted",
		slog.String("group_order_id", groupOrderID),
		slog.String("main_order_id", mainOrderID),
		slog.Int64("final_amount", snap.FinalAmount))
	return result, nil
}

// ConvertPending converts every order still sitting in closed. Closing can
// happen outside a request handler (lazy expiry, the sweep, auto-close on
// ready) and an inline conversion can die with its process, so this is the
// path that guarantees a closed order eventually reaches confirmed or
// cancelled. Safe to call repeatedly: Convert is idempotent and a terminal
// failure moves the order out of closed.
func (p *Pipeline) ConvertPending(ctx context.Context) (int, error) {
	ids, err := p.engine.ListClosed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list closed orders: %w", err)
	}

	converted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return converted, ctx.Err()
		}
		if _, err := p.Convert(ctx, id); err != nil {
			p.logger.Error("pending conversion failed",
				slog.String("group_order_id", id),
				slog.Any("error", err))
			continue
		}
		converted++
	}
	return converted, nil
}

func (p *Pipeline) createWithRetry(ctx context.Context, snap model.Snapshot) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		orderID, err := p.creator.CreateOrder(ctx, snap)
		if err == nil {
			return orderID, nil
		}
		lastErr = err
		if !fulfillment.IsRetryable(err) {
			return "", err
		}
		p.logger.Warn("order creation attempt failed",
			slog.String("group_order_id", snap.GroupOrderID),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if attempt < p.maxRetries && p.backoff > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}
	}
	return "", lastErr
}
