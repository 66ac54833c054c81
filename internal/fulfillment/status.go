package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// StatusApplier mirrors main-order progress onto the group order.
type StatusApplier interface {
	ApplyFulfillmentStatus(ctx context.Context, groupOrderID string, next model.Status) (*model.GroupOrder, error)
}

// statusUpdate is the payload on the main order status feed.
type statusUpdate struct {
	GroupOrderID string `json:"group_order_id"`
	MainOrderID  string `json:"main_order_id"`
	Status       string `json:"status"`
}

// mainStatuses maps statuses on the feed to group order lifecycle states.
// Updates for statuses outside this map are skipped, not failed.
var mainStatuses = map[string]model.Status{
	"confirmed":  model.StatusConfirmed,
	"preparing":  model.StatusPreparing,
	"ready":      model.StatusReady,
	"on_the_way": model.StatusOnTheWay,
	"delivered":  model.StatusDelivered,
	"cancelled":  model.StatusCancelled,
}

// StatusHandler returns a consumer handler for the main order status feed.
// Messages without a group_order_id belong to individual orders and are
// ignored. Returning an error only for transient faults keeps the consumer
// from looping on malformed input.
func StatusHandler(applier StatusApplier, log *slog.Logger) func(ctx context.Context, msg *kafka.Message) error {
	return func(ctx context.Context, msg *kafka.Message) error {
		var upd statusUpdate
		if err := json.Unmarshal(msg.Value, &upd); err != nil {
			log.Warn("malformed status update, skipping", slog.Any("error", err))
			return nil
		}
		if upd.GroupOrderID == "" {
			return nil
		}

		next, ok := mainStatuses[upd.Status]
		if !ok {
			log.Debug("unmapped status, skipping",
				slog.String("group_order_id", upd.GroupOrderID),
				slog.String("status", upd.Status))
			return nil
		}

		if _, err := applier.ApplyFulfillmentStatus(ctx, upd.GroupOrderID, next); err != nil {
			if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrPhaseViolation) {
				log.Warn("status update not applicable",
					slog.String("group_order_id", upd.GroupOrderID),
					slog.String("status", upd.Status),
					slog.Any("error", err))
				return nil
			}
			return fmt.Errorf("apply status %q to %s: %w", upd.Status, upd.GroupOrderID, err)
		}

		log.Info("fulfillment status mirrored",
			slog.String("group_order_id", upd.GroupOrderID),
			slog.String("status", string(next)))
		return nil
	}
}
