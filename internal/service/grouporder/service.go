// Package grouporder is the coordination engine: the single mutation gateway
// for GroupOrder aggregates. Every mutating call re-reads the aggregate,
// checks the caller's revision, applies the change, re-validates the
// aggregate invariants and persists with a compare-and-swap, all as one
// atomic unit. Domain events ride the same commit through the outbox.
package grouporder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/domain/money"
	"github.com/cribnosh/group-ordering/internal/offers"
	"github.com/cribnosh/group-ordering/internal/telemetry"
)

// systemRetries bounds the internal retry loop for system-initiated
// mutations (conversion results, status mirroring). Caller-initiated
// mutations are never retried here; the caller owns that loop.
const systemRetries = 3

type Store interface {
	Create(ctx context.Context, o *model.GroupOrder, msgs []*model.OutboxMessage) error
	Get(ctx context.Context, groupOrderID string) (*model.GroupOrder, error)
	GetByShareToken(ctx context.Context, token string) (*model.GroupOrder, error)
	UpdateCAS(ctx context.Context, o *model.GroupOrder, expectedRevision int64, msgs []*model.OutboxMessage) error
	ListExpired(ctx context.Context, now int64) ([]string, error)
	ListClosed(ctx context.Context) ([]string, error)
}

// Cache is the optional read-side snapshot cache. The engine invalidates it
// on every commit; readers fill it.
type Cache interface {
	Get(ctx context.Context, groupOrderID string) (*model.GroupOrder, bool)
	Set(ctx context.Context, o *model.GroupOrder)
	Invalidate(ctx context.Context, groupOrderID string)
}

type Config struct {
	Currency     money.Currency
	ExpiresIn    time.Duration
	ShareTTL     time.Duration
	ShareBaseURL string
	// SelectionMinBudget auto-advances budgeting -> selecting once the
	// total budget reaches it. Zero disables the rule; the creator can
	// always advance manually.
	SelectionMinBudget int64
	// AutoCloseOnReady closes the order as soon as every participant is
	// ready, instead of waiting for the creator.
	AutoCloseOnReady bool
	EventTopic       string
}

type Service struct {
	logger *slog.Logger
	store  Store
	cache  Cache
	offers offers.Evaluator
	cfg    Config
	now    func() time.Time
}

func NewService(l *slog.Logger, store Store, cache Cache, evaluator offers.Evaluator, cfg Config) *Service {
	return &Service{
		logger: l,
		store:  store,
		cache:  cache,
		offers: evaluator,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// mutator applies one change to a loaded aggregate and reports the domain
// events it produced.
type mutator func(o *model.GroupOrder) ([]model.Event, error)

// load fetches the aggregate and lazily applies expiry before anything else
// sees it.
func (s *Service) load(ctx context.Context, groupOrderID string) (*model.GroupOrder, error) {
	o, err := s.store.Get(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	return s.applyExpiry(ctx, o)
}

// applyExpiry enforces expires_at without a background scheduler: an expired
// active order is closed, or cancelled when nobody ever picked anything.
func (s *Service) applyExpiry(ctx context.Context, o *model.GroupOrder) (*model.GroupOrder, error) {
	now := s.now()
	if o.Status != model.StatusActive || !o.Expired(now) {
		return o, nil
	}

	expected := o.Revision
	var events []model.Event
	if o.HasSelections() {
		ev := s.evaluateDiscount(o)
		if err := o.Close(ev.DiscountAmount, now); err != nil {
			return nil, err
		}
		events = append(events, s.event(model.EventClosed, o, "", map[string]any{
			"reason":       "expired",
			"final_amount": o.FinalAmount,
		}))
	} else {
		if err := o.Cancel(); err != nil {
			return nil, err
		}
		events = append(events, s.event(model.EventCancelled, o, "", map[string]any{"reason": "expired"}))
	}

	o.UpdatedAt = now
	o.Revision++
	msgs, err := s.outboxMessages(o, events)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCAS(ctx, o, expected, msgs); err != nil {
		if errors.Is(err, model.ErrConcurrentModification) {
			// Someone else expired it first; take their result.
			return s.store.Get(ctx, o.GroupOrderID)
		}
		return nil, err
	}
	s.invalidate(ctx, o.GroupOrderID)
	s.logger.Info("group order expired",
		slog.String("group_order_id", o.GroupOrderID),
		slog.String("status", string(o.Status)))
	return o, nil
}

// mutate is the caller-facing commit path: revision check, change, invariant
// re-validation, CAS persist.
func (s *Service) mutate(ctx context.Context, groupOrderID string, callerRev int64, fn mutator) (*model.GroupOrder, error) {
	o, err := s.load(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, o, callerRev, fn)
}

func (s *Service) commit(ctx context.Context, o *model.GroupOrder, callerRev int64, fn mutator) (*model.GroupOrder, error) {
	if o.Revision != callerRev {
		telemetry.RevisionConflicts.Inc()
		return nil, model.ErrConcurrentModification
	}

	events, err := fn(o)
	if err != nil {
		return nil, err
	}

	o.UpdatedAt = s.now()
	o.Revision++
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invariant check: %w", err)
	}

	msgs, err := s.outboxMessages(o, events)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCAS(ctx, o, callerRev, msgs); err != nil {
		if errors.Is(err, model.ErrConcurrentModification) {
			telemetry.RevisionConflicts.Inc()
		}
		return nil, err
	}
	s.invalidate(ctx, o.GroupOrderID)
	return o, nil
}

// systemMutate is the commit path for mutations the system itself initiates.
// It retries a bounded number of times on revision conflicts.
func (s *Service) systemMutate(ctx context.Context, groupOrderID string, fn mutator) (*model.GroupOrder, error) {
	var lastErr error
	for attempt := 0; attempt < systemRetries; attempt++ {
		o, err := s.load(ctx, groupOrderID)
		if err != nil {
			return nil, err
		}
		res, err := s.commit(ctx, o, o.Revision, fn)
		if errors.Is(err, model.ErrConcurrentModification) {
			lastErr = err
			continue
		}
		return res, err
	}
	return nil, lastErr
}

func (s *Service) evaluateDiscount(o *model.GroupOrder) offers.Evaluation {
	total := int64(0)
	for i := range o.Participants {
		total += o.Participants[i].TotalContribution
	}
	ev, ok := s.offers.Evaluate(total, len(o.Participants))
	if !ok {
		return offers.Evaluation{FinalAmount: total}
	}
	return ev
}

// maybeStartSelecting applies the configurable budgeting -> selecting rule
// after a budget change.
func (s *Service) maybeStartSelecting(o *model.GroupOrder) bool {
	if o.SelectionPhase != model.PhaseBudgeting {
		return false
	}
	if s.cfg.SelectionMinBudget <= 0 || o.TotalBudget < s.cfg.SelectionMinBudget {
		return false
	}
	return o.StartSelecting() == nil
}

func (s *Service) event(typ model.EventType, o *model.GroupOrder, userID string, payload map[string]any) model.Event {
	return model.Event{
		Type:         typ,
		GroupOrderID: o.GroupOrderID,
		UserID:       userID,
		Revision:     o.Revision,
		OccurredAt:   s.now(),
		Payload:      payload,
	}
}

func (s *Service) outboxMessages(o *model.GroupOrder, events []model.Event) ([]*model.OutboxMessage, error) {
	msgs := make([]*model.OutboxMessage, 0, len(events))
	for i := range events {
		events[i].Revision = o.Revision
		payload, err := json.Marshal(events[i])
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}
		msgs = append(msgs, &model.OutboxMessage{
			Topic:     s.cfg.EventTopic,
			Key:       o.GroupOrderID,
			EventType: string(events[i].Type),
			Payload:   payload,
			Headers:   map[string]string{"group-order-id": o.GroupOrderID},
		})
	}
	return msgs, nil
}

func (s *Service) invalidate(ctx context.Context, groupOrderID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, groupOrderID)
	}
}
