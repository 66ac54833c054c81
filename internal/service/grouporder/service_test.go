package grouporder

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/domain/money"
	"github.com/cribnosh/group-ordering/internal/offers"
	"github.com/cribnosh/group-ordering/internal/storage/memory"
)

var discardLogger = slog.New(slog.DiscardHandler)

type fixture struct {
	svc   *Service
	store *memory.Store
	now   time.Time
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()
	cfg := Config{
		Currency:     money.GBP,
		ExpiresIn:    24 * time.Hour,
		ShareTTL:     30 * 24 * time.Hour,
		ShareBaseURL: "https://cribnosh.app",
		EventTopic:   "group-order-events",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	store := memory.New()
	f := &fixture{
		store: store,
		now:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(discardLogger, store, nil, tenPercentMinTwo(), cfg)
	f.svc.now = func() time.Time { return f.now }
	return f
}

// tenPercentMinTwo is the offer from the closing scenario: 10% off with at
// least two participants.
func tenPercentMinTwo() offers.Evaluator {
	return offers.NewRuleEvaluator(offers.Rule{
		OfferID:         "ten-off-groups",
		DiscountType:    money.Percentage,
		DiscountValue:   10,
		MinParticipants: 2,
	})
}

func (f *fixture) create(t *testing.T, budget int64) *model.GroupOrder {
	t.Helper()
	o, err := f.svc.Create(context.Background(), &model.CreateGroupOrderCommand{
		CreatedBy:     "user-a",
		CreatorName:   "Ada Lovelace",
		ChefID:        "chef-1",
		KitchenName:   "Nonna's Kitchen",
		InitialBudget: budget,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return o
}

func (f *fixture) join(t *testing.T, o *model.GroupOrder, userID, name string, contribution int64) *model.GroupOrder {
	t.Helper()
	res, err := f.svc.Join(context.Background(), &model.JoinCommand{
		ShareToken:   o.ShareToken,
		UserID:       userID,
		UserName:     name,
		Revision:     o.Revision,
		Contribution: contribution,
	})
	if err != nil {
		t.Fatalf("Join(%s): %v", userID, err)
	}
	return res
}

func TestClosingScenario(t *testing.T) {
	// initial_budget 2000, A contributes 500, B contributes 300 ->
	// total_budget 2800. A picks 1200, B picks 900 -> total_amount 2100.
	// Both ready, creator closes with a 10%/min-2 offer -> discount 210,
	// final 1890.
	ctx := context.Background()
	f := newFixture(t)

	o := f.create(t, 2000)
	o = f.join(t, o, "user-b", "Bob", 0)

	o, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Amount: 500,
	})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision, Amount: 300,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.TotalBudget != 2800 {
		t.Fatalf("total_budget = %d, want 2800", o.TotalBudget)
	}

	o, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
	})
	if err != nil {
		t.Fatal(err)
	}

	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Lasagna", Quantity: 1, Price: 1200}},
	})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d2", Name: "Risotto", Quantity: 1, Price: 900}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.TotalAmount != 2100 {
		t.Fatalf("total_amount = %d, want 2100", o.TotalAmount)
	}

	o, err = f.svc.SetReady(ctx, &model.SetReadyCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Ready: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetReady(ctx, &model.SetReadyCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision, Ready: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.SelectionPhase != model.PhaseReady {
		t.Fatalf("phase = %s, want ready", o.SelectionPhase)
	}

	o, err = f.svc.Close(ctx, &model.CloseCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != model.StatusClosed {
		t.Errorf("status = %s, want closed", o.Status)
	}
	if o.DiscountAmount != 210 || o.FinalAmount != 1890 {
		t.Errorf("pricing = (%d, %d), want (210, 1890)", o.DiscountAmount, o.FinalAmount)
	}

	o, err = f.svc.Confirm(ctx, o.GroupOrderID, "order-main-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != model.StatusConfirmed || o.MainOrderID != "order-main-1" {
		t.Errorf("after confirm: status=%s main_order_id=%q", o.Status, o.MainOrderID)
	}
}

func TestConcurrentContributionsNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.create(t, 2000)
	o = f.join(t, o, "user-b", "Bob", 0)
	staleRev := o.Revision

	if _, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: staleRev, Amount: 500,
	}); err != nil {
		t.Fatalf("first contribution: %v", err)
	}

	_, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: staleRev, Amount: 300,
	})
	if !errors.Is(err, model.ErrConcurrentModification) {
		t.Fatalf("racing contribution err = %v, want ErrConcurrentModification", err)
	}

	// The losing caller re-fetches and retries.
	fresh, err := f.svc.GetState(ctx, o.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: fresh.Revision, Amount: 300,
	})
	if err != nil {
		t.Fatalf("retried contribution: %v", err)
	}
	if res.TotalBudget != 2800 {
		t.Errorf("total_budget = %d, want 2800 after both contributions", res.TotalBudget)
	}
	if len(res.BudgetContributions) != 2 {
		t.Errorf("ledger entries = %d, want 2", len(res.BudgetContributions))
	}
}

func TestIdempotentClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.create(t, 2000)
	o = f.join(t, o, "user-b", "Bob", 0)
	var err error
	o, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 2100}},
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.Close(ctx, &model.CloseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}

	// Second close with a stale revision still returns the closed result.
	second, err := f.svc.Close(ctx, &model.CloseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if second.FinalAmount != first.FinalAmount || second.DiscountAmount != first.DiscountAmount {
		t.Errorf("second close changed pricing: (%d,%d) vs (%d,%d)",
			second.DiscountAmount, second.FinalAmount, first.DiscountAmount, first.FinalAmount)
	}
	if second.Revision != first.Revision {
		t.Errorf("second close advanced the revision: %d vs %d", second.Revision, first.Revision)
	}

	var closedEvents int
	for _, m := range f.store.Messages() {
		if m.EventType == string(model.EventClosed) {
			closedEvents++
		}
	}
	if closedEvents != 1 {
		t.Errorf("closed events = %d, want exactly 1", closedEvents)
	}
}

func TestPhaseGating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.create(t, 2000)

	_, err := f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pizza", Quantity: 1, Price: 900}},
	})
	if !errors.Is(err, model.ErrPhaseViolation) {
		t.Fatalf("err = %v, want ErrPhaseViolation", err)
	}

	after, err := f.svc.GetState(ctx, o.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Revision != o.Revision || after.TotalAmount != 0 {
		t.Error("rejected set_items must not mutate state")
	}
}

func TestJoinResetsReadyPhase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.create(t, 2000)
	var err error
	o, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 1200}},
	})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetReady(ctx, &model.SetReadyCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Ready: true})
	if err != nil {
		t.Fatal(err)
	}
	if o.SelectionPhase != model.PhaseReady {
		t.Fatalf("phase = %s, want ready", o.SelectionPhase)
	}

	o = f.join(t, o, "user-b", "Bob", 0)
	if o.SelectionPhase != model.PhaseSelecting {
		t.Errorf("phase after join = %s, want selecting", o.SelectionPhase)
	}
}

func TestExpiredShareLinkRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *Config) { c.ShareTTL = time.Hour })

	o := f.create(t, 2000)
	f.now = f.now.Add(2 * time.Hour) // past the share window, order still active

	_, err := f.svc.Join(ctx, &model.JoinCommand{
		ShareToken: o.ShareToken, UserID: "user-b", UserName: "Bob", Revision: o.Revision,
	})
	if !errors.Is(err, model.ErrExpiredShareLink) {
		t.Fatalf("err = %v, want ErrExpiredShareLink", err)
	}

	state, err := f.svc.GetState(ctx, o.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusActive {
		t.Errorf("status = %s, order must still be active", state.Status)
	}
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Nothing selected: expired order is cancelled.
	o := f.create(t, 2000)
	f.now = f.now.Add(25 * time.Hour)
	state, err := f.svc.GetState(ctx, o.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusCancelled {
		t.Errorf("expired empty order status = %s, want cancelled", state.Status)
	}

	// With selections: expired order closes with pricing applied.
	f.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	o2 := f.create(t, 2000)
	o2 = f.join(t, o2, "user-b", "Bob", 0)
	o2, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o2.GroupOrderID, UserID: "user-a", Revision: o2.Revision})
	if err != nil {
		t.Fatal(err)
	}
	o2, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o2.GroupOrderID, UserID: "user-a", Revision: o2.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 1000}},
	})
	if err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(25 * time.Hour)
	state, err = f.svc.GetState(ctx, o2.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusClosed {
		t.Errorf("expired order with selections status = %s, want closed", state.Status)
	}
	if state.DiscountAmount != 100 || state.FinalAmount != 900 {
		t.Errorf("pricing = (%d, %d), want (100, 900)", state.DiscountAmount, state.FinalAmount)
	}
}

func TestExpiredOrderIsQueuedForConversion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.create(t, 2000)
	o, err := f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 1000}},
	})
	if err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(25 * time.Hour)
	if _, err = f.svc.SweepExpired(ctx); err != nil {
		t.Fatal(err)
	}

	state, err := f.svc.GetState(ctx, o.GroupOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusClosed {
		t.Fatalf("status after sweep = %s, want closed", state.Status)
	}

	// The closed order must surface for the conversion poller, otherwise it
	// would never reach confirmed or cancelled.
	ids, err := f.svc.ListClosed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != o.GroupOrderID {
		t.Errorf("ListClosed = %v, want [%s]", ids, o.GroupOrderID)
	}
}

func TestAutoAdvanceOnMinBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *Config) { c.SelectionMinBudget = 3000 })

	o := f.create(t, 2000)
	o, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Amount: 500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.SelectionPhase != model.PhaseBudgeting {
		t.Fatalf("phase = %s, threshold not reached yet", o.SelectionPhase)
	}

	o, err = f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Amount: 500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.SelectionPhase != model.PhaseSelecting {
		t.Errorf("phase = %s, want selecting at min budget", o.SelectionPhase)
	}
}

func TestAutoCloseOnReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *Config) { c.AutoCloseOnReady = true })

	o := f.create(t, 2000)
	o = f.join(t, o, "user-b", "Bob", 0)
	var err error
	o, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"user-a", "user-b"} {
		o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
			GroupOrderID: o.GroupOrderID, UserID: u, Revision: o.Revision,
			OrderItems: []model.OrderItem{{DishID: "d-" + u, Name: "Dish", Quantity: 1, Price: 1000}},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	o, err = f.svc.SetReady(ctx, &model.SetReadyCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Ready: true})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != model.StatusActive {
		t.Fatalf("order closed before everyone was ready")
	}

	o, err = f.svc.SetReady(ctx, &model.SetReadyCommand{GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision, Ready: true})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != model.StatusClosed {
		t.Errorf("status = %s, want closed after all ready", o.Status)
	}
	if o.DiscountAmount != 200 || o.FinalAmount != 1800 {
		t.Errorf("pricing = (%d, %d), want (200, 1800)", o.DiscountAmount, o.FinalAmount)
	}
}

func TestOnlyCreatorMayCloseOrCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.create(t, 2000)
	o = f.join(t, o, "user-b", "Bob", 0)

	if _, err := f.svc.Close(ctx, &model.CloseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("close by non-creator err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Cancel(ctx, &model.CancelCommand{GroupOrderID: o.GroupOrderID, UserID: "user-b", Revision: o.Revision}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("cancel by non-creator err = %v, want ErrForbidden", err)
	}
}

func TestCloseRejectsEmptyOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.create(t, 2000)

	_, err := f.svc.Close(ctx, &model.CloseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if !errors.Is(err, model.ErrEmptySelection) {
		t.Errorf("err = %v, want ErrEmptySelection", err)
	}
}

func TestEventsEmittedOnlyOnCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.create(t, 2000)

	// A rejected mutation must leave no trace in the outbox.
	_, err := f.svc.Contribute(ctx, &model.ContributeCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision, Amount: -5,
	})
	if !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatal(err)
	}

	for _, m := range f.store.Messages() {
		if m.EventType == string(model.EventBudgetContributed) {
			t.Fatal("rejected contribution produced an event")
		}
	}
}

// TestInvariantConservation drives a random operation sequence and checks the
// monetary invariants after every successful commit.
func TestInvariantConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	o := f.create(t, 5000)
	users := []string{"user-a"}
	o, err := f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		user := users[rng.Intn(len(users))]
		var res *model.GroupOrder
		var opErr error

		switch rng.Intn(4) {
		case 0:
			res, opErr = f.svc.Contribute(ctx, &model.ContributeCommand{
				GroupOrderID: o.GroupOrderID, UserID: user, Revision: o.Revision,
				Amount: int64(rng.Intn(500) + 1),
			})
		case 1:
			items := make([]model.OrderItem, rng.Intn(3))
			for j := range items {
				items[j] = model.OrderItem{
					DishID: "dish", Name: "Dish",
					Quantity: rng.Intn(3) + 1,
					Price:    int64(rng.Intn(1000) + 50),
				}
			}
			res, opErr = f.svc.SetItems(ctx, &model.SetItemsCommand{
				GroupOrderID: o.GroupOrderID, UserID: user, Revision: o.Revision, OrderItems: items,
			})
		case 2:
			res, opErr = f.svc.SetReady(ctx, &model.SetReadyCommand{
				GroupOrderID: o.GroupOrderID, UserID: user, Revision: o.Revision,
				Ready: rng.Intn(2) == 0,
			})
		case 3:
			if len(users) >= 5 {
				continue
			}
			name := string(rune('b' + len(users)))
			res, opErr = f.svc.Join(ctx, &model.JoinCommand{
				ShareToken: o.ShareToken, UserID: "user-" + name, UserName: "User " + name,
				Revision: o.Revision, Contribution: int64(rng.Intn(300)),
			})
			if opErr == nil {
				users = append(users, "user-"+name)
			}
		}

		if opErr != nil {
			// Only domain rejections are acceptable here.
			if errors.Is(opErr, model.ErrEmptySelection) || errors.Is(opErr, model.ErrPhaseViolation) || errors.Is(opErr, model.ErrInvalidAmount) {
				continue
			}
			t.Fatalf("op %d: %v", i, opErr)
		}
		o = res

		if err := o.Validate(); err != nil {
			t.Fatalf("op %d broke an invariant: %v", i, err)
		}
		var contributed int64
		for _, c := range o.BudgetContributions {
			contributed += c.Amount
		}
		if o.TotalBudget != o.InitialBudget+contributed {
			t.Fatalf("op %d: total_budget %d != %d + %d", i, o.TotalBudget, o.InitialBudget, contributed)
		}
		var itemSum int64
		for _, p := range o.Participants {
			itemSum += p.TotalContribution
		}
		if o.TotalAmount != itemSum {
			t.Fatalf("op %d: total_amount %d != participant sum %d", i, o.TotalAmount, itemSum)
		}
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.create(t, 2000)
	var err error
	o, err = f.svc.AdvancePhase(ctx, &model.AdvancePhaseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.SetItems(ctx, &model.SetItemsCommand{
		GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision,
		OrderItems: []model.OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 1000}},
	})
	if err != nil {
		t.Fatal(err)
	}
	o, err = f.svc.Close(ctx, &model.CloseCommand{GroupOrderID: o.GroupOrderID, UserID: "user-a", Revision: o.Revision})
	if err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.Confirm(ctx, o.GroupOrderID, "order-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Confirm(ctx, o.GroupOrderID, "order-1")
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if second.Revision != first.Revision || second.MainOrderID != "order-1" {
		t.Errorf("repeat confirm changed state: rev %d vs %d", second.Revision, first.Revision)
	}
}
