package model

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *GroupOrder {
	t.Helper()
	o, err := NewGroupOrder(NewGroupOrderParams{
		CreatedBy:     "user-a",
		CreatorName:   "Ada Lovelace",
		ChefID:        "chef-1",
		KitchenName:   "Nonna's Kitchen",
		Currency:      "GBP",
		InitialBudget: 2000,
		ExpiresIn:     24 * time.Hour,
		ShareTTL:      30 * 24 * time.Hour,
		ShareBaseURL:  "https://cribnosh.app",
	}, testNow)
	if err != nil {
		t.Fatalf("NewGroupOrder: %v", err)
	}
	return o
}

func TestNewGroupOrder(t *testing.T) {
	o := newTestOrder(t)

	if o.Status != StatusActive {
		t.Errorf("status = %s, want active", o.Status)
	}
	if o.SelectionPhase != PhaseBudgeting {
		t.Errorf("phase = %s, want budgeting", o.SelectionPhase)
	}
	if o.TotalBudget != 2000 {
		t.Errorf("total_budget = %d, want 2000", o.TotalBudget)
	}
	if len(o.Participants) != 1 || o.Participants[0].UserID != "user-a" {
		t.Fatalf("creator must be the first participant, got %+v", o.Participants)
	}
	if o.Participants[0].UserInitials != "AL" {
		t.Errorf("initials = %s, want AL", o.Participants[0].UserInitials)
	}
	if o.ShareToken == "" || o.ShareLink == "" {
		t.Error("share token/link must be set on a fresh order")
	}
	if o.Title != "Ada Lovelace's group order from Nonna's Kitchen" {
		t.Errorf("unexpected default title %q", o.Title)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("fresh order fails validation: %v", err)
	}
}

func TestNewGroupOrderRejectsNonPositiveBudget(t *testing.T) {
	_, err := NewGroupOrder(NewGroupOrderParams{CreatedBy: "u", InitialBudget: 0}, testNow)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestJoin(t *testing.T) {
	o := newTestOrder(t)

	if err := o.Join(JoinParams{UserID: "user-b", UserName: "Bob", Contribution: 300}, testNow); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(o.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(o.Participants))
	}
	if o.TotalBudget != 2300 {
		t.Errorf("total_budget = %d, want 2300", o.TotalBudget)
	}
	if got := len(o.BudgetContributions); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}

	if err := o.Join(JoinParams{UserID: "user-b", UserName: "Bob"}, testNow); !errors.Is(err, ErrDuplicateParticipant) {
		t.Errorf("duplicate join err = %v, want ErrDuplicateParticipant", err)
	}

	err := o.Join(JoinParams{
		UserID:     "user-c",
		UserName:   "Cara",
		OrderItems: []OrderItem{{DishID: "d1", Name: "Soup", Quantity: 1, Price: 500}},
	}, testNow)
	if !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("join with items during budgeting err = %v, want ErrPhaseViolation", err)
	}

	if err := o.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestJoinResetsReadyPhase(t *testing.T) {
	o := newTestOrder(t)
	if err := o.StartSelecting(); err != nil {
		t.Fatal(err)
	}
	if err := o.SetItems("user-a", []OrderItem{{DishID: "d1", Name: "Pasta", Quantity: 1, Price: 1200}}); err != nil {
		t.Fatal(err)
	}
	if err := o.MarkReady("user-a", testNow); err != nil {
		t.Fatal(err)
	}
	if o.SelectionPhase != PhaseReady {
		t.Fatalf("phase = %s, want ready", o.SelectionPhase)
	}

	if err := o.Join(JoinParams{UserID: "user-b", UserName: "Bob"}, testNow); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if o.SelectionPhase != PhaseSelecting {
		t.Errorf("phase after join = %s, want selecting", o.SelectionPhase)
	}
}

func TestAddContribution(t *testing.T) {
	o := newTestOrder(t)

	tests := []struct {
		name    string
		userID  string
		amount  int64
		wantErr error
	}{
		{name: "positive amount", userID: "user-a", amount: 500},
		{name: "zero amount", userID: "user-a", amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount", userID: "user-a", amount: -100, wantErr: ErrInvalidAmount},
		{name: "unknown user", userID: "ghost", amount: 100, wantErr: ErrNotParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.AddContribution(tt.userID, tt.amount, testNow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if o.TotalBudget != 2500 {
		t.Errorf("total_budget = %d, want 2500", o.TotalBudget)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSetItemsPhaseGating(t *testing.T) {
	o := newTestOrder(t)

	err := o.SetItems("user-a", []OrderItem{{DishID: "d1", Name: "Pizza", Quantity: 1, Price: 900}})
	if !errors.Is(err, ErrPhaseViolation) {
		t.Fatalf("set_items during budgeting err = %v, want ErrPhaseViolation", err)
	}
	if o.TotalAmount != 0 || len(o.Participants[0].OrderItems) != 0 {
		t.Error("failed set_items must not mutate state")
	}

	if err := o.StartSelecting(); err != nil {
		t.Fatal(err)
	}
	if err := o.SetItems("user-a", []OrderItem{
		{DishID: "d1", Name: "Pizza", Quantity: 2, Price: 900},
		{DishID: "d2", Name: "Cola", Quantity: 1, Price: 300},
	}); err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if o.Participants[0].TotalContribution != 2100 {
		t.Errorf("total_contribution = %d, want 2100", o.Participants[0].TotalContribution)
	}
	if o.TotalAmount != 2100 {
		t.Errorf("total_amount = %d, want 2100", o.TotalAmount)
	}
}

func TestSetItemsResetsReadiness(t *testing.T) {
	o := newTestOrder(t)
	if err := o.StartSelecting(); err != nil {
		t.Fatal(err)
	}
	items := []OrderItem{{DishID: "d1", Name: "Pizza", Quantity: 1, Price: 900}}
	if err := o.SetItems("user-a", items); err != nil {
		t.Fatal(err)
	}
	if err := o.MarkReady("user-a", testNow); err != nil {
		t.Fatal(err)
	}

	if err := o.SetItems("user-a", items); err != nil {
		t.Fatal(err)
	}
	p, _ := o.Participant("user-a")
	if p.SelectionStatus != SelectionNotReady || p.SelectionReadyAt != nil {
		t.Error("changing items must reset readiness")
	}
	if o.SelectionPhase != PhaseSelecting {
		t.Errorf("phase = %s, want selecting", o.SelectionPhase)
	}
}

func TestMarkReadyRequiresSelection(t *testing.T) {
	o := newTestOrder(t)
	if err := o.StartSelecting(); err != nil {
		t.Fatal(err)
	}
	if err := o.MarkReady("user-a", testNow); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("err = %v, want ErrEmptySelection", err)
	}
}

func TestPhaseNeverRegressesAutomatically(t *testing.T) {
	o := newTestOrder(t)
	if err := o.StartSelecting(); err != nil {
		t.Fatal(err)
	}
	if err := o.StartSelecting(); !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("second advance err = %v, want ErrPhaseViolation", err)
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "AL"},
		{"Cher", "C"},
		{"mary jane watson", "MJ"},
		{"Óscar Pérez", "ÓP"},
		{"Óscar", "Ó"},
		{"", "U"},
	}
	for _, tt := range tests {
		if got := Initials(tt.name); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
