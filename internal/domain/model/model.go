// Package model holds the GroupOrder aggregate: the shared multi-participant
// cart, its two state machines and the invariants that must hold after every
// committed mutation. All writes go through the grouporder service, which
// loads an aggregate, applies one of the methods here and persists the result
// with a compare-and-swap on Revision.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cribnosh/group-ordering/internal/domain/money"
)

type SelectionStatus string

const (
	SelectionNotReady SelectionStatus = "not_ready"
	SelectionReady    SelectionStatus = "ready"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderItem struct {
	DishID              string `json:"dish_id"`
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	Price               int64  `json:"price"` // minor units
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type BudgetContribution struct {
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	ContributedAt time.Time `json:"contributed_at"`
}

type DeliveryAddress struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Participant is one user's contribution/selection sub-state. It is embedded
// in its GroupOrder and never lives independently.
type Participant struct {
	UserID             string          `json:"user_id"`
	UserName           string          `json:"user_name"`
	UserInitials       string          `json:"user_initials"`
	AvatarURL          string          `json:"avatar_url,omitempty"`
	JoinedAt           time.Time       `json:"joined_at"`
	BudgetContribution int64           `json:"budget_contribution"`
	OrderItems         []OrderItem     `json:"order_items"`
	SelectionStatus    SelectionStatus `json:"selection_status"`
	SelectionReadyAt   *time.Time      `json:"selection_ready_at,omitempty"`
	TotalContribution  int64           `json:"total_contribution"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
}

// GroupOrder is the aggregate root.
type GroupOrder struct {
	ID             string         `json:"id"`
	GroupOrderID   string         `json:"group_order_id"`
	CreatedBy      string         `json:"created_by"`
	ChefID         string         `json:"chef_id"`
	KitchenName    string         `json:"kitchen_name"`
	Title          string         `json:"title"`
	Status         Status         `json:"status"`
	SelectionPhase SelectionPhase `json:"selection_phase"`
	Currency       money.Currency `json:"currency"`

	InitialBudget       int64                `json:"initial_budget"`
	TotalBudget         int64                `json:"total_budget"`
	BudgetContributions []BudgetContribution `json:"budget_contributions"`

	Participants []Participant `json:"participants"`

	TotalAmount    int64 `json:"total_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	FinalAmount    int64 `json:"final_amount"`

	DeliveryAddress *DeliveryAddress `json:"delivery_address,omitempty"`
	DeliveryTime    string           `json:"delivery_time,omitempty"`

	ShareToken     string     `json:"share_token,omitempty"`
	ShareLink      string     `json:"share_link,omitempty"`
	ShareExpiresAt *time.Time `json:"share_expires_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`

	MainOrderID string `json:"main_order_id,omitempty"`

	// Revision is the optimistic-concurrency counter. Every committed
	// mutation increments it; callers echo it back and a mismatch fails
	// with ErrConcurrentModification.
	Revision int64 `json:"revision"`
}

type NewGroupOrderParams struct {
	CreatedBy       string
	CreatorName     string
	CreatorAvatar   string
	ChefID          string
	KitchenName     string
	Title           string
	Currency        money.Currency
	InitialBudget   int64
	DeliveryAddress *DeliveryAddress
	DeliveryTime    string
	ExpiresIn       time.Duration
	ShareTTL        time.Duration
	ShareBaseURL    string
}

// NewGroupOrder creates an active group order in the budgeting phase with the
// creator as its first participant.
func NewGroupOrder(p NewGroupOrderParams, now time.Time) (*GroupOrder, error) {
	if p.InitialBudget <= 0 {
		return nil, fmt.Errorf("%w: initial budget %d", ErrInvalidAmount, p.InitialBudget)
	}

	token := newShareToken()
	shareExpiry := now.Add(p.ShareTTL)

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("%s's group order from %s", p.CreatorName, p.KitchenName)
	}

	o := &GroupOrder{
		ID:              uuid.New().String(),
		GroupOrderID:    newGroupOrderID(now),
		CreatedBy:       p.CreatedBy,
		ChefID:          p.ChefID,
		KitchenName:     p.KitchenName,
		Title:           title,
		Status:          StatusActive,
		SelectionPhase:  PhaseBudgeting,
		Currency:        p.Currency,
		InitialBudget:   p.InitialBudget,
		TotalBudget:     p.InitialBudget,
		DeliveryAddress: p.DeliveryAddress,
		DeliveryTime:    p.DeliveryTime,
		ShareToken:      token,
		ShareLink:       fmt.Sprintf("%s/group-order/%s", strings.TrimSuffix(p.ShareBaseURL, "/"), token),
		ShareExpiresAt:  &shareExpiry,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(p.ExpiresIn),
		Revision:        1,
	}
	o.Participants = append(o.Participants, Participant{
		UserID:          p.CreatedBy,
		UserName:        p.CreatorName,
		UserInitials:    Initials(p.CreatorName),
		AvatarURL:       p.CreatorAvatar,
		JoinedAt:        now,
		OrderItems:      []OrderItem{},
		SelectionStatus: SelectionNotReady,
		PaymentStatus:   PaymentPending,
	})
	return o, nil
}

// newGroupOrderID produces the external GRP-<millis>-<suffix> identifier.
func newGroupOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("GRP-%d-%s", now.UnixMilli(), suffix)
}

func newShareToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("share token: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Initials derives up to two upper-case initials from a display name.
func Initials(name string) string {
	var b strings.Builder
	runes := 0
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		runes++
		if runes == 2 {
			break
		}
	}
	if runes == 0 {
		return "U"
	}
	return b.String()
}

// Participant returns a pointer to the participant with the given user ID.
func (o *GroupOrder) Participant(userID string) (*Participant, bool) {
	for i := range o.Participants {
		if o.Participants[i].UserID == userID {
			return &o.Participants[i], true
		}
	}
	return nil, false
}

// Expired reports whether the order's lifetime has elapsed.
func (o *GroupOrder) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// ShareExpired reports whether the join window has elapsed.
func (o *GroupOrder) ShareExpired(now time.Time) bool {
	return o.ShareExpiresAt != nil && now.After(*o.ShareExpiresAt)
}

// HasSelections reports whether any participant has picked items.
func (o *GroupOrder) HasSelections() bool {
	for i := range o.Participants {
		if len(o.Participants[i].OrderItems) > 0 {
			return true
		}
	}
	return false
}

// recomputeTotals rederives the aggregate totals from participant sub-state.
func (o *GroupOrder) recomputeTotals() {
	var total int64
	for i := range o.Participants {
		total += o.Participants[i].TotalContribution
	}
	o.TotalAmount = total
}

// allReady reports whether every current participant has marked ready.
func (o *GroupOrder) allReady() bool {
	for i := range o.Participants {
		if o.Participants[i].SelectionStatus != SelectionReady {
			return false
		}
	}
	return len(o.Participants) > 0
}
