// Package fulfillment talks to the order-creation service that owns the
// downstream kitchen/payment/delivery pipeline. Creation is idempotent on
// group_order_id, so a retried conversion never produces a duplicate order.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// Error is a typed order-creation failure. Retryable errors (network,
// timeouts, 5xx) may be retried by the conversion pipeline; terminal errors
// (kitchen capacity, invalid items) cancel the group order.
type Error struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("order creation failed (status %d, retryable %t): %s", e.StatusCode, e.Retryable, e.Message)
}

// IsRetryable reports whether err is a transient order-creation failure.
func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *ClientConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type createOrderRequest struct {
	GroupOrderID     string                 `json:"group_order_id"`
	ChefID           string                 `json:"chef_id"`
	CustomerID       string                 `json:"customer_id"`
	Currency         string                 `json:"currency"`
	LineItems        []model.LineItem       `json:"line_items"`
	FinalAmount      int64                  `json:"final_amount"`
	ParticipantCount int                    `json:"participant_count"`
	IsGroupOrder     bool                   `json:"is_group_order"`
	DeliveryAddress  *model.DeliveryAddress `json:"delivery_address,omitempty"`
	DeliveryTime     string                 `json:"delivery_time,omitempty"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error,omitempty"`
}

// CreateOrder submits the closed snapshot downstream and returns the
// canonical order id. The group order id doubles as the idempotency key.
func (c *Client) CreateOrder(ctx context.Context, snap model.Snapshot) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		GroupOrderID:     snap.GroupOrderID,
		ChefID:           snap.ChefID,
		CustomerID:       snap.CreatedBy,
		Currency:         snap.Currency,
		LineItems:        snap.LineItems,
		FinalAmount:      snap.FinalAmount,
		ParticipantCount: snap.ParticipantCount,
		IsGroupOrder:     true,
		DeliveryAddress:  snap.DeliveryAddress,
		DeliveryTime:     snap.DeliveryTime,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", snap.GroupOrderID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	var decoded createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && resp.StatusCode < 300 {
		return "", &Error{StatusCode: resp.StatusCode, Message: "malformed response", Retryable: true}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if decoded.OrderID == "" {
			return "", &Error{StatusCode: resp.StatusCode, Message: "response missing order_id", Retryable: false}
		}
		return decoded.OrderID, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", &Error{StatusCode: resp.StatusCode, Message: decoded.Error, Retryable: true}
	default:
		return "", &Error{StatusCode: resp.StatusCode, Message: decoded.Error, Retryable: false}
	}
}
