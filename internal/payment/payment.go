// Package payment talks to the payment collaborator that sells tier upgrades.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
)

var (
	ErrDisabled         = errors.New("payments not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type (
	CheckoutRequest struct {
		UserID     string
		Tier       core.PlanTier
		Label      string
		Amount     decimal.Decimal
		SuccessURL string
		CancelURL  string
	}

	Checkout struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}

	// Outcome is the result of a finished checkout as reported by a webhook.
	Outcome struct {
		CheckoutID string
		UserID     string
		Tier       core.PlanTier
		Paid       bool
	}

	Provider interface {
		CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
		// ParseWebhook verifies and decodes a callback. ok is false for
		// events that do not conclude a checkout.
		ParseWebhook(payload []byte, signature string) (out Outcome, ok bool, err error)
	}
)
