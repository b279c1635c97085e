package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
	"freelanceflow/internal/payment"
)

// ApplyUpgrade moves the user to tier once the checkout identified by
// checkoutID has been paid. A checkout is applied at most once and tiers
// only move upwards. The checkout is recorded only after the new tier is
// saved, so a failed save leaves it free for the provider's retry.
func (w *Workspace) ApplyUpgrade(ctx context.Context, userID string, tier core.PlanTier, checkoutID string) error {
	if !tier.Valid() {
		return core.ErrInvalidTier
	}
	track := w.checkouts != nil && checkoutID != ""
	var from core.PlanTier
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		if tier.Rank() <= d.Tier.Rank() {
			return nil, ErrInvalidUpgrade
		}
		if track {
			done, err := w.checkouts.CheckoutProcessed(ctx, checkoutID)
			if err != nil {
				return nil, fmt.Errorf("look up checkout: %w", err)
			}
			if done {
				return nil, ErrAlreadyApplied
			}
		}
		from = d.Tier
		d.Tier = tier
		return []pending{{events.TierUpgraded, events.TierPayload{From: from, To: tier, CheckoutID: checkoutID}}}, nil
	})
	if err != nil {
		return err
	}
	if track {
		// The tier is saved either way; a retry of this checkout for the
		// same user stops at ErrInvalidUpgrade.
		first, err := w.checkouts.MarkCheckoutProcessed(ctx, checkoutID, userID)
		switch {
		case err != nil:
			w.logger.ErrorContext(ctx, "Failed to record checkout",
				log.FieldUserID, userID, "checkout_id", checkoutID, log.FieldError, err)
		case !first:
			w.logger.WarnContext(ctx, "Checkout recorded concurrently",
				log.FieldUserID, userID, "checkout_id", checkoutID)
		}
	}
	w.logger.InfoContext(ctx, "Plan tier upgraded",
		log.FieldUserID, userID,
		log.FieldTier, string(tier),
		"from", string(from))
	return nil
}

// Billing sells tier upgrades through the payment provider.
type Billing struct {
	workspace *Workspace
	provider  payment.Provider
	baseURL   string
	logger    *log.Logger
}

func NewBilling(ws *Workspace, provider payment.Provider, publicBaseURL string, logger *log.Logger) *Billing {
	if logger == nil {
		logger = log.Discard()
	}
	return &Billing{
		workspace: ws,
		provider:  provider,
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
		logger:    logger.WithComponent(log.ComponentPayment),
	}
}

// StartCheckout opens a payment for upgrading userID to tier.
func (b *Billing) StartCheckout(ctx context.Context, userID string, tier core.PlanTier) (payment.Checkout, error) {
	if b.provider == nil {
		return payment.Checkout{}, payment.ErrDisabled
	}
	if !tier.Valid() {
		return payment.Checkout{}, core.ErrInvalidTier
	}
	d, err := b.workspace.Get(ctx, userID)
	if err != nil {
		return payment.Checkout{}, err
	}
	if tier.Rank() <= d.Tier.Rank() {
		return payment.Checkout{}, ErrInvalidUpgrade
	}
	tr := b.workspace.rules.Tier(tier)
	if !tr.Price.IsPositive() {
		return payment.Checkout{}, ErrInvalidUpgrade
	}

	co, err := b.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		UserID:     userID,
		Tier:       tier,
		Label:      "FreelanceFlow " + tr.Label,
		Amount:     tr.Price,
		SuccessURL: b.baseURL + "/billing/success",
		CancelURL:  b.baseURL + "/billing/cancel",
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to create checkout",
			log.FieldUserID, userID, log.FieldTier, string(tier), log.FieldError, err)
		return payment.Checkout{}, err
	}
	b.logger.InfoContext(ctx, "Checkout created", log.FieldUserID, userID, log.FieldTier, string(tier), "checkout_id", co.ID)
	return co, nil
}

// HandleWebhook applies a payment callback. Failed payments and replayed
// callbacks leave the tier unchanged and are not errors.
func (b *Billing) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if b.provider == nil {
		return payment.ErrDisabled
	}
	out, ok, err := b.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !out.Paid {
		b.logger.WarnContext(ctx, "Checkout not paid", log.FieldUserID, out.UserID, "checkout_id", out.CheckoutID)
		return nil
	}
	if out.UserID == "" {
		return fmt.Errorf("checkout %s carries no user", out.CheckoutID)
	}

	err = b.workspace.ApplyUpgrade(ctx, out.UserID, out.Tier, out.CheckoutID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlreadyApplied), errors.Is(err, ErrInvalidUpgrade):
		b.logger.InfoContext(ctx, "Ignoring checkout callback",
			log.FieldUserID, out.UserID, "checkout_id", out.CheckoutID, "reason", err.Error())
		return nil
	default:
		return err
	}
}
