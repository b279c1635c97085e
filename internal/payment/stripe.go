package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"freelanceflow/internal/core"
)

const (
	metaUserID = "user_id"
	metaTier   = "tier"
)

// Stripe creates one-off checkout sessions priced from the tier rules.
type Stripe struct {
	webhookSecret string
}

var _ Provider = (*Stripe)(nil)

func NewStripe(secretKey, webhookSecret string) (*Stripe, error) {
	if secretKey == "" {
		return nil, ErrDisabled
	}
	stripe.Key = secretKey
	return &Stripe{webhookSecret: webhookSecret}, nil
}

func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("eur"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("FreelanceFlow " + req.Label),
					},
					UnitAmount: stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metaUserID, req.UserID)
	params.AddMetadata(metaTier, string(req.Tier))

	sess, err := session.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("create checkout session: %w", err)
	}
	return Checkout{ID: sess.ID, URL: sess.URL}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (Outcome, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Outcome{}, false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return outcomeFromEvent(event)
}

func outcomeFromEvent(event stripe.Event) (Outcome, bool, error) {
	var paid bool
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		paid = true
	case "checkout.session.async_payment_failed", "checkout.session.expired":
	default:
		return Outcome{}, false, nil
	}

	if event.Data == nil {
		return Outcome{}, false, errors.New("webhook event has no data")
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return Outcome{}, false, fmt.Errorf("decode checkout session: %w", err)
	}

	out := Outcome{
		CheckoutID: cs.ID,
		UserID:     cs.ClientReferenceID,
		Tier:       core.PlanTier(cs.Metadata[metaTier]),
		// A completed session can still be awaiting an asynchronous payment.
		Paid: paid && cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid,
	}
	if out.UserID == "" {
		out.UserID = cs.Metadata[metaUserID]
	}
	if out.CheckoutID == "" || out.UserID == "" {
		return Outcome{}, false, errors.New("checkout session is missing its id or user")
	}
	return out, true, nil
}
