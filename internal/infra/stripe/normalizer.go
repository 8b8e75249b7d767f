// File: internal/infra/stripe/normalizer.go
package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
)

// Normalizer verifies webhook envelopes and maps Stripe event payloads onto
// the closed lifecycle signal set.
//
// Verification happens on the raw body before any JSON decoding: the
// timestamp+HMAC signature is the trust boundary of the whole receiver.
// Payloads are decoded into local structs rather than stripe-go's full types
// so API-version drift in fields we never read cannot break parsing.
type Normalizer struct {
	secret string
	log    *zerolog.Logger
}

func NewNormalizer(webhookSecret string, logger *zerolog.Logger) *Normalizer {
	return &Normalizer{secret: webhookSecret, log: logger}
}

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	AmountTotal  int64             `json:"amount_total"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type invoicePayload struct {
	Subscription string `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (p invoicePayload) subscriptionRef() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		return p.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

type accountPayload struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
}

// VerifyAndParse turns a raw envelope into a lifecycle signal.
//
// Returns (nil, nil) for event types the receiver does not care about; the
// caller acknowledges them so the processor stops redelivering. Signature
// failures return domain.ErrSignatureInvalid and must be answered non-2xx.
// Malformed payloads of recognized types return domain.ErrMalformedPayload;
// the caller logs and acknowledges.
func (n *Normalizer) VerifyAndParse(payload []byte, sigHeader string) (*model.Signal, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, n.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return n.parseCheckout(&event)

	case "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil || sub.ID == "" {
			return nil, fmt.Errorf("%w: subscription payload", domain.ErrMalformedPayload)
		}
		// Anything but a return to active (e.g. past_due, trialing edits) is
		// not a lifecycle transition we track.
		if sub.Status != "active" {
			return nil, nil
		}
		return &model.Signal{Kind: model.SignalSubscriptionRenewed, EventID: event.ID, SubscriptionRef: sub.ID}, nil

	case "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil || sub.ID == "" {
			return nil, fmt.Errorf("%w: subscription payload", domain.ErrMalformedPayload)
		}
		return &model.Signal{Kind: model.SignalSubscriptionCancelled, EventID: event.ID, SubscriptionRef: sub.ID}, nil

	case "invoice.payment_failed":
		var inv invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: invoice payload", domain.ErrMalformedPayload)
		}
		ref := inv.subscriptionRef()
		if ref == "" {
			// One-off invoice with no subscription; nothing to converge.
			return nil, nil
		}
		return &model.Signal{Kind: model.SignalPaymentFailed, EventID: event.ID, SubscriptionRef: ref}, nil

	case "account.updated":
		var acct accountPayload
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil || acct.ID == "" {
			return nil, fmt.Errorf("%w: account payload", domain.ErrMalformedPayload)
		}
		return &model.Signal{
			Kind:    model.SignalAccountUpdated,
			EventID: event.ID,
			Account: &model.AccountUpdated{
				ExternalAccountRef: acct.ID,
				OnboardingComplete: acct.DetailsSubmitted,
				ChargesEnabled:     acct.ChargesEnabled,
				PayoutsEnabled:     acct.PayoutsEnabled,
			},
		}, nil

	default:
		n.log.Debug().Str("type", string(event.Type)).Str("event_id", event.ID).Msg("webhook event ignored")
		return nil, nil
	}
}

func (n *Normalizer) parseCheckout(event *stripe.Event) (*model.Signal, error) {
	var sess checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
		return nil, fmt.Errorf("%w: checkout session payload", domain.ErrMalformedPayload)
	}

	subjectID := sess.Metadata[metaSubjectID]
	organizationID := sess.Metadata[metaOrganizationID]
	tier := sess.Metadata[metaTier]
	// The organization id must ride in the event metadata. Correlating
	// through a configured default guild only works single-tenant, so a
	// missing id fails the correlation instead of silently defaulting.
	if subjectID == "" || organizationID == "" || tier == "" {
		return nil, fmt.Errorf("%w: checkout session %s missing correlation metadata", domain.ErrMalformedPayload, sess.ID)
	}

	mode := model.PaymentMode(sess.Metadata[metaPaymentMode])
	if mode != model.PaymentModeOneTime && mode != model.PaymentModeRecurring {
		// Fall back to the session's own mode field.
		switch sess.Mode {
		case string(stripe.CheckoutSessionModeSubscription):
			mode = model.PaymentModeRecurring
		default:
			mode = model.PaymentModeOneTime
		}
	}

	var subscriptionRef *string
	if sess.Subscription != "" {
		subscriptionRef = &sess.Subscription
	}

	return &model.Signal{
		Kind:    model.SignalCheckoutCompleted,
		EventID: event.ID,
		Checkout: &model.CheckoutCompleted{
			SubjectID:       subjectID,
			OrganizationID:  organizationID,
			Tier:            tier,
			PaymentMode:     mode,
			GrossAmount:     sess.AmountTotal,
			PaymentRef:      sess.ID,
			SubscriptionRef: subscriptionRef,
		},
	}, nil
}
