// File: internal/infra/stripe/gateway.go
package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
)

// Metadata keys round-tripped through the checkout session. The webhook
// normalizer reads the same keys back; they are the only correlation channel
// for checkout.session.completed.
const (
	metaSubjectID      = "discord_user_id"
	metaOrganizationID = "guild_id"
	metaTier           = "tier"
	metaPaymentMode    = "payment_mode"
)

// Gateway implements adapter.PaymentGateway on Stripe Connect.
type Gateway struct {
	sc *client.API
}

var _ adapter.PaymentGateway = (*Gateway)(nil)

func NewGateway(secretKey string) *Gateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Gateway{sc: sc}
}

func (g *Gateway) Name() string { return "stripe" }

func (g *Gateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceRef), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.SubjectID),
	}
	params.AddMetadata(metaSubjectID, p.SubjectID)
	params.AddMetadata(metaOrganizationID, p.OrganizationID)
	params.AddMetadata(metaTier, p.Tier)
	params.AddMetadata(metaPaymentMode, string(p.Mode))

	switch p.Mode {
	case model.PaymentModeOneTime:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.ApplicationFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccountRef),
			},
		}
	case model.PaymentModeRecurring:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		// The fee percentage rides on the subscription; recurring invoices are
		// split by the processor, not by us.
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			ApplicationFeePercent: stripe.Float64(float64(p.ApplicationFeeBps) / 100.0),
			TransferData: &stripe.CheckoutSessionSubscriptionDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccountRef),
			},
		}
	default:
		return "", fmt.Errorf("unsupported payment mode %q", p.Mode)
	}

	sess, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *Gateway) CreateMerchantAccount(ctx context.Context) (string, error) {
	params := &stripe.AccountParams{
		Params:       stripe.Params{Context: ctx},
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		BusinessType: stripe.String("individual"),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	acct, err := g.sc.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create account: %w", err)
	}
	return acct.ID, nil
}

func (g *Gateway) CreateOnboardingLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	link, err := g.sc.AccountLinks.New(&stripe.AccountLinkParams{
		Params:     stripe.Params{Context: ctx},
		Account:    stripe.String(accountRef),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("stripe create account link: %w", err)
	}
	return link.URL, nil
}

func (g *Gateway) CreateManagementLink(ctx context.Context, accountRef string) (string, error) {
	link, err := g.sc.LoginLinks.New(&stripe.LoginLinkParams{
		Params:  stripe.Params{Context: ctx},
		Account: stripe.String(accountRef),
	})
	if err != nil {
		return "", fmt.Errorf("stripe create login link: %w", err)
	}
	return link.URL, nil
}

func (g *Gateway) RetrieveAccount(ctx context.Context, accountRef string) (adapter.AccountState, error) {
	acct, err := g.sc.Accounts.GetByID(accountRef, &stripe.AccountParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return adapter.AccountState{}, fmt.Errorf("stripe retrieve account: %w", err)
	}
	return adapter.AccountState{
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}
