package adapter

import (
	"context"

	"discord-membership-payments/internal/domain/model"
)

// AccountState is the processor-reported capability snapshot for a merchant.
type AccountState struct {
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// CheckoutParams describes one checkout session. Metadata round-trips through
// the processor and comes back on checkout.session.completed; it is the only
// correlation channel for that event.
type CheckoutParams struct {
	SubjectID      string
	OrganizationID string
	Tier           string
	Mode           model.PaymentMode
	PriceRef       string // processor price id for the tier+mode
	// One-time: absolute fee in minor units, precomputed by the calculator.
	ApplicationFeeCents int64
	// Recurring: fee percentage in basis points, attached at creation time.
	ApplicationFeeBps     int64
	DestinationAccountRef string
	SuccessURL            string
	CancelURL             string
}

// PaymentGateway is the hex port for the payment processor.
type PaymentGateway interface {
	Name() string

	// CreateCheckoutSession returns the hosted payment page URL.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (url string, err error)
	// CreateMerchantAccount provisions a new connected account and returns its ref.
	CreateMerchantAccount(ctx context.Context) (accountRef string, err error)
	// CreateOnboardingLink returns a URL that starts or continues onboarding.
	CreateOnboardingLink(ctx context.Context, accountRef, refreshURL, returnURL string) (url string, err error)
	// CreateManagementLink returns the merchant dashboard login URL for an
	// account that already completed onboarding.
	CreateManagementLink(ctx context.Context, accountRef string) (url string, err error)
	RetrieveAccount(ctx context.Context, accountRef string) (AccountState, error)
}
