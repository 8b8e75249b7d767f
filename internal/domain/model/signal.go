package model

// SignalKind enumerates the closed set of lifecycle signals the normalizer can
// produce. Everything else the processor sends is acknowledged and dropped.
type SignalKind string

const (
	SignalCheckoutCompleted     SignalKind = "checkout_completed"
	SignalSubscriptionRenewed   SignalKind = "subscription_renewed"
	SignalSubscriptionCancelled SignalKind = "subscription_cancelled"
	SignalPaymentFailed         SignalKind = "payment_failed"
	SignalAccountUpdated        SignalKind = "account_updated"
)

// CheckoutCompleted carries the correlation metadata embedded in the checkout
// session. The organization id must be present; there is no single-tenant
// fallback.
type CheckoutCompleted struct {
	SubjectID       string
	OrganizationID  string
	Tier            string
	PaymentMode     PaymentMode
	GrossAmount     int64 // cents
	PaymentRef      string
	SubscriptionRef *string // nil in one-time mode
}

// AccountUpdated mirrors the processor's merchant capability flags.
type AccountUpdated struct {
	ExternalAccountRef string
	OnboardingComplete bool
	ChargesEnabled     bool
	PayoutsEnabled     bool
}

// Signal is the tagged variant handed to the reconciliation engine. Exactly
// one payload field matching Kind is set. Renewal, cancellation and failure
// events carry no subject id; SubscriptionRef is their sole correlation key.
type Signal struct {
	Kind    SignalKind
	EventID string // processor event id, used for duplicate-delivery detection

	Checkout        *CheckoutCompleted // SignalCheckoutCompleted
	SubscriptionRef string             // renewed / cancelled / payment failed
	Account         *AccountUpdated    // SignalAccountUpdated
}
